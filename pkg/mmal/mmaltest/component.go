package mmaltest

import "github.com/pedrosland/rascam/pkg/mmal"

type Component struct {
	drv  *Driver
	name string

	control *Port
	inputs  []*Port
	outputs []*Port

	enabled   bool
	destroyed bool
}

func (c *Component) Name() string { return c.name }

func (c *Component) Control() mmal.Port { return c.control }

func (c *Component) Input(i int) mmal.Port { return c.inputs[i] }

func (c *Component) Output(i int) mmal.Port { return c.outputs[i] }

func (c *Component) OutputCount() int { return len(c.outputs) }

func (c *Component) Enable() error {
	if err := c.drv.checkOp("enable component %s", c.name); err != nil {
		return err
	}
	c.drv.mu.Lock()
	c.enabled = true
	c.drv.mu.Unlock()
	return nil
}

func (c *Component) Disable() error {
	if err := c.drv.checkOp("disable component %s", c.name); err != nil {
		return err
	}
	c.drv.mu.Lock()
	c.enabled = false
	c.drv.mu.Unlock()
	return nil
}

func (c *Component) Destroy() error {
	if err := c.drv.checkOp("destroy component %s", c.name); err != nil {
		return err
	}
	c.drv.mu.Lock()
	if c.destroyed {
		c.drv.mu.Unlock()
		c.drv.reportMisuse("component %s destroyed twice", c.name)
		return nil
	}
	c.destroyed = true
	c.drv.mu.Unlock()
	return nil
}

// Enabled reports the component state. Test helper, not part of the
// mmal.Component interface.
func (c *Component) Enabled() bool {
	c.drv.mu.Lock()
	defer c.drv.mu.Unlock()
	return c.enabled
}

// Destroyed reports whether Destroy was called. Test helper.
func (c *Component) Destroyed() bool {
	c.drv.mu.Lock()
	defer c.drv.mu.Unlock()
	return c.destroyed
}
