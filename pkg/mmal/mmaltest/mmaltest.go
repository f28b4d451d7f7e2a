// Package mmaltest is a scripted in-memory implementation of the mmal
// driver interfaces. It emulates enough of the native component model
// (ports, pools, buffer delivery from a separate goroutine) to exercise the
// capture pipeline without VideoCore hardware.
package mmaltest

import (
	"fmt"
	"sync"

	"github.com/pedrosland/rascam/pkg/mmal"
)

type Driver struct {
	mu       sync.Mutex
	ops      []string
	failures map[string]mmal.Status
	misuse   []string

	// Cameras is what the camera-info component reports.
	Cameras []mmal.CameraDetail

	// RGBOrderOld emulates firmware from before June 2016 with the
	// RGB24/BGR24 component order reversed.
	RGBOrderOld bool
}

func New() *Driver {
	return &Driver{
		failures: map[string]mmal.Status{},
		Cameras: []mmal.CameraDetail{
			{PortID: 0, MaxWidth: 2592, MaxHeight: 1944, Lens: false, Name: "ov5647"},
		},
	}
}

// FailOn makes the next operation whose canonical name equals op fail with
// the given status. Op names match the strings recorded in Ops.
func (d *Driver) FailOn(op string, status mmal.Status) {
	d.mu.Lock()
	d.failures[op] = status
	d.mu.Unlock()
}

// Ops returns every recorded operation in execution order.
func (d *Driver) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ops...)
}

// Misuse returns protocol violations observed by the fake, such as a buffer
// released twice or an operation on a destroyed handle.
func (d *Driver) Misuse() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.misuse...)
}

func (d *Driver) record(format string, args ...any) {
	d.mu.Lock()
	d.ops = append(d.ops, fmt.Sprintf(format, args...))
	d.mu.Unlock()
}

func (d *Driver) reportMisuse(format string, args ...any) {
	d.mu.Lock()
	d.misuse = append(d.misuse, fmt.Sprintf(format, args...))
	d.mu.Unlock()
}

// checkOp records the op and returns a scripted failure, if any.
func (d *Driver) checkOp(format string, args ...any) error {
	op := fmt.Sprintf(format, args...)

	d.mu.Lock()
	d.ops = append(d.ops, op)
	status, ok := d.failures[op]
	if ok {
		delete(d.failures, op)
	}
	d.mu.Unlock()

	if ok {
		return mmal.Errorf(op, status)
	}
	return nil
}

func (d *Driver) ComponentCreate(name string) (mmal.Component, error) {
	if err := d.checkOp("create component %s", name); err != nil {
		return nil, err
	}

	c := &Component{drv: d, name: name}
	c.control = newPort(c, name+":ctr", mmal.BufferConfig{NumMin: 1, NumRecommended: 1, SizeMin: 1024, SizeRecommended: 1024})

	switch name {
	case mmal.ComponentCamera:
		// preview, video, still - in that order
		c.outputs = []*Port{
			newPort(c, name+":out:0", mmal.BufferConfig{NumMin: 1, NumRecommended: 3, SizeMin: 4096, SizeRecommended: 16384}),
			newPort(c, name+":out:1", mmal.BufferConfig{NumMin: 1, NumRecommended: 3, SizeMin: 4096, SizeRecommended: 16384}),
			newPort(c, name+":out:2", mmal.BufferConfig{NumMin: 1, NumRecommended: 3, SizeMin: 4096, SizeRecommended: 65536}),
		}
	case mmal.ComponentImageEncoder, mmal.ComponentVideoEncoder:
		c.inputs = []*Port{
			newPort(c, name+":in:0", mmal.BufferConfig{NumMin: 1, NumRecommended: 2, SizeMin: 4096, SizeRecommended: 16384}),
		}
		c.outputs = []*Port{
			newPort(c, name+":out:0", mmal.BufferConfig{NumMin: 2, NumRecommended: 3, SizeMin: 16384, SizeRecommended: 81920}),
		}
	case mmal.ComponentNullSink:
		c.inputs = []*Port{
			newPort(c, name+":in:0", mmal.BufferConfig{NumMin: 1, NumRecommended: 2, SizeMin: 4096, SizeRecommended: 4096}),
		}
	case mmal.ComponentCameraInfo:
		// control port only
	default:
		return nil, mmal.Errorf("create component "+name, mmal.StatusNoEnt)
	}

	return c, nil
}

// Deliver emulates the driver thread handing one buffer to the armed
// callback of port p. The payload is copied into the next buffer queued on
// the port. Returns false when the port is disabled, has no callback or has
// no buffer available - the situations where real hardware stalls.
func (d *Driver) Deliver(p mmal.Port, payload []byte, flags uint32) bool {
	port := p.(*Port)

	d.mu.Lock()
	if !port.enabled || port.cb == nil || len(port.queued) == 0 {
		d.mu.Unlock()
		return false
	}
	buf := port.queued[0]
	port.queued = port.queued[1:]
	cb := port.cb
	d.mu.Unlock()

	buf.fill(payload, flags)

	done := make(chan struct{})
	go func() {
		cb(port, buf)
		close(done)
	}()
	<-done
	return true
}

// DeliverAsync is Deliver without waiting for the callback to return. Used
// to race buffer delivery against consumer-side teardown.
func (d *Driver) DeliverAsync(p mmal.Port, payload []byte, flags uint32) bool {
	port := p.(*Port)

	d.mu.Lock()
	if !port.enabled || port.cb == nil || len(port.queued) == 0 {
		d.mu.Unlock()
		return false
	}
	buf := port.queued[0]
	port.queued = port.queued[1:]
	cb := port.cb
	d.mu.Unlock()

	buf.fill(payload, flags)

	go cb(port, buf)
	return true
}

// DeliverEvent hands a control event (not pool-backed) to the port callback.
func (d *Driver) DeliverEvent(p mmal.Port, cmd mmal.FourCC, payload []byte) bool {
	port := p.(*Port)

	d.mu.Lock()
	cb := port.cb
	enabled := port.enabled
	d.mu.Unlock()

	if !enabled || cb == nil {
		return false
	}

	buf := &Buffer{event: true, payload: append([]byte(nil), payload...), cmd: cmd}
	done := make(chan struct{})
	go func() {
		cb(port, buf)
		close(done)
	}()
	<-done
	return true
}
