package mmaltest

import "github.com/pedrosland/rascam/pkg/mmal"

type Pool struct {
	port *Port
	size uint32
	free []*Buffer

	destroyed bool
}

func (p *Pool) drv() *Driver { return p.port.drv() }

func (p *Pool) Get() (mmal.Buffer, bool) {
	p.drv().mu.Lock()
	defer p.drv().mu.Unlock()

	if p.destroyed {
		p.port.comp.drv.misuse = append(p.port.comp.drv.misuse, "get from destroyed pool "+p.port.name)
		return nil, false
	}
	if len(p.free) == 0 {
		return nil, false
	}
	b := p.free[0]
	p.free = p.free[1:]
	return b, true
}

func (p *Pool) QueueLen() int {
	p.drv().mu.Lock()
	defer p.drv().mu.Unlock()
	return len(p.free)
}

func (p *Pool) Destroy() {
	p.drv().record("destroy pool %s", p.port.name)
	p.drv().mu.Lock()
	p.destroyed = true
	p.drv().mu.Unlock()
}

type Buffer struct {
	pool *Pool

	data    []byte
	payload []byte
	flags   uint32
	cmd     mmal.FourCC

	locked   bool
	released bool

	// event buffers are driver-owned notifications, not pool-backed.
	event bool
}

// fill stages a delivery payload in the buffer's fixed backing array,
// flagging payloads the pool's buffer size could never hold.
func (b *Buffer) fill(payload []byte, flags uint32) {
	if uint32(len(payload)) > b.pool.size {
		b.pool.drv().reportMisuse("payload of %d bytes exceeds %d byte buffers on %s",
			len(payload), b.pool.size, b.pool.port.name)
		payload = payload[:b.pool.size]
	}
	b.payload = append(b.data[:0], payload...)
	b.flags = flags
	b.cmd = 0
}

func (b *Buffer) Bytes() []byte { return b.payload }

func (b *Buffer) Flags() uint32 { return b.flags }

func (b *Buffer) Cmd() mmal.FourCC { return b.cmd }

func (b *Buffer) Lock() {
	if b.event {
		return
	}
	b.pool.drv().mu.Lock()
	b.locked = true
	b.pool.drv().mu.Unlock()
}

func (b *Buffer) Unlock() {
	if b.event {
		return
	}
	b.pool.drv().mu.Lock()
	b.locked = false
	b.pool.drv().mu.Unlock()
}

func (b *Buffer) Release() {
	if b.event {
		return
	}

	d := b.pool.drv()
	d.mu.Lock()
	switch {
	case b.released:
		d.mu.Unlock()
		d.reportMisuse("buffer released twice on %s", b.pool.port.name)
		return
	case b.locked:
		d.mu.Unlock()
		d.reportMisuse("buffer released while locked on %s", b.pool.port.name)
		d.mu.Lock()
	}
	b.released = true
	b.locked = false
	b.payload = nil
	b.flags = 0
	if !b.pool.destroyed {
		b.pool.free = append(b.pool.free, b)
	}
	d.mu.Unlock()
}

type Connection struct {
	drv *Driver
	out *Port
	in  *Port

	enabled   bool
	destroyed bool
}

func (c *Connection) Enable() error {
	if err := c.drv.checkOp("enable connection %s->%s", c.out.name, c.in.name); err != nil {
		return err
	}
	c.drv.mu.Lock()
	c.enabled = true
	c.drv.mu.Unlock()
	return nil
}

func (c *Connection) Disable() error {
	if err := c.drv.checkOp("disable connection %s->%s", c.out.name, c.in.name); err != nil {
		return err
	}
	c.drv.mu.Lock()
	c.enabled = false
	c.drv.mu.Unlock()
	return nil
}

func (c *Connection) Destroy() error {
	if err := c.drv.checkOp("destroy connection %s->%s", c.out.name, c.in.name); err != nil {
		return err
	}
	c.drv.mu.Lock()
	if c.destroyed {
		c.drv.mu.Unlock()
		c.drv.reportMisuse("connection %s->%s destroyed twice", c.out.name, c.in.name)
		return nil
	}
	c.destroyed = true
	c.drv.mu.Unlock()
	return nil
}
