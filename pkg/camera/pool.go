package camera

import (
	"fmt"

	"github.com/pedrosland/rascam/pkg/mmal"
)

// BufferPool pairs a native pool with the port whose deliveries it backs.
// Created once per capture configuration; every Frame returns its buffer
// here.
type BufferPool struct {
	pool mmal.Pool
	port mmal.Port
}

func newBufferPool(port mmal.Port) (*BufferPool, error) {
	cfg := port.BufferConfig()

	pool, err := port.CreatePool(cfg.Num, cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("camera: unable to create buffer pool for %s: %w", port.Name(), err)
	}

	return &BufferPool{pool: pool, port: port}, nil
}

// Drain sends every buffer currently in the pool queue to the port,
// re-arming the hardware pipeline. Aborts on the first send the port
// rejects.
func (p *BufferPool) Drain() error {
	n := p.pool.QueueLen()
	for i := 0; i < n; i++ {
		b, ok := p.pool.Get()
		if !ok {
			return fmt.Errorf("camera: unable to get required buffer %d from pool queue", i)
		}
		if err := p.port.SendBuffer(b); err != nil {
			return fmt.Errorf("camera: unable to send buffer %d to %s: %w", i, p.port.Name(), err)
		}
	}
	return nil
}

// requeue feeds one fresh buffer back to the port so the hardware never
// stalls. A disabled port means teardown won: skip quietly.
func (p *BufferPool) requeue() {
	if !p.port.Enabled() {
		Logger.Debug().Str("port", p.port.Name()).Msg("skip requeue, port disabled")
		return
	}

	b, ok := p.pool.Get()
	if !ok {
		Logger.Warn().Str("port", p.port.Name()).Msg("unable to return a buffer to the port: pool empty")
		return
	}
	if err := p.port.SendBuffer(b); err != nil {
		Logger.Warn().Err(err).Str("port", p.port.Name()).Msg("unable to return a buffer to the port")
	}
}

func (p *BufferPool) destroy() {
	p.pool.Destroy()
}
