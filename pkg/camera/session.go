package camera

import (
	"context"
	"io"
	"sync"
)

// Capture is one in-flight capture session on a Device. At most one exists
// per Device at a time; it is created by Device.Take and lives until
// end-of-stream or Stop.
//
// Frames are handed over through a channel with room for exactly one
// outstanding message, so the driver is only asked for a new buffer after
// the consumer has taken delivery of the previous one.
type Capture struct {
	dev *Device

	ch   chan *Frame
	done chan struct{}

	// oneShot sessions complete on the first frame boundary.
	oneShot bool

	sendMu sync.Mutex
	closed bool
	err    error

	finishOnce sync.Once
}

func newCapture(dev *Device, oneShot bool) *Capture {
	return &Capture{
		dev:     dev,
		ch:      make(chan *Frame, 1),
		done:    make(chan struct{}),
		oneShot: oneShot,
	}
}

// deliver hands one frame to the consumer, blocking until there is room.
// Returns false when the session finished first; the caller keeps
// ownership of the frame in that case.
func (c *Capture) deliver(f *Frame) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.ch <- f:
		return true
	case <-c.done:
		return false
	}
}

// finish completes the session exactly once: no more deliveries, channel
// closed, bridge detached, capture lock released. Safe to call from the
// driver callback, the consumer and teardown concurrently.
func (c *Capture) finish(err error) {
	c.finishOnce.Do(func() {
		// unblock a delivery stuck waiting for the consumer first,
		// otherwise closing the channel could race a pending send
		close(c.done)

		c.sendMu.Lock()
		c.closed = true
		c.err = err
		close(c.ch)
		c.sendMu.Unlock()

		c.dev.detachCapture(c)
	})
}

// Recv blocks until the next frame. Returns io.EOF on a clean end of
// stream and ErrCaptureClosed when the producer went away without one.
// The caller must Release every received frame.
func (c *Capture) Recv() (*Frame, error) {
	f, ok := <-c.ch
	if !ok {
		return nil, c.closeErr()
	}
	return f, nil
}

// RecvContext is Recv for callers scheduling with a context instead of
// blocking a thread. The capture keeps running when ctx expires; pair with
// Stop for prompt cancellation.
func (c *Capture) RecvContext(ctx context.Context) (*Frame, error) {
	select {
	case f, ok := <-c.ch:
		if !ok {
			return nil, c.closeErr()
		}
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Capture) closeErr() error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.err != nil {
		return c.err
	}
	return io.EOF
}

// Stop halts the capture: the driver is asked to stop emitting and the
// consumer observes a clean end of stream. Idempotent. A buffer already in
// flight may still be delivered to the driver callback, where it is
// silently returned to the pool.
func (c *Capture) Stop() {
	c.dev.haltTrigger()
	c.finish(nil)
}
