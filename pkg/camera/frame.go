package camera

import (
	"sync"

	"github.com/pedrosland/rascam/pkg/mmal"
)

// Frame is a single delivered buffer, borrowed from the pipeline's pool.
// The payload is only valid until Release, which must be called exactly
// once. A Frame must not outlive its Device.
type Frame struct {
	buf   mmal.Buffer
	pool  *BufferPool
	flags uint32

	release sync.Once
}

func newFrame(b mmal.Buffer, pool *BufferPool) *Frame {
	b.Lock()
	return &Frame{buf: b, pool: pool, flags: b.Flags()}
}

// Bytes is the valid payload of this delivery. Read-only view of
// pool-owned memory.
func (f *Frame) Bytes() []byte {
	return f.buf.Bytes()
}

// FrameEnd reports whether this buffer closed a still image or one video
// access unit. The driver raises the same signal for a frame end and for a
// failed transmission, so a true value on the last chunk of a stream does
// not by itself prove the stream is intact.
func (f *Frame) FrameEnd() bool {
	return f.flags&(mmal.BufferFlagFrameEnd|mmal.BufferFlagTransmissionFailed) != 0
}

// Release unlocks the buffer, returns it to its pool and, if the
// originating port is still enabled, immediately requeues a fresh buffer
// so the driver keeps producing.
func (f *Frame) Release() {
	f.release.Do(func() {
		f.buf.Unlock()
		f.buf.Release()
		f.pool.requeue()
	})
}
