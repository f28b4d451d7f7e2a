package mmaltest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrosland/rascam/pkg/mmal"
)

func TestFailOnFiresOnce(t *testing.T) {
	drv := New()
	drv.FailOn("create component vc.ril.camera", mmal.StatusNoMemory)

	_, err := drv.ComponentCreate(mmal.ComponentCamera)
	require.Error(t, err)

	var me *mmal.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, mmal.StatusNoMemory, me.Status)

	_, err = drv.ComponentCreate(mmal.ComponentCamera)
	assert.NoError(t, err)
}

func TestMisuseDoubleRelease(t *testing.T) {
	drv := New()
	comp, err := drv.ComponentCreate(mmal.ComponentCamera)
	require.NoError(t, err)

	pool, err := comp.Output(mmal.CameraCapturePort).CreatePool(1, 128)
	require.NoError(t, err)

	b, ok := pool.Get()
	require.True(t, ok)

	b.Release()
	b.Release()
	assert.NotEmpty(t, drv.Misuse())
}

func TestDeliverNeedsQueuedBuffer(t *testing.T) {
	drv := New()
	comp, err := drv.ComponentCreate(mmal.ComponentCamera)
	require.NoError(t, err)

	out := comp.Output(mmal.CameraCapturePort)
	assert.False(t, drv.Deliver(out, []byte("x"), 0), "disabled port")

	require.NoError(t, out.Enable(func(p mmal.Port, b mmal.Buffer) { b.Release() }))
	assert.False(t, drv.Deliver(out, []byte("x"), 0), "no buffer queued")

	pool, err := out.CreatePool(1, 128)
	require.NoError(t, err)
	b, ok := pool.Get()
	require.True(t, ok)
	require.NoError(t, out.SendBuffer(b))

	assert.True(t, drv.Deliver(out, []byte("x"), 0))
	assert.Equal(t, 1, pool.QueueLen(), "buffer returned to the pool")
	assert.Empty(t, drv.Misuse())
}

func TestDeliverEnforcesBufferSize(t *testing.T) {
	drv := New()
	comp, err := drv.ComponentCreate(mmal.ComponentCamera)
	require.NoError(t, err)

	out := comp.Output(mmal.CameraCapturePort)

	var got []byte
	require.NoError(t, out.Enable(func(p mmal.Port, b mmal.Buffer) {
		got = append([]byte(nil), b.Bytes()...)
		b.Release()
	}))

	pool, err := out.CreatePool(1, 4)
	require.NoError(t, err)
	b, ok := pool.Get()
	require.True(t, ok)
	require.NoError(t, out.SendBuffer(b))

	require.True(t, drv.Deliver(out, []byte("abcdef"), 0))
	assert.Equal(t, []byte("abcd"), got, "payload clamped to the buffer size")
	assert.NotEmpty(t, drv.Misuse())
}
