package camera

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrosland/rascam/pkg/mmal"
	"github.com/pedrosland/rascam/pkg/mmal/mmaltest"
)

func newTestCamera(t *testing.T, s Settings) (*Camera, *mmaltest.Driver) {
	t.Helper()

	drv := mmaltest.New()
	cam, err := NewCamera(drv)
	require.NoError(t, err)
	cam.Configure(s)
	require.NoError(t, cam.Activate())
	return cam, drv
}

// deliver retries until the port has an armed callback and a queued buffer,
// i.e. until the capture under test is ready to receive.
func deliver(drv *mmaltest.Driver, p mmal.Port, payload []byte, flags uint32) {
	for !drv.Deliver(p, payload, flags) {
		time.Sleep(time.Millisecond)
	}
}

func videoSettings() Settings {
	return Settings{
		Encoding:   mmal.EncodingH264,
		Width:      1280,
		Height:     720,
		UseEncoder: true,
		Framerate:  30,
	}
}

func TestTakeOneStill(t *testing.T) {
	cam, drv := newTestCamera(t, DefaultSettings())
	defer cam.Close()

	port := cam.dev.dataPort()
	go func() {
		deliver(drv, port, []byte("jpeg-"), 0)
		deliver(drv, port, []byte("data"), mmal.BufferFlagFrameEnd)
	}()

	img, err := cam.TakeOne()
	require.NoError(t, err)
	assert.Equal(t, "jpeg-data", string(img))

	// The pool must be whole again for the next capture.
	go func() {
		deliver(drv, port, []byte("second"), mmal.BufferFlagFrameEnd)
	}()
	img, err = cam.TakeOne()
	require.NoError(t, err)
	assert.Equal(t, "second", string(img))

	assert.Empty(t, drv.Misuse())
}

func TestTakeOneNoData(t *testing.T) {
	cam, drv := newTestCamera(t, DefaultSettings())
	defer cam.Close()

	port := cam.dev.dataPort()
	go deliver(drv, port, nil, mmal.BufferFlagEOS)

	_, err := cam.TakeOne()
	assert.ErrorIs(t, err, ErrNoData)
	assert.Empty(t, drv.Misuse())
}

func TestTakeOneContextExpired(t *testing.T) {
	cam, drv := newTestCamera(t, DefaultSettings())
	defer cam.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := cam.TakeOneContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The failed capture must have released the device.
	port := cam.dev.dataPort()
	go deliver(drv, port, []byte("after"), mmal.BufferFlagFrameEnd)
	img, err := cam.TakeOne()
	require.NoError(t, err)
	assert.Equal(t, "after", string(img))
}

func TestSingleCapturePerDevice(t *testing.T) {
	cam, _ := newTestCamera(t, DefaultSettings())
	defer cam.Close()

	sess, err := cam.dev.Take()
	require.NoError(t, err)

	_, err = cam.dev.Take()
	assert.ErrorIs(t, err, ErrCaptureInFlight)

	sess.Stop()
	_, err = sess.Recv()
	assert.ErrorIs(t, err, io.EOF)

	// Finishing the first capture frees the slot.
	sess, err = cam.dev.Take()
	require.NoError(t, err)
	sess.Stop()
}

func TestStopYieldsCleanEOS(t *testing.T) {
	cam, drv := newTestCamera(t, videoSettings())
	defer cam.Close()

	sess, err := cam.dev.Take()
	require.NoError(t, err)

	port := cam.dev.dataPort()
	go deliver(drv, port, []byte("chunk"), mmal.BufferFlagFrameEnd)

	f, err := sess.Recv()
	require.NoError(t, err)
	f.Release()

	sess.Stop()
	_, err = sess.Recv()
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, cam.dev.Capturing())
	assert.Empty(t, drv.Misuse())
}

func TestVideoFrameAssembly(t *testing.T) {
	cam, drv := newTestCamera(t, videoSettings())
	defer cam.Close()

	r, err := cam.Frames()
	require.NoError(t, err)

	port := cam.dev.dataPort()
	go func() {
		deliver(drv, port, []byte("h264-"), mmal.BufferFlagFrameStart)
		deliver(drv, port, []byte("frame"), mmal.BufferFlagFrameEnd|mmal.BufferFlagKeyFrame)
		deliver(drv, port, []byte("next"), mmal.BufferFlagFrameEnd)
	}()

	ctx := context.Background()
	frame, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "h264-frame", string(frame))

	frame, err = r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "next", string(frame))

	r.Stop()
	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.Empty(t, drv.Misuse())
}

func TestRecvContextCancel(t *testing.T) {
	cam, _ := newTestCamera(t, videoSettings())
	defer cam.Close()

	sess, err := cam.dev.Take()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sess.RecvContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// The capture itself keeps running until stopped.
	_, err = cam.dev.Take()
	assert.ErrorIs(t, err, ErrCaptureInFlight)
	sess.Stop()
}

func TestDimensionAlignment(t *testing.T) {
	cam, _ := newTestCamera(t, Settings{
		Encoding:   mmal.EncodingJPEG,
		Width:      100,
		Height:     100,
		UseEncoder: true,
	})
	defer cam.Close()

	still := cam.dev.camera.Output(mmal.CameraCapturePort).Format()
	assert.Equal(t, uint32(128), still.Width)
	assert.Equal(t, uint32(112), still.Height)
	assert.Equal(t, int32(100), still.Crop.Width)
	assert.Equal(t, int32(100), still.Crop.Height)

	enc := cam.dev.encoder.Output(0).Format()
	assert.Equal(t, uint32(128), enc.Width)
	assert.Equal(t, int32(100), enc.Crop.Width)
}

func TestBitrateOverLevelCap(t *testing.T) {
	drv := mmaltest.New()
	cam, err := NewCamera(drv)
	require.NoError(t, err)
	defer cam.Close()

	s := videoSettings()
	s.Bitrate = 30_000_000
	s.VideoLevel = mmal.VideoLevelH2644

	cam.Configure(s)
	err = cam.Activate()
	require.Error(t, err)

	var me *mmal.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, mmal.StatusInvalid, me.Status)
}

func TestFailedActivateTearsDownOnlyCreated(t *testing.T) {
	drv := mmaltest.New()
	cam, err := NewCamera(drv)
	require.NoError(t, err)
	cam.Configure(DefaultSettings())

	drv.FailOn("enable component vc.ril.image_encode", mmal.StatusNoMemory)
	require.Error(t, cam.Activate())

	cam.Close()

	ops := drv.Ops()
	assert.NotContains(t, ops, "disable component vc.ril.image_encode")
	assert.NotContains(t, ops, "create pool vc.ril.image_encode:out:0")
	assert.Contains(t, ops, "destroy component vc.ril.image_encode")
	assert.Contains(t, ops, "disable component vc.ril.camera")
	assert.Contains(t, ops, "destroy component vc.ril.camera")
	assert.Empty(t, drv.Misuse())
}

func opIndex(t *testing.T, ops []string, op string) int {
	t.Helper()
	for i, o := range ops {
		if o == op {
			return i
		}
	}
	t.Fatalf("op %q not recorded", op)
	return -1
}

func TestTeardownOrder(t *testing.T) {
	cam, drv := newTestCamera(t, DefaultSettings())
	cam.Close()
	cam.Close() // idempotent

	ops := drv.Ops()
	conn := opIndex(t, ops, "disable connection vc.ril.camera:out:2->vc.ril.image_encode:in:0")
	encOff := opIndex(t, ops, "disable component vc.ril.image_encode")
	camOff := opIndex(t, ops, "disable component vc.ril.camera")
	camGone := opIndex(t, ops, "destroy component vc.ril.camera")
	encGone := opIndex(t, ops, "destroy component vc.ril.image_encode")

	assert.Less(t, conn, encOff)
	assert.Less(t, encOff, camOff)
	assert.Less(t, camOff, camGone)
	assert.Less(t, camGone, encGone)
	assert.Empty(t, drv.Misuse())
}

func TestCloseMidCapture(t *testing.T) {
	cam, drv := newTestCamera(t, DefaultSettings())

	sess, err := cam.dev.Take()
	require.NoError(t, err)

	cam.Close()

	_, err = sess.Recv()
	assert.ErrorIs(t, err, ErrCaptureClosed)
	assert.Empty(t, drv.Misuse())
}

func TestCameraParamsRecorded(t *testing.T) {
	s := DefaultSettings()
	s.ISO = 800
	s.ZeroCopy = true
	cam, drv := newTestCamera(t, s)
	defer cam.Close()

	ops := drv.Ops()
	assert.Contains(t, ops, "set iso vc.ril.camera:ctr")
	assert.Contains(t, ops, "set zero copy vc.ril.image_encode:out:0")
	assert.Contains(t, ops, "set camera config vc.ril.camera:ctr")
	assert.Contains(t, ops, "set jpeg quality vc.ril.image_encode:out:0")
}

func TestCameras(t *testing.T) {
	drv := mmaltest.New()

	infos, err := Cameras(drv)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "ov5647", infos[0].Name)
	assert.Equal(t, uint32(2592), infos[0].MaxWidth)
	assert.Equal(t, uint32(1944), infos[0].MaxHeight)

	// The query component must not leak.
	assert.Contains(t, drv.Ops(), "destroy component vc.camera_info")
	assert.Empty(t, drv.Misuse())
}

func TestControlEventLogged(t *testing.T) {
	cam, drv := newTestCamera(t, DefaultSettings())
	defer cam.Close()

	ev := mmal.CameraSettingsEvent{
		Exposure:    33000,
		AnalogGain:  mmal.Rational{Num: 256, Den: 256},
		DigitalGain: mmal.Rational{Num: 300, Den: 256},
	}
	ok := drv.DeliverEvent(cam.dev.camera.Control(), mmal.EventParameterChanged, mmal.EncodeCameraSettings(ev))
	assert.True(t, ok)
	assert.Empty(t, drv.Misuse())
}

func TestDefaultResolution(t *testing.T) {
	cam, _ := newTestCamera(t, DefaultSettings())
	defer cam.Close()

	// Padded to alignment from the sensor's 2592x1944 maximum.
	f := cam.dev.camera.Output(mmal.CameraCapturePort).Format()
	assert.Equal(t, uint32(2592), f.Width)
	assert.Equal(t, uint32(1952), f.Height)
	assert.Equal(t, int32(2592), f.Crop.Width)
	assert.Equal(t, int32(1944), f.Crop.Height)
}

func TestRGBOrderOldFirmware(t *testing.T) {
	raw := Settings{Encoding: mmal.EncodingRGB24, Width: 64, Height: 64}

	// Old firmware has RGB24 and BGR24 reversed on the camera ports, so
	// the opposite code must be committed to get the requested order.
	drv := mmaltest.New()
	drv.RGBOrderOld = true
	cam, err := NewCamera(drv)
	require.NoError(t, err)
	defer cam.Close()
	cam.Configure(raw)
	require.NoError(t, cam.Activate())

	f := cam.dev.camera.Output(mmal.CameraCapturePort).Format()
	assert.Equal(t, mmal.EncodingBGR24, f.Encoding)

	cam2, _ := newTestCamera(t, raw)
	defer cam2.Close()
	f = cam2.dev.camera.Output(mmal.CameraCapturePort).Format()
	assert.Equal(t, mmal.EncodingRGB24, f.Encoding)
}

func TestH264EncoderParams(t *testing.T) {
	s := videoSettings()
	s.Intraperiod = 60
	cam, drv := newTestCamera(t, s)
	defer cam.Close()

	ops := drv.Ops()
	assert.Contains(t, ops, "set intraperiod vc.ril.video_encode:out:0")
	assert.Contains(t, ops, "set inline headers vc.ril.video_encode:out:0")
	assert.Contains(t, ops, "set sei vc.ril.video_encode:out:0")
}
