package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pedrosland/rascam/pkg/mmal"
)

// Camera is the high level entry point: it bundles a Device with the
// bring-up choreography so callers can go from driver to pixels in three
// calls. Use Device directly when the pipeline needs a different shape.
type Camera struct {
	dev      *Device
	info     CameraInfo
	settings Settings

	configured bool
	activated  bool
}

// NewCamera opens the first attached camera.
func NewCamera(drv mmal.Driver) (*Camera, error) {
	infos, err := Cameras(drv)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, errors.New("camera: no cameras attached")
	}
	return NewCameraFor(drv, infos[0])
}

// NewCameraFor opens one specific camera from Cameras.
func NewCameraFor(drv mmal.Driver, info CameraInfo) (*Camera, error) {
	dev, err := New(drv)
	if err != nil {
		return nil, err
	}
	return &Camera{dev: dev, info: info, settings: DefaultSettings()}, nil
}

// Info returns the camera this instance was opened for.
func (c *Camera) Info() CameraInfo { return c.info }

// Device exposes the underlying device for operations the facade does not
// cover.
func (c *Camera) Device() *Device { return c.dev }

// Configure stores the capture settings. Zero dimensions default to the
// camera's maximum resolution. Must be called before Activate; calling it
// afterwards has no effect on the running pipeline.
func (c *Camera) Configure(s Settings) {
	if s.Width == 0 {
		s.Width = c.info.MaxWidth
	}
	if s.Height == 0 {
		s.Height = c.info.MaxHeight
	}
	c.settings = s
	c.configured = true
}

// Activate builds the pipeline for the configured settings. On failure the
// partial bring-up stays tracked in the device; Close tears down exactly
// what was created.
func (c *Camera) Activate() error {
	if c.activated {
		return errors.New("camera: already activated")
	}
	if !c.configured {
		c.Configure(c.settings)
	}
	s := c.settings

	if err := c.dev.SetCameraNum(c.info.Num); err != nil {
		return err
	}
	if s.UseEncoder {
		var err error
		if s.video() {
			err = c.dev.CreateVideoEncoder()
		} else {
			err = c.dev.CreateEncoder()
		}
		if err != nil {
			return err
		}
	}
	if err := c.dev.EnableControlPort(false); err != nil {
		return err
	}
	if err := c.dev.SetCameraParams(c.info, !s.video()); err != nil {
		return err
	}
	if err := c.dev.SetFormat(s); err != nil {
		return err
	}
	if err := c.dev.Enable(); err != nil {
		return err
	}
	if s.UseEncoder {
		if err := c.dev.EnableEncoder(); err != nil {
			return err
		}
		if err := c.dev.ConnectEncoder(); err != nil {
			return err
		}
	}
	if err := c.dev.CreatePool(); err != nil {
		return err
	}
	// The sensor only meters exposure while its preview output is
	// consumed, so stills need the discard sink even headless.
	if err := c.dev.CreatePreview(); err != nil {
		return err
	}
	if err := c.dev.ConnectPreview(); err != nil {
		return err
	}

	c.activated = true
	return nil
}

// TakeOne captures a single still and returns the complete encoded image.
func (c *Camera) TakeOne() ([]byte, error) {
	return c.TakeOneContext(context.Background())
}

// TakeOneContext is TakeOne with a deadline. On expiry the capture is
// halted and drained before returning.
func (c *Camera) TakeOneContext(ctx context.Context) ([]byte, error) {
	var out bytes.Buffer
	if _, err := c.writeTo(ctx, &out); err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return nil, ErrNoData
	}
	return out.Bytes(), nil
}

// WriteTo captures a single still, streaming chunks into w as they arrive
// instead of accumulating the whole image in memory.
func (c *Camera) WriteTo(w io.Writer) (int64, error) {
	return c.writeTo(context.Background(), w)
}

func (c *Camera) writeTo(ctx context.Context, w io.Writer) (int64, error) {
	sess, err := c.dev.Take()
	if err != nil {
		return 0, err
	}

	var n int64
	for {
		f, err := sess.RecvContext(ctx)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				sess.Stop()
				drain(sess)
			}
			return n, err
		}

		nw, werr := w.Write(f.Bytes())
		n += int64(nw)
		f.Release()
		if werr != nil {
			sess.Stop()
			drain(sess)
			return n, fmt.Errorf("camera: unable to write frame: %w", werr)
		}
	}
}

// drain releases every frame still queued on a stopped capture so the
// buffers return to the pool.
func drain(sess *Capture) {
	for {
		f, err := sess.Recv()
		if err != nil {
			return
		}
		f.Release()
	}
}

// Frames begins a continuous capture and returns a reader producing one
// complete encoded frame per call. Only meaningful for video settings.
func (c *Camera) Frames() (*FrameReader, error) {
	sess, err := c.dev.Take()
	if err != nil {
		return nil, err
	}
	return &FrameReader{cap: sess}, nil
}

// Stop halts the in-flight capture, if any.
func (c *Camera) Stop() { c.dev.Stop() }

// Close tears down the whole pipeline.
func (c *Camera) Close() { c.dev.Close() }

// FrameReader assembles the chunked port deliveries of a continuous
// capture back into whole encoded frames.
type FrameReader struct {
	cap *Capture
	buf bytes.Buffer
}

// Next blocks until a complete frame has been assembled. Returns io.EOF
// after Stop once the stream has drained.
func (r *FrameReader) Next(ctx context.Context) ([]byte, error) {
	for {
		f, err := r.cap.RecvContext(ctx)
		if err != nil {
			return nil, err
		}

		r.buf.Write(f.Bytes())
		end := f.FrameEnd()
		f.Release()

		if end {
			frame := append([]byte(nil), r.buf.Bytes()...)
			r.buf.Reset()
			return frame, nil
		}
	}
}

// Stop halts the capture. Next keeps returning buffered frames until the
// stream drains, then io.EOF.
func (r *FrameReader) Stop() {
	r.cap.Stop()
}
