// Package camera drives the VideoCore camera pipeline: component bring-up,
// buffer pool lifecycle and the callback-to-channel bridge between the
// driver's internal threads and ordinary Go code.
package camera

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pedrosland/rascam/pkg/mmal"
)

// Logger for the whole package. Replace before creating devices, e.g. with
// app.GetLogger("camera").
var Logger = zerolog.Nop()

// Preview dimensions use a full FOV 4:3 mode when capturing stills.
const (
	previewWidth  = 1024
	previewHeight = 768
)

// The renderer needs at least this many buffers on the video port.
const videoOutputBuffers = 3

// Device owns one native camera component plus the encoder, connections
// and buffer pool built around it. Every sub-resource that was actually
// brought up is tracked with its own flag so teardown touches exactly what
// exists, in strict reverse-creation order.
//
// A Device supports one capture at a time; see Take.
type Device struct {
	drv mmal.Driver
	log zerolog.Logger

	camera  mmal.Component
	enabled bool

	controlPortEnabled bool
	outputPortEnabled  bool
	active             mmal.Port // the port that emits data, set on first Take

	encoder                   mmal.Component
	encoderCreated            bool
	encoderEnabled            bool
	encoderControlPortEnabled bool

	conn              mmal.Connection
	connectionCreated bool

	preview          mmal.Component
	previewCreated   bool
	previewConn      mmal.Connection
	previewConnected bool

	pool        *BufferPool
	poolCreated bool

	useEncoder bool
	video      bool

	closed bool

	// captureMu serializes captures; held from Take until the session
	// finishes. mu guards the armed session pointer.
	captureMu sync.Mutex
	mu        sync.Mutex
	capture   *Capture
	capturing bool
}

// New creates the camera component. The device is unusable until the
// bring-up sequence completes; see Camera.Activate for the full order.
func New(drv mmal.Driver) (*Device, error) {
	comp, err := drv.ComponentCreate(mmal.ComponentCamera)
	if err != nil {
		return nil, fmt.Errorf("camera: unable to create camera component: %w", err)
	}
	return &Device{drv: drv, log: Logger, camera: comp}, nil
}

// SetCameraNum binds the component to one physical camera.
func (d *Device) SetCameraNum(n int32) error {
	if err := d.camera.Control().SetCameraNum(n); err != nil {
		return fmt.Errorf("camera: unable to set camera number: %w", err)
	}
	return nil
}

// CreateEncoder creates the still image encoder component.
func (d *Device) CreateEncoder() error {
	return d.createEncoder(mmal.ComponentImageEncoder)
}

// CreateVideoEncoder creates the H.264 video encoder component.
func (d *Device) CreateVideoEncoder() error {
	return d.createEncoder(mmal.ComponentVideoEncoder)
}

func (d *Device) createEncoder(name string) error {
	comp, err := d.drv.ComponentCreate(name)
	if err != nil {
		return fmt.Errorf("camera: unable to create encoder: %w", err)
	}
	d.encoder = comp
	d.encoderCreated = true
	return nil
}

// EnableControlPort arms the camera control port. Control events (sensor
// settings, errors) are observational only; getBuffers arms the buffer
// callback instead, which is only useful for raw capture on the control
// path.
func (d *Device) EnableControlPort(getBuffers bool) error {
	cb := d.onControl
	if getBuffers {
		cb = d.onBuffer
	}
	if err := d.camera.Control().Enable(cb); err != nil {
		return fmt.Errorf("camera: unable to enable control port: %w", err)
	}
	d.controlPortEnabled = true

	if !getBuffers {
		if err := d.camera.Control().RequestSettingsEvents(); err != nil {
			return fmt.Errorf("camera: unable to request settings events: %w", err)
		}
	}
	return nil
}

// SetCameraParams pushes the global capture configuration to the control
// port: resolution ceilings from the camera's static capabilities and
// one-shot vs continuous mode.
func (d *Device) SetCameraParams(info CameraInfo, oneShot bool) error {
	cfg := mmal.CameraConfig{
		MaxStillsW:            info.MaxWidth,
		MaxStillsH:            info.MaxHeight,
		OneShotStills:         oneShot,
		MaxPreviewVideoW:      info.MaxWidth,
		MaxPreviewVideoH:      info.MaxHeight,
		NumPreviewVideoFrames: videoOutputBuffers,
		UseSTCTimestamp:       true,
	}
	if err := d.camera.Control().SetCameraConfig(cfg); err != nil {
		return fmt.Errorf("camera: unable to set camera config: %w", err)
	}
	return nil
}

// Enable transitions the camera component to the running state.
func (d *Device) Enable() error {
	if err := d.camera.Enable(); err != nil {
		return fmt.Errorf("camera: unable to enable camera component: %w", err)
	}
	d.enabled = true
	return nil
}

// EnableEncoder enables the encoder's control port and then the component.
func (d *Device) EnableEncoder() error {
	if err := d.encoder.Control().Enable(nil); err != nil {
		return fmt.Errorf("camera: unable to enable encoder control port: %w", err)
	}
	d.encoderControlPortEnabled = true

	if err := d.encoder.Enable(); err != nil {
		return fmt.Errorf("camera: unable to enable encoder component: %w", err)
	}
	d.encoderEnabled = true
	return nil
}

// CreatePool allocates the buffer pool on whichever port will emit data:
// the encoder output if an encoder is attached, the raw camera port
// otherwise. Must run after formats are committed.
func (d *Device) CreatePool() error {
	pool, err := newBufferPool(d.dataPort())
	if err != nil {
		return err
	}
	d.pool = pool
	d.poolCreated = true
	return nil
}

// CreatePreview creates a discard sink for the preview output. The camera
// only meters exposure correctly when its preview port is consumed, even
// if nothing displays it.
func (d *Device) CreatePreview() error {
	comp, err := d.drv.ComponentCreate(mmal.ComponentNullSink)
	if err != nil {
		return fmt.Errorf("camera: unable to create null sink for preview: %w", err)
	}
	d.preview = comp
	d.previewCreated = true
	return nil
}

// ConnectPreview tunnels the preview port into the discard sink.
func (d *Device) ConnectPreview() error {
	out := d.camera.Output(mmal.CameraPreviewPort)
	conn, err := out.ConnectTo(d.preview.Input(0), mmal.ConnectionTunnelling|mmal.ConnectionAllocationOnInput)
	if err != nil {
		return fmt.Errorf("camera: unable to connect preview ports: %w", err)
	}
	d.previewConn = conn
	d.previewConnected = true

	if err = conn.Enable(); err != nil {
		return fmt.Errorf("camera: unable to enable preview connection: %w", err)
	}
	return nil
}

// ConnectEncoder tunnels the capturing camera port into the encoder input.
func (d *Device) ConnectEncoder() error {
	out := d.camera.Output(mmal.CameraCapturePort)
	if d.video {
		out = d.camera.Output(mmal.CameraVideoPort)
	}

	conn, err := out.ConnectTo(d.encoder.Input(0), mmal.ConnectionTunnelling|mmal.ConnectionAllocationOnInput)
	if err != nil {
		return fmt.Errorf("camera: unable to create camera->encoder connection: %w", err)
	}
	d.conn = conn
	d.connectionCreated = true

	if err = conn.Enable(); err != nil {
		return fmt.Errorf("camera: unable to enable camera->encoder connection: %w", err)
	}
	return nil
}

// dataPort is the port that actually emits data to this layer.
func (d *Device) dataPort() mmal.Port {
	if d.useEncoder {
		return d.encoder.Output(0)
	}
	if d.video {
		return d.camera.Output(mmal.CameraVideoPort)
	}
	return d.camera.Output(mmal.CameraCapturePort)
}

// triggerPort carries the capture on/off parameter.
func (d *Device) triggerPort() mmal.Port {
	if d.video {
		return d.camera.Output(mmal.CameraVideoPort)
	}
	return d.camera.Output(mmal.CameraCapturePort)
}

// Take begins a capture: seeds the pool into the data port, arms the
// callback bridge and triggers the hardware. Returns ErrCaptureInFlight if
// another capture is active on this device. Any arming failure rolls back
// so the pipeline is exactly as before the call.
func (d *Device) Take() (*Capture, error) {
	if !d.captureMu.TryLock() {
		return nil, ErrCaptureInFlight
	}

	port := d.dataPort()
	if !d.outputPortEnabled {
		if err := port.Enable(d.onBuffer); err != nil {
			d.captureMu.Unlock()
			return nil, fmt.Errorf("camera: unable to enable %s: %w", port.Name(), err)
		}
		d.active = port
		d.outputPortEnabled = true
	}

	if !d.video {
		// reset to auto exposure for every still
		if err := d.camera.Control().SetShutterSpeed(0); err != nil {
			d.captureMu.Unlock()
			return nil, fmt.Errorf("camera: unable to set shutter speed: %w", err)
		}
	}

	if err := d.pool.Drain(); err != nil {
		d.captureMu.Unlock()
		return nil, err
	}

	c := newCapture(d, !d.video)

	d.mu.Lock()
	d.capture = c
	d.capturing = true
	d.mu.Unlock()

	if err := d.triggerPort().SetCapture(true); err != nil {
		d.mu.Lock()
		d.capture = nil
		d.capturing = false
		d.mu.Unlock()
		d.captureMu.Unlock()
		return nil, fmt.Errorf("camera: unable to start capture: %w", err)
	}

	return c, nil
}

// Stop halts the in-flight capture, if any. Safe to call at any time,
// from any goroutine, including when nothing is capturing.
func (d *Device) Stop() {
	d.mu.Lock()
	c := d.capture
	d.mu.Unlock()

	if c != nil {
		c.Stop()
	}
}

// Capturing reports whether a capture is in flight.
func (d *Device) Capturing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.capturing
}

func (d *Device) detachCapture(c *Capture) {
	d.mu.Lock()
	if d.capture != c {
		d.mu.Unlock()
		return
	}
	d.capture = nil
	d.capturing = false
	d.mu.Unlock()

	d.captureMu.Unlock()
}

// haltTrigger asks the driver to stop emitting. There is no native
// cancellation mid-buffer: at most one more delivery may still fire.
func (d *Device) haltTrigger() {
	d.mu.Lock()
	capturing := d.capturing
	d.mu.Unlock()

	if !capturing {
		return
	}
	if err := d.triggerPort().SetCapture(false); err != nil {
		d.log.Debug().Err(err).Msg("unable to clear capture flag")
	}
}

// Close tears the pipeline down. Unconditional and best-effort: every
// resource that was brought up is destroyed in strict reverse-creation
// order, and native errors along the way are only diagnostic. The order is
// mandated by the driver - connections before components, data ports
// before control ports, everything before component destruction.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true

	d.mu.Lock()
	c := d.capture
	d.mu.Unlock()
	if c != nil {
		d.haltTrigger()
		c.finish(ErrCaptureClosed)
	}

	if d.connectionCreated {
		d.teardown(d.conn.Disable(), "disable encoder connection")
		d.teardown(d.conn.Destroy(), "destroy encoder connection")
	}
	if d.previewConnected {
		d.teardown(d.previewConn.Disable(), "disable preview connection")
		d.teardown(d.previewConn.Destroy(), "destroy preview connection")
	}
	if d.outputPortEnabled {
		d.teardown(d.active.Disable(), "disable output port")
	}
	if d.encoderEnabled {
		d.teardown(d.encoder.Disable(), "disable encoder component")
	}
	if d.enabled {
		d.teardown(d.camera.Disable(), "disable camera component")
	}
	if d.encoderControlPortEnabled {
		d.teardown(d.encoder.Control().Disable(), "disable encoder control port")
	}
	if d.controlPortEnabled {
		d.teardown(d.camera.Control().Disable(), "disable camera control port")
	}
	if d.poolCreated {
		d.pool.destroy()
	}
	d.teardown(d.camera.Destroy(), "destroy camera component")
	if d.encoderCreated {
		d.teardown(d.encoder.Destroy(), "destroy encoder component")
	}
	if d.previewCreated {
		d.teardown(d.preview.Destroy(), "destroy preview component")
	}
}

func (d *Device) teardown(err error, what string) {
	if err != nil {
		d.log.Debug().Err(err).Msg(what + " failed")
	}
}
