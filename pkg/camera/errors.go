package camera

import "errors"

var (
	// ErrCaptureInFlight - a second capture was started on a Device
	// before the first completed. One capture per device at a time.
	ErrCaptureInFlight = errors.New("camera: capture already in flight")

	// ErrCaptureClosed - the capture channel closed without a proper
	// end-of-stream, e.g. the device was closed mid-capture. Distinct
	// from a driver rejection: the hardware did not say no, the
	// producer side went away.
	ErrCaptureClosed = errors.New("camera: capture closed unexpectedly")

	// ErrNoData - a still capture finished without delivering a single
	// payload byte.
	ErrNoData = errors.New("camera: capture produced no data")
)
