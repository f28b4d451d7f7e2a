package mmal

// BufferCallback is invoked by the driver on a thread it owns, at any time
// after the port was enabled. The callback must not block the driver for
// longer than the consumer needs to take delivery of one buffer.
type BufferCallback func(p Port, b Buffer)

// Driver creates native components. It is implemented by the VideoCore
// binding (pkg/mmal/vc) and by the scripted test driver (pkg/mmal/mmaltest).
type Driver interface {
	ComponentCreate(name string) (Component, error)
}

// Component is one native processing unit: camera, encoder or sink.
type Component interface {
	Name() string
	Control() Port
	Input(i int) Port
	Output(i int) Port
	OutputCount() int

	Enable() error
	Disable() error
	Destroy() error
}

// Port is a fixed-index data endpoint on a Component. Ports are never
// shared between components; they live and die with their component.
type Port interface {
	Name() string
	Enabled() bool

	// Enable arms the port with a buffer callback. Passing nil arms the
	// driver's default discard handler.
	Enable(cb BufferCallback) error
	Disable() error

	// Format returns the last committed stream format. SetFormat commits
	// a new one; a failed commit reports which port rejected it.
	Format() VideoFormat
	SetFormat(f VideoFormat) error

	BufferConfig() BufferConfig
	SetBufferConfig(num, size uint32)

	// Typed parameter setters. Each maps to one native parameter id.
	SetCameraNum(n int32) error
	SetCapture(on bool) error
	SetISO(iso uint32) error
	SetShutterSpeed(us uint32) error
	SetZeroCopy(on bool) error
	SetJPEGQuality(q uint32) error
	SetJPEGRestartInterval(n uint32) error
	SetIntraperiod(n uint32) error
	SetInlineHeaders(on bool) error
	SetSEI(on bool) error
	SetCameraConfig(cfg CameraConfig) error
	SetVideoProfile(profile, level uint32) error

	// RequestSettingsEvents asks the camera to announce converged sensor
	// settings as parameter-changed events on this control port.
	RequestSettingsEvents() error

	// CameraInfo queries the camera-info parameter. Only meaningful on
	// the control port of the camera-info component.
	CameraInfo() ([]CameraDetail, error)

	// RGBOrderFixed reports whether the firmware has the RGB24/BGR24
	// component order fix (firmware from June 2016 onwards).
	RGBOrderFixed() bool

	// CreatePool allocates num buffers of size bytes backed by this
	// port. A null native pool yields an Error without a status code.
	CreatePool(num, size uint32) (Pool, error)

	// ConnectTo creates a driver-managed tunnel from this output port
	// to the given input port.
	ConnectTo(in Port, flags uint32) (Connection, error)

	SendBuffer(b Buffer) error
}

// Pool is a fixed-capacity supply of buffers bound to one port.
type Pool interface {
	// Get pulls a free buffer from the pool queue. ok is false when the
	// queue is empty.
	Get() (b Buffer, ok bool)
	QueueLen() int
	Destroy()
}

// Buffer is one native unit of transfer.
type Buffer interface {
	// Bytes is the valid payload view (offset..offset+length) for this
	// delivery. The memory belongs to the native pool.
	Bytes() []byte
	Flags() uint32
	Cmd() FourCC

	// Lock and Unlock pin the buffer's memory mapping while the payload
	// is being read.
	Lock()
	Unlock()

	// Release returns the buffer to its pool. Must be called exactly
	// once per delivery.
	Release()
}

// Connection is a tunnel moving buffers between two ports without passing
// through a callback. Must be disabled and destroyed before either
// endpoint's component.
type Connection interface {
	Enable() error
	Disable() error
	Destroy() error
}
