package mmal

import "fmt"

// Rect is a crop rectangle inside the padded buffer geometry.
type Rect struct {
	X, Y          int32
	Width, Height int32
}

// Rational is a native rational number, used for frame rates and gains.
type Rational struct {
	Num, Den int32
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// VideoFormat describes the elementary stream carried by a port.
//
// Width and Height are the buffer geometry and must satisfy the driver's
// alignment rules (width multiple of 32, height multiple of 16). Crop holds
// the exact rectangle the caller asked for.
type VideoFormat struct {
	Encoding        FourCC
	EncodingVariant FourCC
	Width           uint32
	Height          uint32
	Crop            Rect
	FrameRate       Rational
	Bitrate         uint32
}

// BufferConfig reports a port's buffer requirements. Num and Size are the
// values the client committed; the rest are set by the component.
type BufferConfig struct {
	Num             uint32
	Size            uint32
	NumMin          uint32
	SizeMin         uint32
	NumRecommended  uint32
	SizeRecommended uint32
}

// CameraConfig is the global capture configuration pushed to the camera
// control port before formats are committed.
type CameraConfig struct {
	MaxStillsW            uint32
	MaxStillsH            uint32
	StillsYUV422          bool
	OneShotStills         bool
	MaxPreviewVideoW      uint32
	MaxPreviewVideoH      uint32
	NumPreviewVideoFrames uint32
	StillsCircularBufferH uint32
	FastPreviewResume     bool
	UseSTCTimestamp       bool
}

// CameraDetail is one attached camera as reported by the camera-info
// component.
type CameraDetail struct {
	PortID    uint32
	MaxWidth  uint32
	MaxHeight uint32
	Lens      bool
	Name      string
}
