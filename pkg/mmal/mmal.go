// Package mmal exposes the Broadcom VideoCore multimedia abstraction layer
// as a narrow set of handle interfaces. All handles are non-owning views of
// native structures; bring-up and teardown policy belongs to the caller.
package mmal

// FourCC is a four character media code.
type FourCC uint32

func fourCC(s string) FourCC {
	return FourCC(s[0]) | FourCC(s[1])<<8 | FourCC(s[2])<<16 | FourCC(s[3])<<24
}

func (f FourCC) String() string {
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

var (
	EncodingJPEG   = fourCC("JPEG")
	EncodingGIF    = fourCC("GIF ")
	EncodingPNG    = fourCC("PNG ")
	EncodingBMP    = fourCC("BMP ")
	EncodingMJPEG  = fourCC("MJPG")
	EncodingH264   = fourCC("H264")
	EncodingI420   = fourCC("I420")
	EncodingRGB24  = fourCC("RGB3")
	EncodingBGR24  = fourCC("BGR3")
	EncodingOpaque = fourCC("OPQV")
)

// Default component names.
const (
	ComponentCamera       = "vc.ril.camera"
	ComponentImageEncoder = "vc.ril.image_encode"
	ComponentVideoEncoder = "vc.ril.video_encode"
	ComponentNullSink     = "vc.null_sink"
	ComponentCameraInfo   = "vc.camera_info"
)

// Camera component output port indexes.
const (
	CameraPreviewPort = 0
	CameraVideoPort   = 1
	CameraCapturePort = 2
)

// Buffer header flags.
const (
	BufferFlagEOS                = 1 << 0
	BufferFlagFrameStart         = 1 << 1
	BufferFlagFrameEnd           = 1 << 2
	BufferFlagKeyFrame           = 1 << 3
	BufferFlagConfig             = 1 << 6
	BufferFlagTransmissionFailed = 1 << 8
)

// Buffer event commands delivered on control ports.
var (
	EventError            = fourCC("ERRO")
	EventParameterChanged = fourCC("EPCH")
)

// H.264 profile and level codes.
const (
	VideoProfileH264Baseline = 25
	VideoProfileH264Main     = 26
	VideoProfileH264High     = 28

	VideoLevelH2642  = 34
	VideoLevelH2643  = 37
	VideoLevelH26431 = 38
	VideoLevelH2644  = 40
	VideoLevelH26441 = 41
	VideoLevelH26442 = 42
)

// Connection flags.
const (
	ConnectionTunnelling        = 1 << 0
	ConnectionAllocationOnInput = 1 << 1
)

// AlignUp rounds v up to the next multiple of align, which must be a power
// of two. Buffer geometry requires width aligned to 32 and height to 16.
func AlignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
