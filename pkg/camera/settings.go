package camera

import (
	"fmt"

	"github.com/pedrosland/rascam/pkg/mmal"
)

// ISOAuto leaves ISO selection to the sensor.
const ISOAuto = 0

// 17 Mbit/s fits level 4 with headroom at 1080p30.
const defaultBitrate = 17_000_000

// Settings is the declarative capture configuration. It is consumed once
// when the pipeline is built and has no effect after capture begins.
type Settings struct {
	// Encoding selects the still image codec, a raw pixel format, or
	// H264 for video.
	Encoding mmal.FourCC

	// Width and Height of the output. Zero means the camera's maximum.
	// Values not aligned to 32/16 are delivered exactly via the crop
	// rectangle while the buffer geometry is padded up.
	Width  uint32
	Height uint32

	ZeroCopy bool
	ISO      uint32

	// UseEncoder routes output through an image or video encoder
	// component instead of returning raw camera output.
	UseEncoder bool

	// Video settings, ignored for stills.
	Framerate    int32
	Bitrate      uint32 // bits/s, 0 = 17 Mbit/s
	VideoProfile uint32
	VideoLevel   uint32
	Intraperiod  uint32 // keyframe interval in frames, 0 = encoder default
}

// DefaultSettings captures JPEG stills at the camera's maximum resolution.
func DefaultSettings() Settings {
	return Settings{
		Encoding:   mmal.EncodingJPEG,
		ISO:        ISOAuto,
		UseEncoder: true,
	}
}

func (s *Settings) video() bool {
	return s.Encoding == mmal.EncodingH264
}

func (s *Settings) bitrate() uint32 {
	if s.Bitrate == 0 {
		return defaultBitrate
	}
	return s.Bitrate
}

// ParseEncoding maps a config-friendly name to its media code.
func ParseEncoding(name string) (mmal.FourCC, error) {
	switch name {
	case "jpeg", "jpg":
		return mmal.EncodingJPEG, nil
	case "png":
		return mmal.EncodingPNG, nil
	case "gif":
		return mmal.EncodingGIF, nil
	case "bmp":
		return mmal.EncodingBMP, nil
	case "mjpeg":
		return mmal.EncodingMJPEG, nil
	case "h264":
		return mmal.EncodingH264, nil
	case "rgb":
		return mmal.EncodingRGB24, nil
	case "bgr":
		return mmal.EncodingBGR24, nil
	case "yuv", "i420":
		return mmal.EncodingI420, nil
	}
	return 0, fmt.Errorf("camera: unknown encoding %q", name)
}
