package camera

import (
	"fmt"

	"github.com/pedrosland/rascam/pkg/mmal"
)

const (
	jpegQuality         = 90
	jpegRestartInterval = 0
)

// SetFormat pushes the requested geometry and encodings to every port.
// Frame dimensions are padded to the driver's alignment (width to 32,
// height to 16) while the crop rectangle keeps the exact requested size,
// so a 100x100 request produces 100x100 pixels inside a 128x112 frame.
func (d *Device) SetFormat(s Settings) error {
	d.useEncoder = s.UseEncoder
	d.video = s.video()

	w := mmal.AlignUp(s.Width, 32)
	h := mmal.AlignUp(s.Height, 16)
	crop := mmal.Rect{Width: int32(s.Width), Height: int32(s.Height)}

	// Firmware prior to June 2016 has the RGB24 and BGR24 component
	// orders reversed on the camera ports, so the opposite FourCC
	// yields the requested byte order there.
	s.Encoding = d.fixRGBOrder(s.Encoding)

	// The camera emits opaque handles when an encoder consumes them.
	camEncoding := s.Encoding
	if s.UseEncoder {
		camEncoding = mmal.EncodingOpaque
	}

	preview := d.camera.Output(mmal.CameraPreviewPort)
	pf := preview.Format()
	pf.Encoding = mmal.EncodingOpaque
	pf.EncodingVariant = mmal.EncodingI420
	if d.video {
		pf.Width = w
		pf.Height = h
		pf.Crop = crop
		pf.FrameRate = mmal.Rational{Num: s.Framerate, Den: 1}
	} else {
		// Stills meter off a fixed full-FOV preview mode.
		pf.Width = previewWidth
		pf.Height = previewHeight
		pf.Crop = mmal.Rect{Width: previewWidth, Height: previewHeight}
		pf.FrameRate = mmal.Rational{Den: 1}
	}
	if err := preview.SetFormat(pf); err != nil {
		return fmt.Errorf("camera: unable to commit preview port format: %w", err)
	}

	video := d.camera.Output(mmal.CameraVideoPort)
	vf := video.Format()
	vf.Width = w
	vf.Height = h
	vf.Crop = crop
	if d.video {
		vf.Encoding = camEncoding
		vf.EncodingVariant = mmal.EncodingI420
		vf.FrameRate = mmal.Rational{Num: s.Framerate, Den: 1}
	} else {
		vf.Encoding = mmal.EncodingOpaque
		vf.EncodingVariant = mmal.EncodingI420
		vf.FrameRate = mmal.Rational{Den: 1}
	}
	if err := video.SetFormat(vf); err != nil {
		return fmt.Errorf("camera: unable to commit video port format: %w", err)
	}
	if d.video {
		sizeBuffers(video)
	}

	still := d.camera.Output(mmal.CameraCapturePort)
	sf := still.Format()
	sf.Encoding = camEncoding
	sf.EncodingVariant = mmal.EncodingI420
	sf.Width = w
	sf.Height = h
	sf.Crop = crop
	sf.FrameRate = mmal.Rational{Den: 1}
	if err := still.SetFormat(sf); err != nil {
		return fmt.Errorf("camera: unable to commit still port format: %w", err)
	}
	if !d.video {
		sizeBuffers(still)
	}

	if s.ISO != ISOAuto {
		if err := d.camera.Control().SetISO(s.ISO); err != nil {
			return fmt.Errorf("camera: unable to set ISO: %w", err)
		}
	}
	if s.ZeroCopy {
		if err := d.dataPort().SetZeroCopy(true); err != nil {
			return fmt.Errorf("camera: unable to enable zero copy: %w", err)
		}
	}

	if s.UseEncoder {
		return d.setEncoderFormat(s, w, h)
	}
	return nil
}

// sizeBuffers raises the port's buffer count and size to the driver's
// recommendation, clamped to its minimums.
func sizeBuffers(p mmal.Port) {
	cfg := p.BufferConfig()
	num := cfg.NumRecommended
	if num < cfg.NumMin {
		num = cfg.NumMin
	}
	size := cfg.SizeRecommended
	if size < cfg.SizeMin {
		size = cfg.SizeMin
	}
	p.SetBufferConfig(num, size)
}

func (d *Device) fixRGBOrder(enc mmal.FourCC) mmal.FourCC {
	if enc != mmal.EncodingRGB24 && enc != mmal.EncodingBGR24 {
		return enc
	}
	if d.camera.Output(mmal.CameraCapturePort).RGBOrderFixed() {
		return enc
	}
	if enc == mmal.EncodingRGB24 {
		return mmal.EncodingBGR24
	}
	return mmal.EncodingRGB24
}

func (d *Device) setEncoderFormat(s Settings, w, h uint32) error {
	out := d.encoder.Output(0)
	f := out.Format()
	f.Encoding = s.Encoding
	f.Width = w
	f.Height = h
	f.Crop = mmal.Rect{Width: int32(s.Width), Height: int32(s.Height)}
	if d.video {
		f.Bitrate = s.bitrate()
		f.FrameRate = mmal.Rational{Den: 1}
	}
	if err := out.SetFormat(f); err != nil {
		return fmt.Errorf("camera: unable to commit encoder output format: %w", err)
	}
	sizeBuffers(out)

	switch {
	case s.Encoding == mmal.EncodingJPEG:
		if err := out.SetJPEGQuality(jpegQuality); err != nil {
			return fmt.Errorf("camera: unable to set JPEG quality: %w", err)
		}
		if err := out.SetJPEGRestartInterval(jpegRestartInterval); err != nil {
			return fmt.Errorf("camera: unable to set JPEG restart interval: %w", err)
		}
	case s.Encoding == mmal.EncodingH264:
		profile := s.VideoProfile
		if profile == 0 {
			profile = mmal.VideoProfileH264High
		}
		level := s.VideoLevel
		if level == 0 {
			level = mmal.VideoLevelH2644
		}
		if err := out.SetVideoProfile(profile, level); err != nil {
			return fmt.Errorf("camera: unable to set H264 profile: %w", err)
		}
		if s.Intraperiod > 0 {
			if err := out.SetIntraperiod(s.Intraperiod); err != nil {
				return fmt.Errorf("camera: unable to set intraperiod: %w", err)
			}
		}
		if err := out.SetInlineHeaders(true); err != nil {
			return fmt.Errorf("camera: unable to enable inline headers: %w", err)
		}
		// SEI timing messages just bloat the stream for our consumers.
		if err := out.SetSEI(false); err != nil {
			return fmt.Errorf("camera: unable to disable SEI: %w", err)
		}
	}
	return nil
}
