package mmal

import "encoding/binary"

// ParamIDCameraSettings is the native parameter id carried inside a
// parameter-changed event when the sensor reports new exposure settings.
const ParamIDCameraSettings = 0x10045

// CameraSettingsEvent is the decoded payload of a parameter-changed event
// announcing the settings the sensor has converged on.
type CameraSettingsEvent struct {
	Exposure      uint32
	AnalogGain    Rational
	DigitalGain   Rational
	AWBRedGain    Rational
	AWBBlueGain   Rational
	FocusPosition int32
}

// DecodeCameraSettings parses a control-port event buffer. ok is false when
// the buffer is not a camera-settings parameter-changed event.
func DecodeCameraSettings(b Buffer) (ev CameraSettingsEvent, ok bool) {
	if b.Cmd() != EventParameterChanged {
		return ev, false
	}

	// MMAL_PARAMETER_HEADER_T{id, size} followed by the parameter body.
	p := b.Bytes()
	if len(p) < 48 || binary.LittleEndian.Uint32(p) != ParamIDCameraSettings {
		return ev, false
	}

	ev.Exposure = binary.LittleEndian.Uint32(p[8:])
	ev.AnalogGain = decodeRational(p[12:])
	ev.DigitalGain = decodeRational(p[20:])
	ev.AWBRedGain = decodeRational(p[28:])
	ev.AWBBlueGain = decodeRational(p[36:])
	ev.FocusPosition = int32(binary.LittleEndian.Uint32(p[44:]))
	return ev, true
}

func decodeRational(p []byte) Rational {
	return Rational{
		Num: int32(binary.LittleEndian.Uint32(p)),
		Den: int32(binary.LittleEndian.Uint32(p[4:])),
	}
}

// EncodeCameraSettings is the inverse of DecodeCameraSettings. It exists for
// drivers that synthesize control events.
func EncodeCameraSettings(ev CameraSettingsEvent) []byte {
	p := make([]byte, 48)
	binary.LittleEndian.PutUint32(p, ParamIDCameraSettings)
	binary.LittleEndian.PutUint32(p[4:], 48)
	binary.LittleEndian.PutUint32(p[8:], ev.Exposure)
	encodeRational(p[12:], ev.AnalogGain)
	encodeRational(p[20:], ev.DigitalGain)
	encodeRational(p[28:], ev.AWBRedGain)
	encodeRational(p[36:], ev.AWBBlueGain)
	binary.LittleEndian.PutUint32(p[44:], uint32(ev.FocusPosition))
	return p
}

func encodeRational(p []byte, r Rational) {
	binary.LittleEndian.PutUint32(p, uint32(r.Num))
	binary.LittleEndian.PutUint32(p[4:], uint32(r.Den))
}
