package mmal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventBuffer struct {
	Buffer
	cmd     FourCC
	payload []byte
}

func (b *eventBuffer) Cmd() FourCC   { return b.cmd }
func (b *eventBuffer) Bytes() []byte { return b.payload }

func TestDecodeCameraSettings(t *testing.T) {
	want := CameraSettingsEvent{
		Exposure:      33000,
		AnalogGain:    Rational{Num: 256, Den: 256},
		DigitalGain:   Rational{Num: 384, Den: 256},
		AWBRedGain:    Rational{Num: 401, Den: 256},
		AWBBlueGain:   Rational{Num: 512, Den: 256},
		FocusPosition: -1,
	}

	buf := &eventBuffer{cmd: EventParameterChanged, payload: EncodeCameraSettings(want)}
	got, ok := DecodeCameraSettings(buf)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestDecodeCameraSettingsRejects(t *testing.T) {
	payload := EncodeCameraSettings(CameraSettingsEvent{})

	_, ok := DecodeCameraSettings(&eventBuffer{cmd: EventError, payload: payload})
	assert.False(t, ok, "wrong event command")

	_, ok = DecodeCameraSettings(&eventBuffer{cmd: EventParameterChanged, payload: payload[:20]})
	assert.False(t, ok, "truncated payload")

	other := append([]byte(nil), payload...)
	other[0] = 0x01 // different parameter id
	_, ok = DecodeCameraSettings(&eventBuffer{cmd: EventParameterChanged, payload: other})
	assert.False(t, ok, "unrelated parameter")
}
