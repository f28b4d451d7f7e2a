package mmal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFourCC(t *testing.T) {
	assert.Equal(t, FourCC(0x47_45_50_4A), EncodingJPEG)
	assert.Equal(t, "JPEG", EncodingJPEG.String())
	assert.Equal(t, "OPQV", EncodingOpaque.String())
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint32(128), AlignUp(100, 32))
	assert.Equal(t, uint32(112), AlignUp(100, 16))
	assert.Equal(t, uint32(1920), AlignUp(1920, 32))
	assert.Equal(t, uint32(0), AlignUp(0, 32))
	assert.Equal(t, uint32(32), AlignUp(1, 32))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "SUCCESS", StatusSuccess.String())
	assert.Equal(t, "ENOMEM", StatusNoMemory.String())
	assert.Equal(t, "EFAULT", StatusFault.String())
	assert.Equal(t, "UNKNOWN(99)", Status(99).String())
}

func TestError(t *testing.T) {
	err := Errorf("enable port still", StatusNotReady)
	assert.EqualError(t, err, "mmal: enable port still: ENOTREADY")

	// No native status, e.g. a null pool from the allocator.
	err = Errorf("create pool still", StatusMax)
	assert.EqualError(t, err, "mmal: create pool still")
}
