package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfString(t *testing.T) {
	assert.Equal(t, []byte("{log: {level: trace}}"), parseConfString("log.level=trace"))
	assert.Equal(t, []byte("{snapshot: {camera: {width: 640}}}"), parseConfString("snapshot.camera.width=640"))

	assert.Nil(t, parseConfString("not-a-pair"))
	assert.Nil(t, parseConfString("toplevel=1"), "needs at least two path items")
}

func TestLoadConfigOrder(t *testing.T) {
	configs = [][]byte{
		[]byte("snapshot:\n  output: a.jpg\n  width: 640\n"),
		[]byte("snapshot:\n  output: b.jpg\n"),
	}
	t.Cleanup(func() { configs = nil })

	var cfg struct {
		Snapshot struct {
			Output string `yaml:"output"`
			Width  int    `yaml:"width"`
		} `yaml:"snapshot"`
	}
	LoadConfig(&cfg)

	// later sources win, untouched keys survive
	assert.Equal(t, "b.jpg", cfg.Snapshot.Output)
	assert.Equal(t, 640, cfg.Snapshot.Width)
}

func TestMemoryLog(t *testing.T) {
	buf := newBuffer(4)

	_, err := buf.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = buf.Write([]byte("world"))
	require.NoError(t, err)

	var out sink
	_, err = buf.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out))

	buf.Reset()
	out = nil
	_, err = buf.WriteTo(&out)
	require.NoError(t, err)
	assert.Empty(t, out)
}

type sink []byte

func (s *sink) Write(p []byte) (int, error) {
	*s = append(*s, p...)
	return len(p), nil
}
