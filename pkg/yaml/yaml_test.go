package yaml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	var cfg struct {
		Interval Duration `yaml:"interval"`
		Warmup   Duration `yaml:"warmup"`
	}

	require.NoError(t, Unmarshal([]byte("interval: 1m30s\nwarmup: 2\n"), &cfg))
	assert.Equal(t, 90*time.Second, time.Duration(cfg.Interval))
	assert.Equal(t, 2*time.Second, time.Duration(cfg.Warmup))

	err := Unmarshal([]byte("interval: [1]\n"), &cfg)
	assert.Error(t, err)
}
