package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSequenceName(t *testing.T) {
	ts := time.Date(2024, 5, 17, 9, 30, 5, 0, time.UTC)

	assert.Equal(t, "cam-20240517-093005.jpg", sequenceName("cam.jpg", ts))
	assert.Equal(t, "/var/shots/cam-20240517-093005.jpg", sequenceName("/var/shots/cam.jpg", ts))
	assert.Equal(t, "noext-20240517-093005", sequenceName("noext", ts))
}
