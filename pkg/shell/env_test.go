package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceEnvVars(t *testing.T) {
	t.Setenv("RASCAM_TEST_OUT", "/tmp/cam")

	assert.Equal(t, "output: /tmp/cam/a.jpg", ReplaceEnvVars("output: ${RASCAM_TEST_OUT}/a.jpg"))
	assert.Equal(t, "width: 640", ReplaceEnvVars("width: ${RASCAM_TEST_MISSING:640}"))
	assert.Equal(t, "key: ${RASCAM_TEST_MISSING}", ReplaceEnvVars("key: ${RASCAM_TEST_MISSING}"), "no default, no value: untouched")
}
