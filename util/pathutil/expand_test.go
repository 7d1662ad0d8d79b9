package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("RUNNER_TEST_DIR", "/var/tmp/runner")

	got, err := Expand("~/sessions")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "sessions"), got)

	got, err = Expand("~")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	got, err = Expand("$RUNNER_TEST_DIR/sessions")
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/runner/sessions", got)

	got, err = Expand("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Expand("relative")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}
