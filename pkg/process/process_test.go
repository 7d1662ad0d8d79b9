package process

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsProcessAlive(t *testing.T) {
	assert.True(t, IsProcessAlive(os.Getpid()))
	assert.False(t, IsProcessAlive(0))
	assert.False(t, IsProcessAlive(-1))
}

func TestDescribeSelf(t *testing.T) {
	info, err := Describe(os.Getpid())
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), info.PID)
	assert.NotEmpty(t, info.Name)
	assert.Greater(t, info.RSS, uint64(0))
	assert.False(t, info.StartedAt.After(time.Now().Add(time.Second)))
}

func TestUptime(t *testing.T) {
	now := time.Now()
	assert.Equal(t, time.Duration(0), Info{}.Uptime(now))
	assert.Equal(t, time.Minute, Info{StartedAt: now.Add(-time.Minute)}.Uptime(now))
}
