package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerRecordsAndReturnsOutput(t *testing.T) {
	fake := NewFakeExecutor()
	fake.Outputs["tmux"] = "/dev/ttys001 main:1.0\n"
	r := NewRunnerWithExecutor(fake)

	out, err := r.Run(context.Background(), "tmux", "list-panes", "-a")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttys001 main:1.0\n", out)
	assert.Equal(t, [][]string{{"tmux", "list-panes", "-a"}}, fake.Recorded())
}

func TestRunnerWrapsFailures(t *testing.T) {
	fake := NewFakeExecutor()
	fake.Failing["osascript"] = true
	fake.Outputs["osascript"] = "execution error"

	_, err := NewRunnerWithExecutor(fake).Run(context.Background(), "osascript", "-e", "beep")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "osascript -e beep")
	assert.Contains(t, err.Error(), "execution error")
}

func TestRunnerAvailable(t *testing.T) {
	fake := NewFakeExecutor()
	fake.Missing["notify-send"] = true
	r := NewRunnerWithExecutor(fake)

	assert.False(t, r.Available("notify-send"))
	assert.True(t, r.Available("tmux"))
}

func TestRealExecutor(t *testing.T) {
	r := NewRunner()
	out, err := r.Run(context.Background(), "/bin/sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}
