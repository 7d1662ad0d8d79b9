// Package command runs short-lived external helpers such as osascript,
// notify-send and tmux.
package command

import (
	"context"
	"os/exec"
)

// Executor creates exec.Cmd instances. Tests substitute an implementation that
// records invocations instead of running real binaries.
type Executor interface {
	// CommandContext creates a new context-aware exec.Cmd instance.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd

	// LookPath resolves a binary on PATH.
	LookPath(name string) (string, error)
}

// RealExecutor is the production implementation of the Executor interface.
type RealExecutor struct{}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// LookPath delegates to exec.LookPath.
func (e *RealExecutor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
