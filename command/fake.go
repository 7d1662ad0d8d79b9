package command

import (
	"context"
	"errors"
	"os/exec"
	"sync"
)

// FakeExecutor records invocations and answers them with canned output.
// Commands are served by /bin/sh so no real helper is run.
type FakeExecutor struct {
	mu sync.Mutex
	// Calls holds every invocation as name followed by args.
	Calls [][]string
	// Outputs maps a binary name to the stdout it should produce.
	Outputs map[string]string
	// Failing lists binaries whose invocation exits non-zero.
	Failing map[string]bool
	// Missing lists binaries LookPath should not find.
	Missing map[string]bool
}

// NewFakeExecutor returns an empty FakeExecutor.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		Outputs: make(map[string]string),
		Failing: make(map[string]bool),
		Missing: make(map[string]bool),
	}
}

// CommandContext records the call and returns a shell command that prints the canned output.
func (f *FakeExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	f.mu.Lock()
	f.Calls = append(f.Calls, append([]string{name}, args...))
	out := f.Outputs[name]
	fail := f.Failing[name]
	f.mu.Unlock()

	script := `printf '%s' "$1"`
	if fail {
		script += "; exit 1"
	}
	return exec.CommandContext(ctx, "/bin/sh", "-c", script, "fake", out)
}

// LookPath fails for binaries listed in Missing.
func (f *FakeExecutor) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Missing[name] {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/bin/" + name, nil
}

// Recorded returns a copy of the recorded calls.
func (f *FakeExecutor) Recorded() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.Calls))
	copy(out, f.Calls)
	return out
}
