package command

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout bounds every helper invocation.
const DefaultTimeout = 5 * time.Second

// Runner executes commands with a timeout and captures their output.
type Runner struct {
	executor Executor
	timeout  time.Duration
}

// NewRunner creates a Runner backed by a RealExecutor.
func NewRunner() *Runner {
	return NewRunnerWithExecutor(&RealExecutor{})
}

// NewRunnerWithExecutor creates a Runner with a custom Executor.
func NewRunnerWithExecutor(exec Executor) *Runner {
	return &Runner{executor: exec, timeout: DefaultTimeout}
}

// WithTimeout returns a copy of r using timeout.
func (r *Runner) WithTimeout(timeout time.Duration) *Runner {
	cp := *r
	if timeout > 0 {
		cp.timeout = timeout
	}
	return &cp
}

// Available reports whether name resolves on PATH.
func (r *Runner) Available(name string) bool {
	_, err := r.executor.LookPath(name)
	return err == nil
}

// Run executes name with args and returns its combined output.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	output, err := r.executor.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		cmdStr := name + " " + strings.Join(args, " ")
		return string(output), fmt.Errorf("command failed: `%s`: %w, output: %s", cmdStr, err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}
