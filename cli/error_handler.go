package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/grovetools/runner/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message tailored to the error's code and returns err
// unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	out := h.Out
	var re *errors.RunnerError
	stderrors.As(err, &re)
	detail := func(key string) interface{} {
		if re == nil || re.Details == nil {
			return nil
		}
		return re.Details[key]
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(out, "Error: configuration file %v not found\n", detail("path"))
		fmt.Fprintf(out, "Run 'runner config --schema' to see the supported keys.\n")

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(out, "Error: invalid configuration: %v\n", err)
		if field := detail("field"); field != nil {
			fmt.Fprintf(out, "Check the '%v' key in runner.yml\n", field)
		}

	case errors.ErrCodeDaemonNotRunning:
		fmt.Fprintf(out, "Error: the runner daemon is not running\n")
		fmt.Fprintf(out, "Start it with 'runner daemon start'\n")

	case errors.ErrCodeSessionNotFound:
		fmt.Fprintf(out, "Error: session '%v' not found\n", detail("sessionId"))
		fmt.Fprintf(out, "Run 'runner list' to see active sessions.\n")

	case errors.ErrCodeFocusUnsupported:
		fmt.Fprintf(out, "Error: cannot focus this session's terminal\n")
		if bundle := detail("terminalBundleId"); bundle != nil && bundle != "" {
			fmt.Fprintf(out, "Terminal %v has no focus strategy on this platform.\n", bundle)
		}

	default:
		fmt.Fprintf(out, "Error: %v\n", err)
	}

	if h.Verbose {
		if re != nil {
			fmt.Fprintf(out, "\nError details:\n%s\n", re.ToJSON())
		}
	}
	return err
}
