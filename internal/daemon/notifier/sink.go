package notifier

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/runner/command"
	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/util/sanitize"
)

// Sink delivers an alert somewhere a user will notice it.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, alert models.Alert) error
}

// DesktopSink posts a desktop notification with notify-send on Linux and
// osascript on macOS.
type DesktopSink struct {
	goos   string
	runner *command.Runner
}

// NewDesktopSink returns a sink for the running platform.
func NewDesktopSink(runner *command.Runner) *DesktopSink {
	return &DesktopSink{goos: runtime.GOOS, runner: runner}
}

func (s *DesktopSink) Name() string { return "desktop" }

// Available reports whether the platform notifier binary exists.
func (s *DesktopSink) Available() bool {
	name, _ := s.command(models.Alert{})
	if name == "" {
		return false
	}
	return s.runner.Available(name)
}

func (s *DesktopSink) Deliver(ctx context.Context, alert models.Alert) error {
	name, args := s.command(alert)
	if name == "" {
		return fmt.Errorf("desktop notifications unsupported on %s", s.goos)
	}
	if !s.runner.Available(name) {
		return fmt.Errorf("%s not available", name)
	}
	_, err := s.runner.Run(ctx, name, args...)
	return err
}

func (s *DesktopSink) command(alert models.Alert) (string, []string) {
	title := sanitize.ForNotification(alert.Title)
	body := sanitize.ForNotification(alert.Body)

	switch s.goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s sound name \"default\"",
			sanitize.QuoteAppleScript(body), sanitize.QuoteAppleScript(title))
		return "osascript", []string{"-e", script}
	case "linux", "freebsd", "openbsd", "netbsd":
		args := []string{"--app-name=runner", "--urgency=" + urgency(alert.Kind)}
		return "notify-send", append(args, title, body)
	}
	return "", nil
}

func urgency(kind models.AlertKind) string {
	if kind == models.AlertNeedsApproval {
		return "critical"
	}
	return "normal"
}

// BellSink rings the terminal bell.
type BellSink struct {
	w io.Writer
}

// NewBellSink writes BEL characters to w.
func NewBellSink(w io.Writer) *BellSink {
	return &BellSink{w: w}
}

func (s *BellSink) Name() string { return "bell" }

func (s *BellSink) Deliver(_ context.Context, _ models.Alert) error {
	_, err := io.WriteString(s.w, "\a")
	return err
}

// LogSink records alerts in the daemon log.
type LogSink struct {
	logger *logrus.Entry
}

// NewLogSink returns a sink writing to logger.
func NewLogSink(logger *logrus.Entry) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, alert models.Alert) error {
	s.logger.WithFields(logrus.Fields{
		"alert":   alert.ID,
		"kind":    alert.Kind,
		"session": alert.SessionID,
	}).Infof("%s: %s", alert.Title, alert.Body)
	return nil
}
