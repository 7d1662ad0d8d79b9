// Package focus brings the terminal hosting a session to the foreground.
//
// Strategies are looked up by the session's terminal_bundle_id. Unknown
// identifiers fall back to activating the application on macOS.
package focus

import (
	"context"
	"fmt"
	"runtime"

	"github.com/grovetools/runner/command"
	"github.com/grovetools/runner/errors"
	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/util/sanitize"
)

const (
	BundleITerm2   = "com.googlecode.iterm2"
	BundleTerminal = "com.apple.Terminal"
	BundleTmux     = "tmux"
)

// Strategy focuses one kind of terminal.
type Strategy func(ctx context.Context, f *Focuser, entry models.SessionEntry) error

// Focuser dispatches to the strategy registered for a session's terminal.
type Focuser struct {
	runner     *command.Runner
	goos       string
	strategies map[string]Strategy
}

// New creates a Focuser with the built-in strategies.
func New(runner *command.Runner) *Focuser {
	return &Focuser{
		runner: runner,
		goos:   runtime.GOOS,
		strategies: map[string]Strategy{
			BundleITerm2:   focusITerm,
			BundleTerminal: focusTerminalApp,
			BundleTmux:     focusTmux,
		},
	}
}

// Register adds or replaces the strategy for bundleID.
func (f *Focuser) Register(bundleID string, s Strategy) {
	f.strategies[bundleID] = s
}

// Supports reports whether Focus has a strategy for entry.
func (f *Focuser) Supports(entry models.SessionEntry) bool {
	_, ok := f.strategyFor(entry)
	return ok
}

// Focus brings entry's terminal to the foreground. It fails with
// FOCUS_UNSUPPORTED when no strategy applies.
func (f *Focuser) Focus(ctx context.Context, entry models.SessionEntry) error {
	s, ok := f.strategyFor(entry)
	if !ok {
		return errors.FocusUnsupported(entry.ID, entry.TerminalBundleID)
	}
	return s(ctx, f, entry)
}

func (f *Focuser) strategyFor(entry models.SessionEntry) (Strategy, bool) {
	id := entry.TerminalBundleID
	if id == "" {
		return nil, false
	}
	if s, ok := f.strategies[id]; ok {
		if id != BundleTmux && f.goos != "darwin" {
			return nil, false
		}
		return s, true
	}
	if f.goos == "darwin" {
		return activateOnly, true
	}
	return nil, false
}

func (f *Focuser) osascript(ctx context.Context, script string) error {
	_, err := f.runner.Run(ctx, "osascript", "-e", script)
	return err
}

func (f *Focuser) activate(ctx context.Context, bundleID string) error {
	return f.osascript(ctx, fmt.Sprintf("tell application id %s to activate", sanitize.QuoteAppleScript(bundleID)))
}

func activateOnly(ctx context.Context, f *Focuser, entry models.SessionEntry) error {
	return f.activate(ctx, entry.TerminalBundleID)
}
