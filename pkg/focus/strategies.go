package focus

import (
	"context"
	"fmt"

	"github.com/grovetools/runner/errors"
	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/pkg/tmux"
	"github.com/grovetools/runner/util/sanitize"
)

const itermScript = `tell application "iTerm2"
    repeat with w in windows
        repeat with t in tabs of w
            repeat with s in sessions of t
                try
                    if tty of s is %s then
                        select t
                        set index of w to 1
                        return
                    end if
                end try
            end repeat
        end repeat
    end repeat
end tell`

const terminalScript = `tell application "Terminal"
    repeat with w in windows
        try
            if tty of w is %s then
                set index of w to 1
                set frontmost of w to true
                return
            end if
        end try
    end repeat
end tell`

// focusITerm activates iTerm2 and selects the tab whose session owns the tty.
func focusITerm(ctx context.Context, f *Focuser, entry models.SessionEntry) error {
	if err := f.activate(ctx, BundleITerm2); err != nil {
		return err
	}
	if entry.TTY == "" {
		return nil
	}
	return f.osascript(ctx, fmt.Sprintf(itermScript, sanitize.QuoteAppleScript(entry.TTY)))
}

// focusTerminalApp activates Terminal.app and raises the window owning the tty.
func focusTerminalApp(ctx context.Context, f *Focuser, entry models.SessionEntry) error {
	if err := f.activate(ctx, BundleTerminal); err != nil {
		return err
	}
	if entry.TTY == "" {
		return nil
	}
	return f.osascript(ctx, fmt.Sprintf(terminalScript, sanitize.QuoteAppleScript(entry.TTY)))
}

// focusTmux selects the pane attached to the session's tty.
func focusTmux(ctx context.Context, f *Focuser, entry models.SessionEntry) error {
	if entry.TTY == "" {
		return errors.FocusUnsupported(entry.ID, entry.TerminalBundleID).WithDetail("reason", "no tty recorded")
	}
	client, err := tmux.NewClient(f.runner)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeFocusUnsupported, "tmux unavailable")
	}
	pane, ok, err := client.FindPaneByTTY(ctx, entry.TTY)
	if err != nil {
		return err
	}
	if !ok {
		return errors.SessionNotFound(entry.ID).WithDetail("tty", entry.TTY)
	}
	return client.Focus(ctx, pane)
}
