// Package tmux is a minimal tmux client used to focus the pane a session runs in.
package tmux

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/grovetools/runner/command"
)

type Client struct {
	runner *command.Runner
	socket string // Socket name for a dedicated tmux server (uses -L flag)
}

// NewClient creates a client for the default tmux server. RUNNER_TMUX_SOCKET
// selects a dedicated server, which tests use for isolation.
func NewClient(runner *command.Runner) (*Client, error) {
	if !runner.Available("tmux") {
		return nil, fmt.Errorf("tmux command not found in PATH")
	}
	return &Client{
		runner: runner,
		socket: os.Getenv("RUNNER_TMUX_SOCKET"),
	}, nil
}

// Socket returns the socket name this client uses, or empty string for default.
func (c *Client) Socket() string {
	return c.socket
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	if c.socket != "" {
		args = append([]string{"-L", c.socket}, args...)
	}
	return c.runner.Run(ctx, "tmux", args...)
}

// ListPanes returns every pane across all sessions.
func (c *Client) ListPanes(ctx context.Context) ([]Pane, error) {
	format := `#{pane_tty}|#{session_name}|#{window_index}|#{pane_index}|#{pane_id}`
	output, err := c.run(ctx, "list-panes", "-a", "-F", format)
	if err != nil {
		return nil, err
	}
	return parsePanes(output), nil
}

// FindPaneByTTY returns the pane attached to tty.
func (c *Client) FindPaneByTTY(ctx context.Context, tty string) (Pane, bool, error) {
	panes, err := c.ListPanes(ctx)
	if err != nil {
		return Pane{}, false, err
	}
	for _, p := range panes {
		if p.TTY == tty {
			return p, true, nil
		}
	}
	return Pane{}, false, nil
}

// SwitchClient points the attached client at target's session.
func (c *Client) SwitchClient(ctx context.Context, target string) error {
	_, err := c.run(ctx, "switch-client", "-t", target)
	return err
}

func (c *Client) SelectWindow(ctx context.Context, target string) error {
	_, err := c.run(ctx, "select-window", "-t", target)
	return err
}

// SelectPane switches focus to the specified pane
func (c *Client) SelectPane(ctx context.Context, target string) error {
	_, err := c.run(ctx, "select-pane", "-t", target)
	return err
}

// Focus brings pane to the front of the attached client.
func (c *Client) Focus(ctx context.Context, pane Pane) error {
	// switch-client fails when no client is attached; window and pane
	// selection still make the pane current for the next attach.
	_ = c.SwitchClient(ctx, "="+pane.Session)
	if err := c.SelectWindow(ctx, pane.WindowTarget()); err != nil {
		return fmt.Errorf("select-window: %w", err)
	}
	if err := c.SelectPane(ctx, pane.Target()); err != nil {
		return fmt.Errorf("select-pane: %w", err)
	}
	return nil
}

func parsePanes(output string) []Pane {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	panes := make([]Pane, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 5)
		if len(parts) < 5 {
			continue // Skip malformed lines
		}
		panes = append(panes, Pane{
			TTY:         parts[0],
			Session:     parts[1],
			WindowIndex: parts[2],
			PaneIndex:   parts[3],
			ID:          parts[4],
		})
	}
	return panes
}
