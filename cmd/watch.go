package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/grovetools/runner/cli"
	"github.com/grovetools/runner/config"
	"github.com/grovetools/runner/internal/daemon/collector"
	"github.com/grovetools/runner/internal/daemon/engine"
	"github.com/grovetools/runner/internal/daemon/store"
	"github.com/grovetools/runner/internal/daemon/watcher"
	"github.com/grovetools/runner/logging"
	"github.com/grovetools/runner/pkg/daemon"
	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/tui/keymap"
	"github.com/grovetools/runner/tui/sessionlist"
	"github.com/grovetools/runner/tui/theme"
)

// NewWatchCmd shows the live session list.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the live session list",
		Long: `Shows sessions as they change. With a running daemon the view follows the
daemon's stream and shows its alerts; otherwise the sessions directory is
watched in-process.

Examples:
  runner watch
  runner watch --plain`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	cmd.Flags().Bool("plain", false, "Print one line per change instead of the interactive view")
	return cmd
}

// watchFeed is where the watch view gets its data.
type watchFeed struct {
	snapshots <-chan models.Snapshot
	alerts    <-chan models.Alert
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client, cfg, err := clientFor(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	feed, err := openFeed(ctx, cmd, client, cfg)
	if err != nil {
		return err
	}

	if plain, _ := cmd.Flags().GetBool("plain"); plain {
		return watchPlain(ctx, cmd.OutOrStdout(), feed)
	}

	home, _ := os.UserHomeDir()
	initial, err := client.GetState(ctx)
	if err != nil {
		return err
	}
	overrides, err := keymap.LoadOverrides(cfg, "sessionlist")
	if err != nil {
		cli.GetLogger(cmd).WithError(err).Warn("Ignoring invalid tui.keybindings")
	}
	model := sessionlist.New(sessionlist.Options{
		Initial:       initial,
		Snapshots:     feed.snapshots,
		Alerts:        feed.alerts,
		Focus:         client.Focus,
		Reload:        func(ctx context.Context) error { _, err := client.Reload(ctx); return err },
		DisplayFormat: cfg.DisplayFormat,
		Home:          home,
		KeyOverrides:  overrides,
	})
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// openFeed subscribes to the daemon, or runs the store and watcher in-process
// when no daemon is reachable.
func openFeed(ctx context.Context, cmd *cobra.Command, client daemon.Client, cfg *config.Config) (watchFeed, error) {
	var feed watchFeed
	if client.IsRunning() {
		snaps, err := client.StreamState(ctx)
		if err != nil {
			return feed, err
		}
		feed.snapshots = snaps
		if alerts, err := client.Alerts(ctx); err == nil {
			feed.alerts = alerts
		} else {
			cli.GetLogger(cmd).WithError(err).Debug("Alert stream unavailable")
		}
		return feed, nil
	}

	snaps, err := localFeed(ctx, cfg)
	if err != nil {
		return feed, err
	}
	feed.snapshots = snaps
	return feed, nil
}

// localFeed runs a private engine without notifications. The channel closes
// after ctx is canceled.
func localFeed(ctx context.Context, cfg *config.Config) (<-chan models.Snapshot, error) {
	logger := logging.NewLogger("watch")
	dir := cfg.ResolveSessionsDir()
	st, err := store.New(store.Options{
		Dir:            dir,
		StaleThreshold: cfg.StaleTimeout.Std(),
		Ignore:         cfg.Store.Ignore,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	eng := engine.New(st, nil, logger)
	eng.Register(collector.NewWatchCollector(watcher.New(watcher.Options{
		Dir:          dir,
		Debounce:     cfg.Watcher.Debounce.Std(),
		PollInterval: cfg.Watcher.PollInterval.Std(),
		Logger:       logger,
	})))
	eng.Register(collector.NewSweepCollector(cfg.Store.SweepInterval.Std()))

	sub := st.Subscribe()
	go func() {
		eng.Start(ctx)
		st.Close()
	}()
	return sub, nil
}

func watchPlain(ctx context.Context, w io.Writer, feed watchFeed) error {
	t := theme.DefaultTheme
	alerts := feed.alerts
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-feed.snapshots:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "%s  ", t.Muted.Render(snap.GeneratedAt.Local().Format(time.TimeOnly)))
			if err := writeCounts(w, snap.Counts); err != nil {
				return err
			}
		case alert, ok := <-alerts:
			if !ok {
				alerts = nil
				continue
			}
			fmt.Fprintf(w, "%s  %s %s\n", t.Muted.Render(alert.CreatedAt.Local().Format(time.TimeOnly)),
				t.Warning.Render(alert.Title), alert.Body)
		}
	}
}
