package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/runner/cli"
	"github.com/grovetools/runner/command"
	"github.com/grovetools/runner/config"
	"github.com/grovetools/runner/internal/daemon/collector"
	"github.com/grovetools/runner/internal/daemon/engine"
	"github.com/grovetools/runner/internal/daemon/notifier"
	"github.com/grovetools/runner/internal/daemon/pidfile"
	"github.com/grovetools/runner/internal/daemon/server"
	"github.com/grovetools/runner/internal/daemon/store"
	"github.com/grovetools/runner/internal/daemon/watcher"
	"github.com/grovetools/runner/logging"
	"github.com/grovetools/runner/pkg/daemon"
	"github.com/grovetools/runner/pkg/focus"
	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/pkg/paths"
	"github.com/grovetools/runner/pkg/process"
)

const shutdownTimeout = 5 * time.Second

// NewDaemonCmd returns the daemon command with subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the runner daemon",
		Long:  "The daemon watches the sessions directory, serves the live state over a unix socket and raises alerts.",
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())
	cmd.AddCommand(newDaemonLogsCmd())

	return cmd
}

// daemonPaths are the files a daemon instance owns.
type daemonPaths struct {
	Socket    string
	PidFile   string
	LogFile   string
	ConfigDir string
}

func defaultDaemonPaths(cfg *config.Config) daemonPaths {
	configDir := paths.ConfigDir()
	if cfg.Path() != "" {
		configDir = filepath.Dir(cfg.Path())
	}
	return daemonPaths{
		Socket:    paths.SocketPath(),
		PidFile:   paths.PidFilePath(),
		LogFile:   paths.DaemonLogPath(),
		ConfigDir: configDir,
	}
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			cli.GetLogger(cmd)
			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("failed to create runner directories: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runDaemon(ctx, cfg, defaultDaemonPaths(cfg))
		},
	}
}

// runDaemon runs the daemon until ctx is canceled. Shutdown order: the
// server stops accepting requests, the engine stops its collectors (and with
// them the watcher) before its reload worker, then the pidfile is released.
func runDaemon(ctx context.Context, cfg *config.Config, p daemonPaths) error {
	logger := logging.NewLogger("daemon")

	logFile, err := logging.AttachFile(p.LogFile)
	if err != nil {
		logger.WithError(err).Warn("Daemon log file unavailable")
	} else {
		defer logFile.Close()
	}

	if err := pidfile.Acquire(p.PidFile); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if err := pidfile.Release(p.PidFile); err != nil {
			logger.WithError(err).Error("Failed to release pidfile")
		}
	}()

	dir := cfg.ResolveSessionsDir()
	st, err := store.New(store.Options{
		Dir:            dir,
		StaleThreshold: cfg.StaleTimeout.Std(),
		Ignore:         cfg.Store.Ignore,
	})
	if err != nil {
		return fmt.Errorf("failed to open sessions directory %s: %w", dir, err)
	}
	defer st.Close()

	dirWatcher := watcher.New(watcher.Options{
		Dir:          dir,
		Debounce:     cfg.Watcher.Debounce.Std(),
		PollInterval: cfg.Watcher.PollInterval.Std(),
	})

	runner := command.NewRunner()
	dispatcher := notifier.NewDispatcher(notifier.Options{
		Enabled: cfg.NotifyEnabled(),
		Chain:   sinkChain(cfg, runner),
		Always:  []notifier.Sink{notifier.NewLogSink(logging.NewLogger("alerts"))},
	})
	defer dispatcher.Close()

	eng := engine.New(st, dispatcher, logger)
	eng.Register(collector.NewWatchCollector(dirWatcher))
	eng.Register(collector.NewSweepCollector(cfg.Store.SweepInterval.Std()))

	srv := server.New(logging.NewLogger("server"))
	srv.SetEngine(eng)
	srv.SetFocuser(focus.New(runner))
	startedAt := time.Now()
	watcherMode := func() string { return string(dirWatcher.Mode()) }
	srv.SetRunningConfig(runningConfig(cfg, dir, startedAt), watcherMode)

	cfgWatcher := daemon.NewConfigWatcher(p.ConfigDir, cfg.Watcher.Debounce.Std(), cfg, func(next *config.Config) {
		dispatcher.SetEnabled(next.NotifyEnabled())
		dispatcher.SetChain(sinkChain(next, runner))
		srv.SetRunningConfig(runningConfig(next, dir, startedAt), watcherMode)
		if next.ResolveSessionsDir() != dir || next.StaleTimeout != cfg.StaleTimeout {
			logger.Warn("sessions_dir and stale_timeout changes take effect after a restart")
		}
		logger.WithField("path", next.Path()).Info("Applied config change")
	})

	engineCtx, stopEngine := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		eng.Start(engineCtx)
	}()
	go func() {
		defer wg.Done()
		cfgWatcher.Start(engineCtx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe(p.Socket)
	}()

	logger.WithFields(logrus.Fields{
		"pid":          os.Getpid(),
		"socket":       p.Socket,
		"sessions_dir": dir,
	}).Info("Starting daemon")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received stop signal")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown error")
	}

	stopEngine()
	wg.Wait()
	logger.Info("Daemon stopped")
	return runErr
}

// sinkChain orders the delivery sinks: desktop first when available, then
// the terminal bell.
func sinkChain(cfg *config.Config, runner *command.Runner) []notifier.Sink {
	var chain []notifier.Sink
	if cfg.DesktopEnabled() {
		if desktop := notifier.NewDesktopSink(runner); desktop.Available() {
			chain = append(chain, desktop)
		}
	}
	if cfg.BellEnabled() {
		chain = append(chain, notifier.NewBellSink(os.Stderr))
	}
	return chain
}

func runningConfig(cfg *config.Config, dir string, startedAt time.Time) *models.RunningConfig {
	return &models.RunningConfig{
		PID:                 os.Getpid(),
		SessionsDir:         dir,
		StaleTimeout:        cfg.StaleTimeout.Std(),
		Debounce:            cfg.Watcher.Debounce.Std(),
		PollInterval:        cfg.Watcher.PollInterval.Std(),
		SweepInterval:       cfg.Store.SweepInterval.Std(),
		NotifyOnStateChange: cfg.NotifyEnabled(),
		DisplayFormat:       cfg.DisplayFormat,
		StartedAt:           startedAt,
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				pretty.InfoPretty("Daemon is not running")
				return nil
			}

			proc, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}
			if err := proc.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			pretty.Success(fmt.Sprintf("Sent SIGTERM to process %d", pid))
			return nil
		},
	}
}

// daemonStatus is the JSON form of `runner daemon status`.
type daemonStatus struct {
	Running bool          `json:"running"`
	PID     int           `json:"pid,omitempty"`
	Socket  string        `json:"socket"`
	Uptime  time.Duration `json:"uptime,omitempty"`
	RSS     uint64        `json:"rss,omitempty"`
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			status := daemonStatus{Running: running, PID: pid, Socket: paths.SocketPath()}
			if running {
				if info, err := process.Describe(pid); err == nil {
					status.Uptime = info.Uptime(time.Now()).Round(time.Second)
					status.RSS = info.RSS
				}
			}

			if cli.GetOptions(cmd).JSONOutput {
				if err := writeJSON(out, status); err != nil {
					return err
				}
			} else if running {
				pretty := logging.NewPrettyLogger().WithWriter(out)
				pretty.Success("Running")
				pretty.Field("PID", pid)
				pretty.Field("Socket", status.Socket)
				if status.Uptime > 0 {
					pretty.Field("Uptime", status.Uptime)
				}
				if status.RSS > 0 {
					pretty.Field("Memory", fmt.Sprintf("%.1f MiB", float64(status.RSS)/(1<<20)))
				}
			} else {
				logging.NewPrettyLogger().WithWriter(out).WarnPretty("Stopped")
			}

			if !running {
				os.Exit(1)
			}
			return nil
		},
	}
}
