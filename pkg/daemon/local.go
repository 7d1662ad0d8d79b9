package daemon

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/runner/errors"
	"github.com/grovetools/runner/internal/daemon/store"
	"github.com/grovetools/runner/pkg/models"
)

// LocalOptions configures the in-process fallback.
type LocalOptions struct {
	Dir            string
	StaleThreshold time.Duration
	Ignore         []string
	// Focuser handles Focus. Without one Focus reports FOCUS_UNSUPPORTED.
	Focuser Focuser
	Logger  *logrus.Entry
}

// LocalClient implements Client by reading the sessions directory directly.
// Every read performs a one-shot reload, including stale pruning, so the
// result matches what a running daemon would report.
type LocalClient struct {
	opts LocalOptions
}

// NewLocalClient creates a new LocalClient.
func NewLocalClient(opts LocalOptions) *LocalClient {
	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		opts.Logger = logrus.NewEntry(logger).WithField("component", "local-client")
	}
	return &LocalClient{opts: opts}
}

func (c *LocalClient) load() (models.Snapshot, error) {
	st, err := store.New(store.Options{
		Dir:            c.opts.Dir,
		StaleThreshold: c.opts.StaleThreshold,
		Ignore:         c.opts.Ignore,
		Logger:         c.opts.Logger,
	})
	if err != nil {
		return models.Snapshot{}, err
	}
	defer st.Close()
	return st.Current(), nil
}

// GetState scans the sessions directory.
func (c *LocalClient) GetState(ctx context.Context) (models.Snapshot, error) {
	return c.load()
}

// GetSessions scans the sessions directory and returns the ordered entries.
func (c *LocalClient) GetSessions(ctx context.Context) ([]models.SessionEntry, error) {
	snap, err := c.load()
	if err != nil {
		return nil, err
	}
	return snap.Entries, nil
}

// GetConfig returns an error for LocalClient since config is only available via daemon.
func (c *LocalClient) GetConfig(ctx context.Context) (*models.RunningConfig, error) {
	return nil, errors.New(errors.ErrCodeDaemonNotRunning, "config not available in local mode; start the daemon to view running config")
}

// Reload is GetState; every local read is a fresh scan.
func (c *LocalClient) Reload(ctx context.Context) (models.Snapshot, error) {
	return c.load()
}

// StreamState returns an error for LocalClient since streaming is only available via daemon.
func (c *LocalClient) StreamState(ctx context.Context) (<-chan models.Snapshot, error) {
	return nil, errors.New(errors.ErrCodeDaemonNotRunning, "streaming not available in local mode; start the daemon for real-time updates")
}

// Alerts returns an error for LocalClient since alerts come from the daemon's notifier.
func (c *LocalClient) Alerts(ctx context.Context) (<-chan models.Alert, error) {
	return nil, errors.New(errors.ErrCodeDaemonNotRunning, "alerts not available in local mode; start the daemon to receive them")
}

// Focus looks the session up in a fresh scan and focuses it in-process.
func (c *LocalClient) Focus(ctx context.Context, id string) error {
	snap, err := c.load()
	if err != nil {
		return err
	}
	entry, ok := models.FindByID(snap.Entries, id)
	if !ok {
		return errors.SessionNotFound(id)
	}
	if c.opts.Focuser == nil {
		return errors.FocusUnsupported(id, entry.TerminalBundleID)
	}
	return c.opts.Focuser.Focus(ctx, entry)
}

// IsRunning returns false since this is the local fallback client.
func (c *LocalClient) IsRunning() bool {
	return false
}

// Close is a no-op for LocalClient.
func (c *LocalClient) Close() error {
	return nil
}

// Ensure LocalClient implements Client interface.
var _ Client = (*LocalClient)(nil)
