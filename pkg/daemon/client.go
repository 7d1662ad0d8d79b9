// Package daemon provides a client interface for interacting with the runner
// daemon. It implements a transparent fallback pattern: if the daemon is
// running, use its HTTP API; if not, read the sessions directory in-process.
package daemon

import (
	"context"

	"github.com/grovetools/runner/pkg/models"
)

// Client defines the interface for interacting with the runner daemon.
// Both RemoteClient (HTTP) and LocalClient (direct calls) implement this interface.
type Client interface {
	// GetState returns the current snapshot.
	GetState(ctx context.Context) (models.Snapshot, error)

	// GetSessions returns the ordered session entries.
	GetSessions(ctx context.Context) ([]models.SessionEntry, error)

	// GetConfig returns the daemon's running configuration.
	GetConfig(ctx context.Context) (*models.RunningConfig, error)

	// Reload rescans the sessions directory and returns the fresh snapshot.
	Reload(ctx context.Context) (models.Snapshot, error)

	// StreamState delivers every changed snapshot, starting with the current
	// one. The channel closes when ctx ends or the connection drops.
	StreamState(ctx context.Context) (<-chan models.Snapshot, error)

	// Alerts delivers alerts as the daemon raises them.
	Alerts(ctx context.Context) (<-chan models.Alert, error)

	// Focus brings the terminal of session id to the foreground.
	Focus(ctx context.Context, id string) error

	// IsRunning returns true if the daemon is available and responding.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}

// Focuser brings a session's terminal to the foreground.
type Focuser interface {
	Focus(ctx context.Context, entry models.SessionEntry) error
}
