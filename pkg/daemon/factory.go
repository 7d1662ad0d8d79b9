package daemon

import (
	"net"
	"os"
	"time"

	"github.com/grovetools/runner/errors"
	"github.com/grovetools/runner/pkg/paths"
)

const dialTimeout = 100 * time.Millisecond

// New returns a Client that will use the daemon if available,
// otherwise falls back to LocalClient.
//
// Callers don't need to know whether the daemon is running or not. The same
// API works in both modes.
func New(local LocalOptions) Client {
	return NewWithSocket(paths.SocketPath(), local)
}

// NewWithSocket is New for an explicit socket path.
func NewWithSocket(socketPath string, local LocalOptions) Client {
	if client, err := Connect(socketPath); err == nil {
		return client
	}
	return NewLocalClient(local)
}

// Connect returns a RemoteClient when a daemon answers on socketPath.
func Connect(socketPath string) (*RemoteClient, error) {
	if _, err := os.Stat(socketPath); err != nil {
		return nil, errors.DaemonNotRunning(socketPath)
	}
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return nil, errors.DaemonNotRunning(socketPath).WithDetail("reason", err.Error())
	}
	conn.Close()
	return NewRemoteClient(socketPath)
}
