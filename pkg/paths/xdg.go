// Package paths resolves the runner's directories.
//
// Resolution order:
// 1. RUNNER_HOME (portable root) → $RUNNER_HOME/{config,data,state,cache,run}
// 2. XDG env vars → $XDG_*_HOME/runner
// 3. Platform defaults → ~/.config/runner, ~/.local/share/runner, etc.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "runner"

// base resolves one XDG base directory. portable is the subdirectory used under
// RUNNER_HOME, fallback is the path under the user's home.
func base(portable, xdgVar string, fallback ...string) string {
	if home := os.Getenv("RUNNER_HOME"); home != "" {
		return filepath.Join(home, portable)
	}
	if dir := os.Getenv(xdgVar); dir != "" {
		return filepath.Join(dir, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append(append([]string{homeDir}, fallback...), appName)...)
	}
	return ""
}

// ConfigDir holds runner.yml / runner.toml.
func ConfigDir() string {
	return base("config", "XDG_CONFIG_HOME", ".config")
}

// DataDir holds the session directory.
func DataDir() string {
	return base("data", "XDG_DATA_HOME", ".local", "share")
}

// StateDir holds the pid file and daemon log.
func StateDir() string {
	return base("state", "XDG_STATE_HOME", ".local", "state")
}

// CacheDir returns the runner cache directory.
func CacheDir() string {
	return base("cache", "XDG_CACHE_HOME", ".cache")
}

// RuntimeDir returns the directory for the daemon socket.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir (macOS).
func RuntimeDir() string {
	if home := os.Getenv("RUNNER_HOME"); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return StateDir()
}

// SessionsDir is the default directory hook processes write session files to.
// RUNNER_SESSIONS_DIR overrides it.
func SessionsDir() string {
	if dir := os.Getenv("RUNNER_SESSIONS_DIR"); dir != "" {
		return dir
	}
	data := DataDir()
	if data == "" {
		return ""
	}
	return filepath.Join(data, "sessions")
}

// SocketPath returns the path to the daemon unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "runnerd.sock")
}

// PidFilePath returns the path to the daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "runnerd.pid")
}

// DaemonLogPath returns the daemon's log file.
func DaemonLogPath() string {
	return filepath.Join(StateDir(), "runnerd.log")
}

// EnsureDirs creates all runner directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), DataDir(), StateDir(), CacheDir(), RuntimeDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
