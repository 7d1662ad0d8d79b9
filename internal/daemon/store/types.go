// Package store holds the daemon's view of the sessions directory.
package store

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultStaleThreshold = 600 * time.Second
)

// TriggerSource names what asked for a reload.
type TriggerSource string

const (
	TriggerWatcher TriggerSource = "watcher"
	TriggerSweep   TriggerSource = "sweep"
)

// Trigger is a request to re-read the sessions directory. At is when the
// collector noticed the change; the worker logs how long it waited.
type Trigger struct {
	Source TriggerSource
	At     time.Time
}

// Options configures a Store.
type Options struct {
	// Dir is the sessions directory. It is created if missing.
	Dir string
	// StaleThreshold is the age after which a waiting session is pruned.
	StaleThreshold time.Duration
	// Ignore holds gitignore-style patterns for files that are never sessions.
	Ignore []string
	// SkipInitialLoad suppresses the reload New performs by default.
	SkipInitialLoad bool
	// Now overrides the clock.
	Now    func() time.Time
	Logger *logrus.Entry
}
