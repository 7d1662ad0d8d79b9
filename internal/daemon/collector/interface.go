// Package collector provides background workers that decide when the daemon
// should re-read the sessions directory.
package collector

import (
	"context"

	"github.com/grovetools/runner/internal/daemon/store"
)

// Collector is a background worker that emits reload triggers.
type Collector interface {
	// Name returns the collector's name for logging.
	Name() string

	// Run blocks until ctx is canceled, emitting triggers as it sees fit.
	// It must not block on a full triggers channel.
	Run(ctx context.Context, triggers chan<- store.Trigger) error
}

// emit sends t unless a trigger is already pending.
func emit(triggers chan<- store.Trigger, t store.Trigger) {
	select {
	case triggers <- t:
	default:
	}
}
