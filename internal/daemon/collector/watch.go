package collector

import (
	"context"
	"time"

	"github.com/grovetools/runner/internal/daemon/store"
	"github.com/grovetools/runner/internal/daemon/watcher"
)

// WatchCollector turns directory change notifications into reload triggers.
type WatchCollector struct {
	watcher *watcher.Watcher
}

// NewWatchCollector wraps w. The collector owns starting and stopping it.
func NewWatchCollector(w *watcher.Watcher) *WatchCollector {
	return &WatchCollector{watcher: w}
}

// Name returns the collector's name.
func (c *WatchCollector) Name() string { return "watch" }

// Run starts the watcher and stops it once ctx is canceled.
func (c *WatchCollector) Run(ctx context.Context, triggers chan<- store.Trigger) error {
	c.watcher.Start(func() {
		emit(triggers, store.Trigger{Source: store.TriggerWatcher, At: time.Now()})
	})
	<-ctx.Done()
	c.watcher.Stop()
	return nil
}

// Mode reports the wrapped watcher's mode.
func (c *WatchCollector) Mode() watcher.Mode {
	return c.watcher.Mode()
}
