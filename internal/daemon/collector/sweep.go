package collector

import (
	"context"
	"time"

	"github.com/grovetools/runner/internal/daemon/store"
)

// DefaultSweepInterval catches sessions whose process vanished without a final write.
const DefaultSweepInterval = 5 * time.Second

// SweepCollector triggers a reload on a fixed interval so staleness is
// re-evaluated even when nothing touches the directory.
type SweepCollector struct {
	interval time.Duration
}

// NewSweepCollector creates a SweepCollector.
func NewSweepCollector(interval time.Duration) *SweepCollector {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SweepCollector{interval: interval}
}

// Name returns the collector's name.
func (c *SweepCollector) Name() string { return "sweep" }

// Run starts the sweep loop.
func (c *SweepCollector) Run(ctx context.Context, triggers chan<- store.Trigger) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			emit(triggers, store.Trigger{Source: store.TriggerSweep, At: now})
		}
	}
}
