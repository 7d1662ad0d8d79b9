// Package engine wires the daemon's collectors, store and notifier together.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/runner/internal/daemon/collector"
	"github.com/grovetools/runner/internal/daemon/notifier"
	"github.com/grovetools/runner/internal/daemon/store"
	"github.com/grovetools/runner/pkg/models"
)

// Engine runs all collectors and a single reload worker that serves their
// triggers. Changed snapshots are handed to the dispatcher.
type Engine struct {
	store      *store.Store
	dispatcher *notifier.Dispatcher
	collectors []collector.Collector
	logger     *logrus.Entry
}

// New creates a new Engine instance. dispatcher may be nil.
func New(st *store.Store, dispatcher *notifier.Dispatcher, logger *logrus.Entry) *Engine {
	return &Engine{
		store:      st,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Register adds a collector to the engine.
func (e *Engine) Register(c collector.Collector) {
	e.collectors = append(e.collectors, c)
}

// Start runs until ctx is canceled. On shutdown collectors stop first (which
// stops the directory watcher), then the reload worker and dispatcher.
func (e *Engine) Start(ctx context.Context) {
	triggers := make(chan store.Trigger, 1)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var workers sync.WaitGroup

	// 1. Reload worker: one reload at a time, pending triggers coalesce.
	workers.Add(1)
	go func() {
		defer workers.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case t := <-triggers:
				e.logger.WithFields(logrus.Fields{
					"source": t.Source,
					"lag":    time.Since(t.At),
				}).Trace("Reloading sessions")
				e.store.Reload()
			}
		}
	}()

	// 2. Dispatcher fed by store subscription.
	var sub chan models.Snapshot
	if e.dispatcher != nil {
		sub = e.store.Subscribe()
		workers.Add(1)
		go func() {
			defer workers.Done()
			for snap := range sub {
				e.dispatcher.Observe(workerCtx, snap)
			}
		}()
	}

	// 3. Collectors.
	var collectors sync.WaitGroup
	for _, c := range e.collectors {
		collectors.Add(1)
		go func(col collector.Collector) {
			defer collectors.Done()
			e.logger.WithField("collector", col.Name()).Info("Starting collector")
			if err := col.Run(ctx, triggers); err != nil {
				e.logger.WithField("collector", col.Name()).WithError(err).Error("Collector failed")
			}
		}(c)
	}

	<-ctx.Done()
	collectors.Wait()

	stopWorkers()
	if sub != nil {
		e.store.Unsubscribe(sub)
	}
	workers.Wait()
	e.logger.Info("Engine stopped")
}

// Store returns the engine's state store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Dispatcher returns the engine's alert dispatcher, which may be nil.
func (e *Engine) Dispatcher() *notifier.Dispatcher {
	return e.dispatcher
}
