package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/runner/logging"
	"github.com/grovetools/runner/pkg/models"
)

const deliveryTimeout = 5 * time.Second

// Options configures a Dispatcher.
type Options struct {
	// Enabled gates delivery. Counts are tracked either way.
	Enabled bool
	// Chain is tried in order until one sink succeeds.
	Chain []Sink
	// Always receives every alert regardless of the chain's outcome.
	Always []Sink
	Logger *logrus.Entry
}

// Dispatcher retains the counts seen last and delivers alerts for each new
// snapshot. The first snapshot is compared against zero counts.
type Dispatcher struct {
	logger *logrus.Entry

	mu       sync.Mutex
	previous models.StateCounts
	enabled  bool
	chain    []Sink
	always   []Sink

	subsMu      sync.Mutex
	subscribers map[chan models.Alert]struct{}
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger("notifier")
	}
	return &Dispatcher{
		logger:      opts.Logger,
		enabled:     opts.Enabled,
		chain:       opts.Chain,
		always:      opts.Always,
		subscribers: make(map[chan models.Alert]struct{}),
	}
}

// SetEnabled toggles delivery.
func (d *Dispatcher) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// SetChain replaces the delivery chain.
func (d *Dispatcher) SetChain(chain []Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chain = chain
}

// Enabled reports whether alerts are delivered.
func (d *Dispatcher) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// Previous returns the counts of the last observed snapshot.
func (d *Dispatcher) Previous() models.StateCounts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.previous
}

// Observe evaluates snap against the previous counts, records its counts, and
// delivers any resulting alert. It returns the alert when one was delivered.
func (d *Dispatcher) Observe(ctx context.Context, snap models.Snapshot) (models.Alert, bool) {
	d.mu.Lock()
	old := d.previous
	d.previous = snap.Counts
	enabled := d.enabled
	chain := d.chain
	always := d.always
	d.mu.Unlock()

	alert, ok := Evaluate(old, snap.Counts, snap.Entries)
	if !ok {
		return models.Alert{}, false
	}
	if !enabled {
		d.logger.WithField("kind", alert.Kind).Debug("Notifications disabled, dropping alert")
		return models.Alert{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	for _, sink := range chain {
		err := sink.Deliver(ctx, alert)
		if err == nil {
			break
		}
		d.logger.WithError(err).WithField("sink", sink.Name()).Debug("Alert delivery failed, trying next sink")
	}
	for _, sink := range always {
		if err := sink.Deliver(ctx, alert); err != nil {
			d.logger.WithError(err).WithField("sink", sink.Name()).Warn("Alert delivery failed")
		}
	}

	d.broadcast(alert)
	return alert, true
}

// Subscribe returns a channel receiving every delivered alert.
func (d *Dispatcher) Subscribe() chan models.Alert {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	ch := make(chan models.Alert, 16)
	d.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (d *Dispatcher) Unsubscribe(ch chan models.Alert) {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	if _, ok := d.subscribers[ch]; !ok {
		return
	}
	delete(d.subscribers, ch)
	close(ch)
}

// Close unsubscribes everyone.
func (d *Dispatcher) Close() {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	for ch := range d.subscribers {
		delete(d.subscribers, ch)
		close(ch)
	}
}

func (d *Dispatcher) broadcast(alert models.Alert) {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	for ch := range d.subscribers {
		select {
		case ch <- alert:
		default:
			// Non-blocking send to prevent slow clients from stalling the daemon
		}
	}
}
