package store

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/runner/logging"
	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/pkg/sessions"
)

// Store is the single source of truth for which sessions exist. Every reload
// rebuilds the snapshot from the directory contents. It is safe for concurrent
// use; reloads are serialized and each publishes one complete snapshot.
type Store struct {
	dir       string
	threshold time.Duration
	scanner   *sessions.Scanner
	now       func() time.Time
	logger    *logrus.Entry

	reloadMu sync.Mutex

	mu          sync.RWMutex
	current     models.Snapshot
	seq         uint64
	published   bool
	subscribers map[chan models.Snapshot]struct{}
}

// New creates the sessions directory if needed and, unless
// opts.SkipInitialLoad is set, performs the first reload.
func New(opts Options) (*Store, error) {
	if opts.StaleThreshold <= 0 {
		opts.StaleThreshold = DefaultStaleThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger("store")
	}

	scanner, err := sessions.NewScanner(opts.Dir, opts.Ignore)
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:         opts.Dir,
		threshold:   opts.StaleThreshold,
		scanner:     scanner,
		now:         opts.Now,
		logger:      opts.Logger,
		current:     models.NewSnapshot(nil, 0, opts.Now()),
		subscribers: make(map[chan models.Snapshot]struct{}),
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		s.logger.WithError(err).WithField("dir", opts.Dir).Warn("Cannot create sessions directory")
	}

	if !opts.SkipInitialLoad {
		s.Reload()
	}
	return s, nil
}

// Dir returns the sessions directory.
func (s *Store) Dir() string {
	return s.dir
}

// StaleThreshold returns the configured pruning age.
func (s *Store) StaleThreshold() time.Duration {
	return s.threshold
}

// Current returns the latest published snapshot.
func (s *Store) Current() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-reads the directory, prunes stale waiting sessions, and publishes
// the result. Concurrent calls run one at a time.
func (s *Store) Reload() models.Snapshot {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	now := s.now()
	entries := s.scan(now)
	return s.publish(entries, now)
}

func (s *Store) scan(now time.Time) []models.SessionEntry {
	files, err := s.scanner.List()
	if err != nil {
		s.logger.WithError(err).WithField("dir", s.dir).Debug("Cannot list sessions directory")
		return nil
	}

	entries := make([]models.SessionEntry, 0, len(files))
	for _, path := range files {
		entry, err := sessions.Load(path)
		if err != nil {
			s.logger.WithError(err).WithField("file", path).Warn("Skipping session file")
			continue
		}

		if s.isStale(entry, now) {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.logger.WithError(err).WithField("file", path).Warn("Failed to remove stale session file")
			} else {
				s.logger.WithField("session", entry.ID).Info("Pruned stale waiting session")
			}
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// isStale reports whether entry should be pruned. Only waiting sessions age out.
func (s *Store) isStale(entry models.SessionEntry, now time.Time) bool {
	return entry.State == models.StateWaiting && entry.Age(now) > s.threshold
}

func (s *Store) publish(entries []models.SessionEntry, now time.Time) models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	snap := models.NewSnapshot(entries, s.seq, now)
	changed := !s.published || snap.Digest != s.current.Digest
	s.current = snap
	s.published = true

	if changed {
		s.logger.WithFields(logrus.Fields{
			"sessions":   len(snap.Entries),
			"active":     snap.Counts.Active,
			"waiting":    snap.Counts.Waiting,
			"permission": snap.Counts.Permission,
		}).Debug("Published snapshot")
		for ch := range s.subscribers {
			offer(ch, snap)
		}
	}
	return snap
}

// Subscribe returns a channel that receives every changed snapshot, starting
// with the current one. A slow subscriber only ever sees the latest snapshot.
func (s *Store) Subscribe() chan models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan models.Snapshot, 1)
	ch <- s.current
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}

// Close unsubscribes everyone.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// offer replaces any undelivered snapshot in ch with snap.
func offer(ch chan models.Snapshot, snap models.Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
