// Package watcher signals when a directory's contents may have changed.
//
// It prefers native filesystem notifications and collapses bursts of events
// with a debounce timer. When a native watch cannot be established it polls
// on a fixed interval instead, firing on every tick. Removing or renaming
// the watched directory itself also moves a running watcher to polling.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/runner/logging"
)

const (
	DefaultDebounce     = 100 * time.Millisecond
	DefaultPollInterval = 2 * time.Second
)

// Mode reports how a watcher is observing its directory.
type Mode string

const (
	ModeStopped Mode = "stopped"
	ModeNative  Mode = "native"
	ModePolling Mode = "polling"
)

// Options configures a Watcher.
type Options struct {
	Dir          string
	Debounce     time.Duration
	PollInterval time.Duration
	Logger       *logrus.Entry
}

// Watcher invokes a callback after changes to a directory.
type Watcher struct {
	dir          string
	debounce     time.Duration
	pollInterval time.Duration
	logger       *logrus.Entry

	mu      sync.Mutex
	mode    Mode
	fsw     *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	signals chan struct{}
}

// New creates a stopped watcher. It never fails; problems with the directory
// surface at Start as a fallback to polling.
func New(opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger("watcher")
	}
	return &Watcher{
		dir:          opts.Dir,
		debounce:     opts.Debounce,
		pollInterval: opts.PollInterval,
		logger:       opts.Logger,
		mode:         ModeStopped,
	}
}

// Mode returns the current observation mode.
func (w *Watcher) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// Start begins observing the directory. onChange runs on the watcher's own
// goroutine and must not call Stop. Starting a running watcher is a no-op.
func (w *Watcher) Start(onChange func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mode != ModeStopped {
		return
	}

	w.done = make(chan struct{})
	w.signals = make(chan struct{}, 64)

	fsw, err := w.openNative()
	if err != nil {
		w.logger.WithError(err).WithField("dir", w.dir).
			Warnf("Native watch unavailable, polling every %s", w.pollInterval)
		w.mode = ModePolling
		w.wg.Add(1)
		go w.pollLoop(onChange, w.done)
		return
	}

	w.fsw = fsw
	w.mode = ModeNative
	w.logger.WithField("dir", w.dir).Debug("Watching directory")
	w.wg.Add(1)
	go w.nativeLoop(onChange, fsw, w.done, w.signals)
}

func (w *Watcher) openNative() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return fsw, nil
}

// Stop cancels observation and any pending callback. When Stop returns no
// further callback will run. It is safe to call at any time, any number of times.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.mode == ModeStopped {
		w.mu.Unlock()
		return
	}
	close(w.done)
	fsw := w.fsw
	w.fsw = nil
	w.mode = ModeStopped
	w.mu.Unlock()

	w.wg.Wait()
	if fsw != nil {
		fsw.Close()
	}
}

// trigger feeds a synthetic change event into the debounce path.
func (w *Watcher) trigger() {
	w.mu.Lock()
	signals := w.signals
	running := w.mode == ModeNative
	w.mu.Unlock()
	if !running {
		return
	}
	select {
	case signals <- struct{}{}:
	default:
	}
}

func (w *Watcher) nativeLoop(onChange func(), fsw *fsnotify.Watcher, done <-chan struct{}, signals <-chan struct{}) {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			if w.isDirGone(event) {
				w.logger.WithField("dir", w.dir).
					Warnf("Watched directory removed, polling every %s", w.pollInterval)
				if w.switchToPolling() {
					fsw.Close()
					onChange()
					w.poll(onChange, done)
				}
				return
			}
			timer.Reset(w.debounce)
		case <-signals:
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Watcher error")
		case <-timer.C:
			select {
			case <-done:
				return
			default:
			}
			onChange()
		}
	}
}

// isDirGone reports whether event removed or renamed the watched directory,
// after which fsnotify delivers nothing more for it.
func (w *Watcher) isDirGone(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.dir)
}

// switchToPolling hands the native watch over to the caller for closing.
// It returns false when Stop got there first.
func (w *Watcher) switchToPolling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode != ModeNative {
		return false
	}
	w.fsw = nil
	w.mode = ModePolling
	return true
}

func (w *Watcher) pollLoop(onChange func(), done <-chan struct{}) {
	defer w.wg.Done()
	w.poll(onChange, done)
}

func (w *Watcher) poll(onChange func(), done <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			select {
			case <-done:
				return
			default:
			}
			onChange()
		}
	}
}
