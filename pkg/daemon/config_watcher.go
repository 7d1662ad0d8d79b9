package daemon

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/runner/config"
	"github.com/grovetools/runner/internal/daemon/watcher"
	"github.com/grovetools/runner/logging"
)

// ConfigWatcher reloads the runner config when files in its directory change
// and hands every changed, valid config to onReload.
type ConfigWatcher struct {
	dir      string
	watcher  *watcher.Watcher
	logger   *logrus.Entry
	onReload func(*config.Config)

	mu   sync.Mutex
	last *config.Config
}

// NewConfigWatcher watches dir. current is the config already in effect and
// is used to suppress no-op reloads.
func NewConfigWatcher(dir string, debounce time.Duration, current *config.Config, onReload func(*config.Config)) *ConfigWatcher {
	logger := logging.NewLogger("config-watcher")
	return &ConfigWatcher{
		dir: dir,
		watcher: watcher.New(watcher.Options{
			Dir:      dir,
			Debounce: debounce,
			Logger:   logger,
		}),
		logger:   logger,
		onReload: onReload,
		last:     current,
	}
}

// Start begins watching for config changes. It blocks until the context is cancelled.
func (w *ConfigWatcher) Start(ctx context.Context) {
	w.watcher.Start(w.reload)
	<-ctx.Done()
	w.watcher.Stop()
}

// Mode reports how the config directory is being observed.
func (w *ConfigWatcher) Mode() watcher.Mode {
	return w.watcher.Mode()
}

func (w *ConfigWatcher) reload() {
	cfg, err := config.LoadFrom(w.dir)
	if err != nil {
		w.logger.WithError(err).Warn("Ignoring invalid config change")
		return
	}

	w.mu.Lock()
	unchanged := w.last != nil && reflect.DeepEqual(w.last, cfg)
	if !unchanged {
		w.last = cfg
	}
	w.mu.Unlock()
	if unchanged {
		return
	}

	w.logger.WithField("path", cfg.Path()).Info("Config changed")
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
