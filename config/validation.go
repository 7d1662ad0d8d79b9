package config

import (
	"fmt"

	"github.com/moby/patternmatcher"

	"github.com/grovetools/runner/errors"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	durations := []struct {
		name  string
		value Duration
	}{
		{"stale_timeout", c.StaleTimeout},
		{"watcher.debounce", c.Watcher.Debounce},
		{"watcher.poll_interval", c.Watcher.PollInterval},
		{"store.sweep_interval", c.Store.SweepInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return errors.ConfigInvalid(fmt.Sprintf("%s must be positive, got %s", d.name, d.value)).
				WithDetail("field", d.name)
		}
	}

	if !c.DisplayFormat.Valid() {
		return errors.ConfigInvalid(fmt.Sprintf("unknown display_format %q", c.DisplayFormat)).
			WithDetail("field", "display_format")
	}

	if _, err := patternmatcher.New(c.Store.Ignore); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid store.ignore pattern").
			WithDetail("field", "store.ignore")
	}
	return nil
}
