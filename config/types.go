package config

import (
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/runner/pkg/models"
)

const (
	DefaultStaleTimeout  = 10 * time.Minute
	DefaultDebounce      = 100 * time.Millisecond
	DefaultPollInterval  = 2 * time.Second
	DefaultSweepInterval = 5 * time.Second
)

// Duration is a time.Duration written as a Go duration string ("10m").
// Bare integers are read as seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML accepts "90s"-style strings and integer seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	if node.Tag == "!!int" {
		var secs int64
		if err := node.Decode(&secs); err != nil {
			return err
		}
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	return d.UnmarshalText([]byte(node.Value))
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// MarshalText renders the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// JSONSchema describes durations in generated schemas.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string", Pattern: `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`},
			{Type: "integer", Minimum: "1"},
		},
		Description: "Go duration string such as 100ms or 10m, or whole seconds",
	}
}

// WatcherConfig tunes directory watching.
type WatcherConfig struct {
	Debounce     Duration `yaml:"debounce,omitempty" jsonschema:"description=Quiet period before a burst of file events triggers a reload (default 100ms)"`
	PollInterval Duration `yaml:"poll_interval,omitempty" jsonschema:"description=Rescan period when native file events are unavailable (default 2s)"`
}

// StoreConfig tunes the session store.
type StoreConfig struct {
	SweepInterval Duration `yaml:"sweep_interval,omitempty" jsonschema:"description=Period of the stale-session sweep (default 5s)"`
	Ignore        []string `yaml:"ignore,omitempty" jsonschema:"description=Gitignore-style patterns for files in the sessions directory that are never sessions"`
}

// NotifyConfig selects alert delivery sinks.
type NotifyConfig struct {
	Desktop *bool `yaml:"desktop,omitempty" jsonschema:"description=Deliver alerts as desktop notifications when a notifier is available (default true)"`
	Bell    *bool `yaml:"bell,omitempty" jsonschema:"description=Ring the terminal bell when no desktop notifier succeeds (default true)"`
}

// Config is the runner configuration file.
type Config struct {
	SessionsDir         string               `yaml:"sessions_dir,omitempty" jsonschema:"description=Directory holding one JSON file per agent session"`
	StaleTimeout        Duration             `yaml:"stale_timeout,omitempty" jsonschema:"description=Age after which a waiting session is pruned (default 10m)"`
	NotifyOnStateChange *bool                `yaml:"notify_on_state_change,omitempty" jsonschema:"description=Raise alerts when sessions start needing attention (default true)"`
	DisplayFormat       models.DisplayFormat `yaml:"display_format,omitempty" jsonschema:"enum=full_path,enum=directory_only,enum=last_two_dirs,description=How session paths are rendered"`
	Watcher             WatcherConfig        `yaml:"watcher,omitempty" jsonschema:"description=Directory watcher settings"`
	Store               StoreConfig          `yaml:"store,omitempty" jsonschema:"description=Session store settings"`
	Notify              NotifyConfig         `yaml:"notify,omitempty" jsonschema:"description=Alert delivery settings"`

	// Extensions captures all other top-level keys, such as logging.
	Extensions map[string]interface{} `yaml:",inline" jsonschema:"-"`

	// path is the file the config was read from, empty for defaults.
	path string
}

// Path returns the file this config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Default returns a config with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.StaleTimeout == 0 {
		c.StaleTimeout = Duration(DefaultStaleTimeout)
	}
	if c.NotifyOnStateChange == nil {
		c.NotifyOnStateChange = boolPtr(true)
	}
	if c.DisplayFormat == "" {
		c.DisplayFormat = models.DisplayFullPath
	}
	if c.Watcher.Debounce == 0 {
		c.Watcher.Debounce = Duration(DefaultDebounce)
	}
	if c.Watcher.PollInterval == 0 {
		c.Watcher.PollInterval = Duration(DefaultPollInterval)
	}
	if c.Store.SweepInterval == 0 {
		c.Store.SweepInterval = Duration(DefaultSweepInterval)
	}
	if c.Notify.Desktop == nil {
		c.Notify.Desktop = boolPtr(true)
	}
	if c.Notify.Bell == nil {
		c.Notify.Bell = boolPtr(true)
	}
}

// NotifyEnabled reports notify_on_state_change.
func (c *Config) NotifyEnabled() bool {
	return c.NotifyOnStateChange == nil || *c.NotifyOnStateChange
}

// DesktopEnabled reports notify.desktop.
func (c *Config) DesktopEnabled() bool {
	return c.Notify.Desktop == nil || *c.Notify.Desktop
}

// BellEnabled reports notify.bell.
func (c *Config) BellEnabled() bool {
	return c.Notify.Bell == nil || *c.Notify.Bell
}

// UnmarshalExtension decodes the extension section key into target.
// A missing key leaves target untouched.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}
	return nil
}

func boolPtr(b bool) *bool {
	return &b
}
