package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/runner/errors"
	"github.com/grovetools/runner/pkg/models"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultStaleTimeout, cfg.StaleTimeout.Std())
	assert.Equal(t, DefaultDebounce, cfg.Watcher.Debounce.Std())
	assert.Equal(t, DefaultPollInterval, cfg.Watcher.PollInterval.Std())
	assert.Equal(t, DefaultSweepInterval, cfg.Store.SweepInterval.Std())
	assert.Equal(t, models.DisplayFullPath, cfg.DisplayFormat)
	assert.True(t, cfg.NotifyEnabled())
	assert.True(t, cfg.DesktopEnabled())
	assert.True(t, cfg.BellEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("RUNNER_TEST_DIR", "/srv/sessions")
	data := []byte(`
sessions_dir: ${RUNNER_TEST_DIR}
stale_timeout: 90
notify_on_state_change: false
display_format: last_two_dirs
watcher:
  debounce: 250ms
store:
  ignore: ["*.tmp.json", "archive"]
notify:
  bell: false
logging:
  level: debug
  file:
    enabled: true
`)
	cfg, err := LoadFromBytes(data, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "/srv/sessions", cfg.SessionsDir)
	assert.Equal(t, 90*time.Second, cfg.StaleTimeout.Std())
	assert.False(t, cfg.NotifyEnabled())
	assert.Equal(t, models.DisplayLastTwoDirs, cfg.DisplayFormat)
	assert.Equal(t, 250*time.Millisecond, cfg.Watcher.Debounce.Std())
	assert.Equal(t, DefaultPollInterval, cfg.Watcher.PollInterval.Std())
	assert.Equal(t, []string{"*.tmp.json", "archive"}, cfg.Store.Ignore)
	assert.True(t, cfg.DesktopEnabled())
	assert.False(t, cfg.BellEnabled())

	type fileCfg struct {
		Enabled bool `yaml:"enabled"`
	}
	var logging struct {
		Level string  `yaml:"level"`
		File  fileCfg `yaml:"file"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logging))
	assert.Equal(t, "debug", logging.Level)
	assert.True(t, logging.File.Enabled)

	var missing struct{ Level string }
	require.NoError(t, cfg.UnmarshalExtension("absent", &missing))
	assert.Empty(t, missing.Level)
}

func TestLoadTOML(t *testing.T) {
	data := []byte(`
stale_timeout = "15m"
display_format = "directory_only"

[watcher]
poll_interval = 3

[logging]
level = "warn"
`)
	cfg, err := LoadFromBytes(data, FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.StaleTimeout.Std())
	assert.Equal(t, models.DisplayDirectoryOnly, cfg.DisplayFormat)
	assert.Equal(t, 3*time.Second, cfg.Watcher.PollInterval.Std())

	var logging struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logging))
	assert.Equal(t, "warn", logging.Level)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad display format", "display_format: tree"},
		{"negative debounce", "watcher:\n  debounce: -1s"},
		{"bad duration", "stale_timeout: soon"},
		{"bad ignore pattern", "store:\n  ignore: [\"[\"]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml), FormatYAML)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid), "got %v", err)
		})
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path())
	assert.Equal(t, DefaultStaleTimeout, cfg.StaleTimeout.Std())

	path := filepath.Join(dir, "runner.toml")
	require.NoError(t, os.WriteFile(path, []byte(`stale_timeout = "1m"`), 0644))
	cfg, err = LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, time.Minute, cfg.StaleTimeout.Std())

	// YAML takes precedence over TOML.
	yml := filepath.Join(dir, "runner.yml")
	require.NoError(t, os.WriteFile(yml, []byte("stale_timeout: 2m\n"), 0644))
	cfg, err = LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, yml, cfg.Path())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestLoadInvalidFileCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runner.yml")
	require.NoError(t, os.WriteFile(path, []byte("display_format: nope\n"), 0644))

	_, err := Load(path)
	var rerr *errors.RunnerError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, path, rerr.Details["path"])
}

func TestSessionsDirExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg, err := LoadFromBytes([]byte("sessions_dir: ~/agents\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "agents"), cfg.SessionsDir)
	assert.Equal(t, cfg.SessionsDir, cfg.ResolveSessionsDir())
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &schema))
	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "stale_timeout")
	assert.Contains(t, props, "watcher")
	assert.NotContains(t, props, "Extensions")
}
