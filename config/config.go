// Package config loads runner.yml / runner.toml.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/runner/errors"
	"github.com/grovetools/runner/pkg/paths"
	"github.com/grovetools/runner/util/pathutil"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// FileNames lists the config file names searched for, in order.
var FileNames = []string{"runner.yml", "runner.yaml", "runner.toml"}

// Format names a config file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf infers the syntax from a file extension. Anything that is not
// .toml is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	cfg, err := LoadFromBytes(data, FormatOf(path))
	if err != nil {
		if rerr, ok := err.(*errors.RunnerError); ok {
			return nil, rerr.WithDetail("path", path)
		}
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// LoadDefault loads the config from the user config directory, falling back
// to defaults when no file exists.
func LoadDefault() (*Config, error) {
	return LoadFrom(paths.ConfigDir())
}

// LoadFrom loads the first of FileNames found in dir. A directory without a
// config file yields the defaults.
func LoadFrom(dir string) (*Config, error) {
	path, err := FindConfigFile(dir)
	if err != nil {
		if errors.Is(err, errors.ErrCodeConfigNotFound) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(path)
}

// LoadFromBytes parses, defaults and validates a config document.
func LoadFromBytes(data []byte, format Format) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	if format == FormatTOML {
		// TOML has no inline maps, so the document is normalized to YAML and
		// decoded once.
		var raw map[string]interface{}
		if err := toml.Unmarshal(expanded, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
		converted, err := yaml.Marshal(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to normalize TOML configuration")
		}
		expanded = converted
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	cfg.SetDefaults()
	if cfg.SessionsDir != "" {
		expandedDir, err := pathutil.Expand(cfg.SessionsDir)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid sessions_dir")
		}
		cfg.SessionsDir = expandedDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindConfigFile returns the first of FileNames present in dir.
func FindConfigFile(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.ConfigNotFound(dir).WithDetail("searchPath", dir)
}

// ResolveSessionsDir returns the configured sessions directory, or the
// platform default.
func (c *Config) ResolveSessionsDir() string {
	if c.SessionsDir != "" {
		return c.SessionsDir
	}
	return paths.SessionsDir()
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}
