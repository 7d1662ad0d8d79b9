package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/runner/config"
	"github.com/grovetools/runner/pkg/paths"
	"github.com/grovetools/runner/util/pathutil"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	var logCfg Config
	if cfg, err := config.LoadDefault(); err == nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}

	entry := newLogger(component, logCfg, os.Stderr)
	loggers[component] = entry
	return entry
}

// newLogger builds a logger from cfg. stderr is the terminal-facing sink.
func newLogger(component string, logCfg Config, stderr *os.File) *logrus.Entry {
	logger := logrus.New()

	levelStr := "info"
	if env := os.Getenv("RUNNER_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if logCfg.Level != "" {
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("RUNNER_LOG_CALLER") == "true" || logCfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	switch logCfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: logCfg.Format})
	}

	writers := []io.Writer{attached}

	if logCfg.File.Enabled {
		logFilePath := filepath.Join(paths.StateDir(), "runner.log")
		if logCfg.File.Path != "" {
			if expanded, err := pathutil.Expand(logCfg.File.Path); err == nil {
				logFilePath = expanded
			}
		}
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
			logger.Warnf("Failed to create log directory for %s: %v", logFilePath, err)
		} else if file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			logger.Warnf("Failed to open log file %s: %v", logFilePath, err)
		} else {
			writers = append(writers, file)
		}
	}

	if shouldLogToStderr(logCfg.Format.StructuredToStderr, logger, stderr) {
		writers = append(writers, stderr)
	}

	if len(writers) == 1 {
		logger.SetOutput(writers[0])
	} else {
		logger.SetOutput(io.MultiWriter(writers...))
	}

	return logger.WithField("component", component)
}

// shouldLogToStderr applies the structured_to_stderr mode. In "auto" mode
// logs reach stderr only when debugging or when stderr is not a terminal.
func shouldLogToStderr(mode string, logger *logrus.Logger, stderr *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		isDebug := os.Getenv("RUNNER_DEBUG") == "1" || logger.IsLevelEnabled(logrus.DebugLevel)
		isInteractive := isatty.IsTerminal(stderr.Fd()) || isatty.IsCygwinTerminal(stderr.Fd())
		return isDebug || !isInteractive
	}
}

// SetLevel changes the level of every logger created so far.
func SetLevel(level logrus.Level) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, entry := range loggers {
		entry.Logger.SetLevel(level)
	}
}

// reset drops cached loggers.
func reset() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	loggers = make(map[string]*logrus.Entry)
}
