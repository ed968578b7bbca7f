// Package logging provides JSON-lines structured logging for histlaunch.
//
// Stdout carries the launcher protocol, so diagnostics go to a log file:
//
//	{"ts":"2024-01-15T10:30:00Z","level":"INFO","msg":"plugin started","version":"1.2.0","pid":12345}
//
// Log levels:
//   - debug: Per-query ranking details (enabled via HISTLAUNCH_DEBUG=1)
//   - info: Startup, shutdown, opened targets
//   - warn: Skipped requests, config fallbacks
//   - error: Load failures, unknown result ids, failed opens
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level
}

// New creates a new JSON-lines structured logger.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = &Config{Level: slog.LevelInfo}
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Rename "time" to "ts"
			if len(groups) == 0 && a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}

	return slog.New(slog.NewJSONHandler(output, opts))
}

// ParseLevel converts a config level name to a slog level. Unknown names
// map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OpenFile opens path for appending, creating it and its parent directory.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // G304: path is the configured log file
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Open builds a logger writing to path at the named level. When the file
// cannot be opened the logger writes to stderr instead and the open error is
// logged there. The returned close function is always non-nil.
func Open(path, level string) (*slog.Logger, func() error) {
	cfg := &Config{Output: os.Stderr, Level: ParseLevel(level)}

	f, err := OpenFile(path)
	if err != nil {
		logger := New(cfg)
		logger.Warn("logging to stderr", "path", path, "error", err)
		return logger, func() error { return nil }
	}

	cfg.Output = f
	return New(cfg), f.Close
}

// StartupInfo holds information to log at plugin startup.
type StartupInfo struct {
	Version    string
	GitCommit  string
	ConfigPath string
	Source     string
	Records    int
	PID        int
}

// LogStartup logs plugin startup information.
func LogStartup(logger *slog.Logger, info StartupInfo) {
	logger.Info("plugin started",
		"version", info.Version,
		"git_commit", info.GitCommit,
		"config_path", info.ConfigPath,
		"source", info.Source,
		"records", info.Records,
		"pid", info.PID,
	)
}

// LogShutdown logs plugin shutdown.
func LogShutdown(logger *slog.Logger, reason string) {
	logger.Info("plugin shutting down", "reason", reason)
}

// LogLoadFailure logs a history snapshot that could not be loaded.
func LogLoadFailure(logger *slog.Logger, source string, err error) {
	logger.Error("history load failed; serving an empty store",
		"source", source,
		"error", err,
	)
}

// LogConfigFallback logs an invalid config replaced by defaults.
func LogConfigFallback(logger *slog.Logger, configPath string, err error) {
	logger.Warn("invalid config; using defaults",
		"config_path", configPath,
		"error", err,
	)
}
