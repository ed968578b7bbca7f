package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/runger/histlaunch/internal/config"
	"github.com/runger/histlaunch/internal/history"
	"github.com/runger/histlaunch/internal/logging"
)

// sourceOverrides are command-line replacements for source settings.
type sourceOverrides struct {
	typ  string
	path string
}

// loadConfigOrDefault loads the config file. An unreadable or invalid file
// is reported and replaced by defaults so the plugin keeps working.
func loadConfigOrDefault(logger *slog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		if logger != nil {
			logging.LogConfigFallback(logger, config.Path(), err)
		}
		cfg = config.DefaultConfig()
		cfg.ApplyEnvOverrides()
	}
	return cfg
}

// applySourceOverrides copies flag values over cfg and revalidates.
func applySourceOverrides(cfg *config.Config, o sourceOverrides) error {
	if o.typ != "" {
		if err := cfg.Set("source.type", o.typ); err != nil {
			return err
		}
	}
	if o.path != "" {
		cfg.Source.Path = o.path
	}
	return cfg.Validate()
}

// newSource builds the snapshot source described by cfg.
func newSource(cfg *config.Config) (history.Snapshotter, error) {
	return history.NewSource(history.SourceOptions{
		Type:       history.SourceType(cfg.Source.Type),
		Path:       cfg.Source.Path,
		Profile:    cfg.Source.Profile,
		MaxRecords: cfg.Source.MaxRecords,
		StagingDir: cfg.Source.StagingDir,
	})
}

// loadStore snapshots history once, bounded by the configured timeout. It
// always returns a usable store; the error explains an empty one.
func loadStore(ctx context.Context, cfg *config.Config) (*history.Store, string, error) {
	src, err := newSource(cfg)
	if err != nil {
		return history.EmptyStore(), cfg.Source.Type, fmt.Errorf("history source: %w", err)
	}
	name := describeSource(src)

	if timeout := cfg.LoadTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	store, err := history.Load(ctx, src)
	return store, name, err
}

func describeSource(src history.Snapshotter) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}

// logFilePath returns the configured log file or the XDG default.
func logFilePath(cfg *config.Config) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	return config.DefaultPaths().LogFile()
}
