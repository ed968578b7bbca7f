package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runger/histlaunch/internal/config"
	"github.com/runger/histlaunch/internal/launcher"
	"github.com/runger/histlaunch/internal/logging"
	"github.com/runger/histlaunch/internal/opener"
	"github.com/runger/histlaunch/internal/session"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Serve the pop-launcher plugin protocol on stdin/stdout",
	GroupID: groupCore,
	Long: `Serve the pop-launcher plugin protocol on stdin/stdout.

Browser history is loaded once at startup. Requests are read as JSON lines
from stdin and responses written as JSON lines to stdout. Diagnostics go to
the log file (log.file, default ~/.local/share/histlaunch/logs/histlaunch.log).

This is what pop-launcher runs through dist/plugin.ron; running histlaunch
without a subcommand does the same.`,
	Args:         cobra.NoArgs,
	RunE:         runServe,
	SilenceUsage: true,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The log destination comes from the config, so a config problem is
	// logged once the logger exists.
	path := config.Path()
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.DefaultConfig()
		cfg.ApplyEnvOverrides()
	}

	var dirErr error
	if cfg.Log.File == "" {
		dirErr = config.DefaultPaths().EnsureDirectories()
	}

	logger, closeLog := logging.Open(logFilePath(cfg), cfg.Log.Level)
	defer closeLog() //nolint:errcheck // nothing to report it to

	if cfgErr != nil {
		logging.LogConfigFallback(logger, path, cfgErr)
	}
	if dirErr != nil {
		logger.Warn("failed to create data directories", "error", dirErr)
	}

	store, source, err := loadStore(ctx, cfg)
	if err != nil {
		logging.LogLoadFailure(logger, source, err)
	}

	op, err := opener.New(cfg.Open.Command)
	if err != nil {
		logger.Warn("invalid open command; using default", "command", cfg.Open.Command, "error", err)
		op, _ = opener.New(opener.DefaultCommand)
	}

	logging.LogStartup(logger, logging.StartupInfo{
		Version:    Version,
		GitCommit:  GitCommit,
		ConfigPath: path,
		Source:     source,
		Records:    store.Len(),
		PID:        os.Getpid(),
	})

	ctrl := session.New(store, launcher.NewEncoder(cmd.OutOrStdout()), op, logger, session.Options{
		Trigger:          cfg.Launcher.Trigger,
		MaxResults:       cfg.Launcher.MaxResults,
		IncludeUnmatched: cfg.Launcher.IncludeUnmatched,
	})

	err = session.Serve(ctx, ctrl, cmd.InOrStdin(), session.ServeOptions{
		ExitOnActivate: cfg.Launcher.ExitOnActivate,
	})
	if err != nil {
		logger.Error("serve failed", "error", err)
		return err
	}

	reason := "done"
	if ctx.Err() != nil {
		reason = "signal"
	}
	logging.LogShutdown(logger, reason)
	return nil
}
