package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/runger/histlaunch/internal/opener"
)

var (
	openSource string
	openPath   string
)

var openCmd = &cobra.Command{
	Use:     "open <n> [query...]",
	Short:   "Open the n-th search result",
	GroupID: groupCore,
	Long: `Rank browser history like 'histlaunch search' and open result n
(as numbered in the search output) with open.command.

Examples:
  histlaunch open 0 rust           # Open the best match for "rust"
  histlaunch open 2 go docs`,
	Args:         cobra.MinimumNArgs(1),
	RunE:         runOpen,
	SilenceUsage: true,
}

func init() {
	openCmd.Flags().StringVar(&openSource, "source", "", "History source: chrome, chromium, brave, firefox, or tsv")
	openCmd.Flags().StringVar(&openPath, "path", "", "History file to read instead of the browser default")
}

func runOpen(cmd *cobra.Command, args []string) error {
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid result number %q: %w", args[0], err)
	}

	// Rank deep enough that result n exists.
	view, cfg, err := rankFromArgs(cmd, args[1:], int(n)+1, sourceOverrides{typ: openSource, path: openPath})
	if err != nil {
		return err
	}

	hit, ok := view.Hit(uint32(n))
	if !ok {
		return fmt.Errorf("result %d not found (%d results)", n, view.Len())
	}

	op, err := opener.New(cfg.Open.Command)
	if err != nil {
		return err
	}
	if err := op.Open(hit.Record.Target); err != nil {
		return fmt.Errorf("failed to open %s: %w", hit.Record.Target, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", hit.Record.Target)
	return nil
}
