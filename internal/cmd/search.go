package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/runger/histlaunch/internal/config"
	"github.com/runger/histlaunch/internal/history"
	"github.com/runger/histlaunch/internal/logging"
	"github.com/runger/histlaunch/internal/rank"
)

var (
	searchLimit  int
	searchSource string
	searchPath   string
)

var searchCmd = &cobra.Command{
	Use:     "search [query...]",
	Short:   "Rank browser history from the command line",
	GroupID: groupCore,
	Long: `Rank browser history against a query and print the results.

The query is matched the same way the launcher matches the text after the
trigger token, so no trigger is needed here. Without a query the most
recently visited entries are listed.

Examples:
  histlaunch search rust            # Best matches for "rust"
  histlaunch search -n 20 go docs   # Top 20 for "go docs"
  histlaunch search --source firefox rust
  histlaunch search --source tsv --path ~/history.tsv rust`,
	RunE:         runSearch,
	SilenceUsage: true,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of results (default launcher.max_results)")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "History source: chrome, chromium, brave, firefox, or tsv")
	searchCmd.Flags().StringVar(&searchPath, "path", "", "History file to read instead of the browser default")
}

func runSearch(cmd *cobra.Command, args []string) error {
	view, _, err := rankFromArgs(cmd, args, searchLimit, sourceOverrides{typ: searchSource, path: searchPath})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if view.Len() == 0 {
		if q := view.Query(); q != "" {
			fmt.Fprintf(out, "No history entries matching '%s'\n", q)
		} else {
			fmt.Fprintln(out, "No history entries available.")
		}
		return nil
	}

	printView(out, view, terminalWidth())
	return nil
}

// rankFromArgs loads the configured history and ranks it for the words in
// args. Diagnostics are written to stderr.
func rankFromArgs(cmd *cobra.Command, args []string, limit int, o sourceOverrides) (*rank.View, *config.Config, error) {
	logger := logging.New(&logging.Config{Output: cmd.ErrOrStderr(), Level: slog.LevelWarn})

	cfg := loadConfigOrDefault(logger)
	if err := applySourceOverrides(cfg, o); err != nil {
		return nil, nil, err
	}
	if limit <= 0 {
		limit = cfg.Launcher.MaxResults
	}

	store, source, err := loadStore(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load history from %s: %w", source, err)
	}

	engine := rank.NewEngine(cfg.Launcher.IncludeUnmatched)
	return engine.Rank(store, strings.Join(args, " "), limit), cfg, nil
}

// printView writes one line per hit: result id, title and URL, fitted to
// width display columns.
func printView(w io.Writer, view *rank.View, width int) {
	const idWidth = 3
	const gap = 2

	avail := width - idWidth - 2*gap
	if avail < 20 {
		avail = 20
	}
	titleWidth := avail * 3 / 5
	urlWidth := avail - titleWidth

	for id, hit := range view.All() {
		title := history.MiddleTruncate(hit.Record.Title, titleWidth)
		title = runewidth.FillRight(title, titleWidth)
		url := history.MiddleTruncate(hit.Record.Target, urlWidth)
		fmt.Fprintf(w, "%s%*d%s  %s  %s%s%s\n",
			colorDim, idWidth, id, colorReset,
			title,
			colorCyan, url, colorReset,
		)
	}
}
