package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/traderank/traderank/ingest"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest new trade files and update the analysis cache",
	Long: `Scan the source directory for trade-log CSV files, ingest the ones not
seen before, match fills into realized trades, and update the cached
summaries.

Files are identified by path and content hash: re-exported copies and
duplicate rows are dropped, not double-counted. Use --reprocess to discard
all derived state and replay every file from scratch.

Example:
  traderank run --source ./data/source --cache ./data/cache.json`,
	RunE: runRun,
}

var (
	runSource    string
	runCache     string
	runReprocess bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runSource, "source", "s", "", "directory of trade-log CSV files (overrides config)")
	runCmd.Flags().StringVar(&runCache, "cache", "", "cache file path (overrides config)")
	runCmd.Flags().BoolVar(&runReprocess, "reprocess", false, "discard derived state and replay all files")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runSource != "" {
		cfg.Source = runSource
	}
	if runCache != "" {
		cfg.Cache = runCache
	}

	jnl, err := newJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	runner := &ingest.Runner{
		Source:    cfg.Source,
		CachePath: cfg.Cache,
		Params:    cfg.MetricsParams(),
		Journal:   jnl,
		Reprocess: runReprocess,
		Log:       newLogger(cfg),
	}

	cache, rep, err := runner.Run()
	if err != nil {
		return err
	}

	fmt.Printf("Files:  %d processed, %d unchanged, %d skipped\n",
		rep.FilesProcessed, rep.FilesUnchanged, rep.FilesSkipped)
	fmt.Printf("Rows:   %d parsed, %d duplicates dropped, %d rejected\n",
		rep.TradesParsed, rep.DuplicatesDropped, rep.RowsRejected)
	fmt.Printf("Closed: %d new realized trades\n", rep.NewClosed)

	if r := cache.Report; r != nil && r.TotalTrades > 0 {
		fmt.Printf("\nTotal realized trades: %d\n", r.TotalTrades)
		fmt.Printf("Net P&L:               %s\n", r.TotalNetPL.StringFixed(2))
		fmt.Printf("Win rate:              %.1f%%\n", r.OverallWinRate)
		fmt.Printf("Max drawdown:          %s\n", r.MaxDrawdown.StringFixed(2))
		if r.Sharpe != nil {
			fmt.Printf("Sharpe (annualized):   %.2f\n", *r.Sharpe)
		}
		if len(r.Sessions) > 0 && r.Sessions[0].Trades > 0 {
			best := r.Sessions[0]
			fmt.Printf("Best session:          %s (%02d:00-%02d:00) %s\n",
				best.Name, best.StartHour, best.EndHour, best.NetPL.StringFixed(2))
		}
	}
	return nil
}
