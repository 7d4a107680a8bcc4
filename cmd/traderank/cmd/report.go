package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/traderank/traderank/metrics"
	"github.com/traderank/traderank/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print cached performance summaries",
	Long: `Print daily, weekly and session summaries from the analysis cache.

--days restricts which daily summaries are shown; it never changes how
they are computed.

Example:
  traderank report --days 30`,
	RunE: runReport,
}

var (
	reportCache string
	reportDays  int
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportCache, "cache", "", "cache file path (overrides config)")
	reportCmd.Flags().IntVarP(&reportDays, "days", "d", 0, "show only the last N days (0 = all)")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if reportCache != "" {
		cfg.Cache = reportCache
	}

	cache, err := store.Load(cfg.Cache)
	if err != nil {
		return err
	}
	if len(cache.Closed) == 0 {
		fmt.Println("No realized trades yet. Run 'traderank run' first.")
		return nil
	}

	// The cached report is a convenience copy; derive it from history when
	// it is absent.
	r := cache.Report
	if r == nil {
		r = metrics.Compute(cache.Closed, cfg.MetricsParams())
	}

	days := r.Days
	if reportDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -reportDays).Format(time.DateOnly)
		kept := days[:0:0]
		for _, d := range days {
			if d.Date >= cutoff {
				kept = append(kept, d)
			}
		}
		days = kept
	}

	fmt.Println("Daily:")
	for _, d := range days {
		fmt.Printf("  %s  trades %3d  win %5.1f%% [%4.1f-%5.1f]  net %s\n",
			d.Date, d.Trades, d.WinRate, d.WinRateLow, d.WinRateHigh, d.NetPL.StringFixed(2))
	}

	fmt.Println("\nWeekly:")
	for _, w := range r.Weeks {
		fmt.Printf("  %d-W%02d  trades %3d  days %d (%d green)  win %5.1f%%  net %s\n",
			w.Year, w.Week, w.Trades, w.TradingDays, w.ProfitableDays, w.WinRate, w.NetPL.StringFixed(2))
	}

	fmt.Println("\nSessions (best first):")
	for _, s := range r.Sessions {
		if s.Trades == 0 {
			continue
		}
		fmt.Printf("  %-12s %02d:00-%02d:00  trades %3d  win %5.1f%%  net %s\n",
			s.Name, s.StartHour, s.EndHour, s.Trades, s.WinRate, s.NetPL.StringFixed(2))
	}

	fmt.Printf("\nTotal: %d trades, net %s, win rate %.1f%%, max drawdown %s\n",
		r.TotalTrades, r.TotalNetPL.StringFixed(2), r.OverallWinRate, r.MaxDrawdown.StringFixed(2))
	if r.Sharpe != nil {
		fmt.Printf("Sharpe (annualized): %.2f\n", *r.Sharpe)
	}
	if r.BestDay != nil && r.WorstDay != nil {
		fmt.Printf("Best day %s (%s), worst day %s (%s)\n",
			r.BestDay.Date, r.BestDay.NetPL.StringFixed(2),
			r.WorstDay.Date, r.WorstDay.NetPL.StringFixed(2))
	}
	return nil
}
