package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/traderank/traderank/journal"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List realized trades from the SQLite journal",
	Long: `Query the realized-trade journal by close-time range.

Requires a SQLite journal (journal.type: sqlite in the config).

Example:
  traderank trades --db ./journal.sqlite --from 2026-01-01 --to 2026-02-01`,
	RunE: runTrades,
}

var (
	tradesDB   string
	tradesFrom string
	tradesTo   string
)

func init() {
	rootCmd.AddCommand(tradesCmd)

	tradesCmd.Flags().StringVar(&tradesDB, "db", "", "SQLite journal path (overrides config)")
	tradesCmd.Flags().StringVar(&tradesFrom, "from", "", "start date, inclusive (YYYY-MM-DD)")
	tradesCmd.Flags().StringVar(&tradesTo, "to", "", "end date, exclusive (YYYY-MM-DD)")
}

func runTrades(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dbPath := tradesDB
	if dbPath == "" {
		if cfg.Journal.Type != "sqlite" {
			return fmt.Errorf("no SQLite journal configured; pass --db or set journal.type: sqlite")
		}
		dbPath = cfg.Journal.Path
	}

	start := time.Time{}
	end := time.Now().UTC().AddDate(0, 0, 1)
	if tradesFrom != "" {
		if start, err = time.Parse(time.DateOnly, tradesFrom); err != nil {
			return fmt.Errorf("invalid --from date: %w", err)
		}
	}
	if tradesTo != "" {
		if end, err = time.Parse(time.DateOnly, tradesTo); err != nil {
			return fmt.Errorf("invalid --to date: %w", err)
		}
	}

	j, err := journal.NewSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open journal db: %w", err)
	}
	defer j.Close()

	trades, err := j.ListClosedBetween(start, end)
	if err != nil {
		return err
	}

	for _, c := range trades {
		fmt.Printf("%s  %-8s %-4s qty %-8s entry %-10s exit %-10s net %s\n",
			c.ExitTime.Format("2006-01-02 15:04:05"),
			c.Symbol, c.Side, c.Quantity, c.EntryPrice, c.ExitPrice, c.NetPL.StringFixed(2))
	}
	fmt.Printf("%d realized trades\n", len(trades))
	return nil
}
