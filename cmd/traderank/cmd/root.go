package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/traderank/traderank/config"
	"github.com/traderank/traderank/journal"
)

var rootCmd = &cobra.Command{
	Use:   "traderank",
	Short: "Realized trading performance analytics from broker trade logs",
	Long: `Traderank ingests broker trade-log CSV exports, matches fills into
realized round-trip trades (FIFO per symbol), and reports P&L, win rates,
risk metrics and time-of-day patterns.

Processed files and matched trades are cached, so repeated runs only
analyze new data.`,
	SilenceUsage: true,
}

var (
	cfgPath string
	verbose bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig resolves the effective configuration: the --config file when
// given, defaults otherwise.
func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.LoadFromFile(cfgPath)
	}
	return config.Default(), nil
}

// newLogger builds the run logger from config and the --verbose flag.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newJournal builds the configured journal backend.
func newJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return journal.Nop{}, nil
	case "csv":
		return journal.NewCSV(cfg.Journal.Path)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.Path)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}
