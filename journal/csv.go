package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/traderank/traderank/trade"
)

var csvHeader = []string{
	"id", "symbol", "side", "quantity", "entry_price", "exit_price",
	"entry_time", "exit_time", "commission", "gross_pl", "net_pl",
}

type CSVJournal struct {
	w *csv.Writer
	f *os.File
}

// NewCSV appends to an existing journal file, writing the header only when
// the file is new. Re-running the analyzer keeps one continuous journal.
func NewCSV(path string) (*CSVJournal, error) {
	info, err := os.Stat(path)
	fresh := err != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return &CSVJournal{w: w, f: f}, nil
}

func (j *CSVJournal) RecordClosed(c trade.Closed) error {
	err := j.w.Write([]string{
		c.ID,
		c.Symbol,
		c.Side.String(),
		c.Quantity.String(),
		c.EntryPrice.String(),
		c.ExitPrice.String(),
		c.EntryTime.Format(time.RFC3339),
		c.ExitTime.Format(time.RFC3339),
		c.Commission.String(),
		c.GrossPL.String(),
		c.NetPL.String(),
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}
