package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/traderank/traderank/trade"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// RecordClosed inserts a realized trade. IDs are deterministic for a
// given history, so replaying a batch or re-journaling after a reprocess
// hits the primary key and is ignored rather than duplicated.
func (j *SQLite) RecordClosed(c trade.Closed) error {
	_, err := j.db.Exec(`
		INSERT OR IGNORE INTO closed_trades
		(id, symbol, side, quantity, entry_price, exit_price, entry_time, exit_time, commission, gross_pl, net_pl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Symbol, c.Side.String(),
		c.Quantity.String(), c.EntryPrice.String(), c.ExitPrice.String(),
		c.EntryTime.UTC().Format(time.RFC3339), c.ExitTime.UTC().Format(time.RFC3339),
		c.Commission.String(), c.GrossPL.String(), c.NetPL.String(),
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
