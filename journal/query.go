package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/traderank/traderank/trade"
)

const selectColumns = `id, symbol, side, quantity, entry_price, exit_price, entry_time, exit_time, commission, gross_pl, net_pl`

// GetClosed returns a single realized trade by ID.
func (j *SQLite) GetClosed(id string) (trade.Closed, error) {
	row := j.db.QueryRow(`
		SELECT `+selectColumns+`
		FROM closed_trades
		WHERE id = ?`, id)

	c, err := scanClosed(row)
	if err == sql.ErrNoRows {
		return trade.Closed{}, fmt.Errorf("closed trade %q not found", id)
	}
	return c, err
}

// ListClosedBetween returns realized trades whose exit_time is within
// [start, end), oldest first.
func (j *SQLite) ListClosedBetween(start, end time.Time) ([]trade.Closed, error) {
	rows, err := j.db.Query(`
		SELECT `+selectColumns+`
		FROM closed_trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time ASC, id ASC`,
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []trade.Closed
	for rows.Next() {
		c, err := scanClosed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClosed(s scanner) (trade.Closed, error) {
	var (
		c                          trade.Closed
		side, entryT, exitT        string
		qty, entryP, exitP         string
		commission, grossPL, netPL string
	)

	err := s.Scan(&c.ID, &c.Symbol, &side, &qty, &entryP, &exitP, &entryT, &exitT, &commission, &grossPL, &netPL)
	if err != nil {
		return trade.Closed{}, err
	}

	if c.Side, err = trade.ParseSide(side); err != nil {
		return trade.Closed{}, err
	}
	if c.EntryTime, err = time.Parse(time.RFC3339, entryT); err != nil {
		return trade.Closed{}, fmt.Errorf("bad entry_time %q: %w", entryT, err)
	}
	if c.ExitTime, err = time.Parse(time.RFC3339, exitT); err != nil {
		return trade.Closed{}, fmt.Errorf("bad exit_time %q: %w", exitT, err)
	}

	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{qty, &c.Quantity},
		{entryP, &c.EntryPrice},
		{exitP, &c.ExitPrice},
		{commission, &c.Commission},
		{grossPL, &c.GrossPL},
		{netPL, &c.NetPL},
	} {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return trade.Closed{}, fmt.Errorf("bad decimal %q: %w", f.raw, err)
		}
	}
	return c, nil
}
