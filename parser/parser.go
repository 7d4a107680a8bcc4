// Package parser turns broker CSV exports into normalized trades.
//
// Expected trade-log columns: symbol, side, qty, fill price, time,
// net amount, commission. Side synonyms (long/short) and letter case are
// normalized here so downstream packages only see the closed Side enum.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/traderank/traderank/trade"
)

// Format classifies a file before any rows are parsed. Position snapshots
// look superficially like trade logs but carry no trade history; parsing
// them would double-count or invent trades, so they are rejected wholesale.
type Format int

const (
	FormatTrades Format = iota
	FormatPositions
	FormatUnrecognized
)

func (f Format) String() string {
	switch f {
	case FormatTrades:
		return "trades"
	case FormatPositions:
		return "positions"
	default:
		return "unrecognized"
	}
}

// DetectFormat classifies a file by its header line alone.
func DetectFormat(header string) Format {
	h := strings.ToLower(header)

	// Positions snapshots carry valuation columns a trade log never has.
	if strings.Contains(h, "unrealized") ||
		strings.Contains(h, "avg price") ||
		strings.Contains(h, "last price") ||
		strings.Contains(h, "position id") {
		return FormatPositions
	}

	if strings.Contains(h, "symbol") &&
		strings.Contains(h, "side") &&
		(strings.Contains(h, "qty") || strings.Contains(h, "quantity")) &&
		strings.Contains(h, "fill price") {
		return FormatTrades
	}

	return FormatUnrecognized
}

// Result is the outcome of parsing one file. Rejected rows are counted,
// not fatal: one bad line must not discard a day of trades.
type Result struct {
	Format   Format
	Trades   []trade.Trade
	Rejected int
}

// ParseFile reads and classifies a file. Non-trade files return with the
// detected format and no trades.
func ParseFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a trade log from r. The name is recorded in each trade's
// source descriptor.
func Parse(r io.Reader, name string) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Result{Format: FormatUnrecognized}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("read header of %s: %w", name, err)
	}

	res := Result{Format: DetectFormat(strings.Join(header, ","))}
	if res.Format != FormatTrades {
		return res, nil
	}

	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed CSV line; skip the row, keep the file.
			res.Rejected++
			continue
		}
		t, err := parseRecord(record)
		if err != nil {
			res.Rejected++
			continue
		}
		t.Source = trade.Source{File: name, Row: row}
		res.Trades = append(res.Trades, t)
	}
	return res, nil
}

func parseRecord(record []string) (trade.Trade, error) {
	if len(record) < 7 {
		return trade.Trade{}, fmt.Errorf("expected 7 fields, got %d", len(record))
	}

	symbol := strings.TrimSpace(record[0])
	if symbol == "" {
		return trade.Trade{}, fmt.Errorf("missing symbol")
	}

	side, err := trade.ParseSide(record[1])
	if err != nil {
		return trade.Trade{}, err
	}

	qty, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil {
		return trade.Trade{}, fmt.Errorf("invalid quantity %q: %w", record[2], err)
	}
	if !qty.IsPositive() {
		return trade.Trade{}, fmt.Errorf("quantity must be positive, got %s", qty)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return trade.Trade{}, fmt.Errorf("invalid fill price %q: %w", record[3], err)
	}
	if !price.IsPositive() {
		return trade.Trade{}, fmt.Errorf("fill price must be positive, got %s", price)
	}

	ts, err := time.Parse(trade.TimeLayout, strings.TrimSpace(record[4]))
	if err != nil {
		return trade.Trade{}, fmt.Errorf("invalid time %q: %w", record[4], err)
	}

	commission := decimal.Zero
	if raw := strings.TrimSpace(record[6]); raw != "" {
		commission, err = decimal.NewFromString(raw)
		if err != nil {
			return trade.Trade{}, fmt.Errorf("invalid commission %q: %w", record[6], err)
		}
		if commission.IsNegative() {
			return trade.Trade{}, fmt.Errorf("commission must not be negative, got %s", commission)
		}
	}

	return trade.Trade{
		Symbol:     symbol,
		Side:       side,
		Quantity:   qty,
		Price:      price,
		Time:       ts.UTC(),
		Commission: commission,
	}, nil
}
