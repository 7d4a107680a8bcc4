// Package journal records realized trades for external tooling: a flat
// CSV for spreadsheets, or SQLite for ad-hoc queries. The journal is an
// export surface; the cache in package store remains the source of truth.
package journal

import (
	"github.com/traderank/traderank/trade"
)

type Journal interface {
	RecordClosed(trade.Closed) error
	Close() error
}

// Nop discards everything; used when journaling is disabled.
type Nop struct{}

func (Nop) RecordClosed(trade.Closed) error { return nil }
func (Nop) Close() error                    { return nil }
