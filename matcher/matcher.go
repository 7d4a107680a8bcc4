// Package matcher pairs fills into realized round-trip trades.
//
// Each symbol has an independent FIFO queue of open lots. An incoming fill
// first closes against the oldest lots of the opposite side; any remainder
// opens a new lot of its own side at the back of the queue. Symbols never
// interact, so the book can be sharded by symbol if it ever needs to be.
package matcher

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/traderank/traderank/trade"
)

// Book holds the per-symbol open lot queues between batches. Lots left
// open at the end of a run are persisted and restored so a later file can
// close positions opened by an earlier one.
type Book struct {
	lots map[string][]trade.Lot
}

// NewBook builds a book from previously persisted open lots. The input is
// copied; the caller's map is not retained.
func NewBook(open map[string][]trade.Lot) *Book {
	b := &Book{lots: make(map[string][]trade.Lot, len(open))}
	for sym, lots := range open {
		b.lots[sym] = append([]trade.Lot(nil), lots...)
	}
	return b
}

// Match applies a batch of fills in order and returns the realized trades,
// without IDs; the caller assigns those over the full history. The batch
// must already be deduplicated and sorted by time (ties in their original
// ingestion order); Match trusts that ordering.
func (b *Book) Match(batch []trade.Trade) []trade.Closed {
	var closed []trade.Closed
	for _, t := range batch {
		closed = append(closed, b.apply(t)...)
	}
	return closed
}

// apply matches one fill against the symbol's queue.
func (b *Book) apply(t trade.Trade) []trade.Closed {
	var closed []trade.Closed

	remaining := t.Quantity
	remComm := t.Commission
	queue := b.lots[t.Symbol]

	for remaining.IsPositive() && len(queue) > 0 && queue[0].Side == t.Side.Opposite() {
		lot := &queue[0]
		matched := decimal.Min(remaining, lot.Quantity)

		// Commission is split proportionally to quantity. Taking the
		// whole remaining amount on the final slice conserves the total
		// exactly even when earlier divisions rounded.
		entryComm := lot.Commission
		if matched.LessThan(lot.Quantity) {
			entryComm = lot.Commission.Mul(matched).Div(lot.Quantity)
		}
		exitComm := remComm
		if matched.LessThan(remaining) {
			exitComm = remComm.Mul(matched).Div(remaining)
		}

		gross := trade.GrossPL(t.Side, lot.Price, t.Price, matched)
		comm := entryComm.Add(exitComm)
		closed = append(closed, trade.Closed{
			Symbol:     t.Symbol,
			Side:       t.Side,
			Quantity:   matched,
			EntryPrice: lot.Price,
			ExitPrice:  t.Price,
			EntryTime:  lot.Time,
			ExitTime:   t.Time,
			Commission: comm,
			GrossPL:    gross,
			NetPL:      gross.Sub(comm),
		})

		lot.Quantity = lot.Quantity.Sub(matched)
		lot.Commission = lot.Commission.Sub(entryComm)
		remaining = remaining.Sub(matched)
		remComm = remComm.Sub(exitComm)

		if lot.Quantity.IsZero() {
			queue = queue[1:]
		}
	}

	if remaining.IsPositive() {
		queue = append(queue, trade.Lot{
			Symbol:     t.Symbol,
			Side:       t.Side,
			Quantity:   remaining,
			Price:      t.Price,
			Time:       t.Time,
			Commission: remComm,
		})
	}

	if len(queue) == 0 {
		delete(b.lots, t.Symbol)
	} else {
		b.lots[t.Symbol] = queue
	}
	return closed
}

// Open returns a copy of the open lots, only for symbols that still have
// an outstanding position.
func (b *Book) Open() map[string][]trade.Lot {
	out := make(map[string][]trade.Lot, len(b.lots))
	for sym, lots := range b.lots {
		if len(lots) > 0 {
			out[sym] = append([]trade.Lot(nil), lots...)
		}
	}
	return out
}

// NetOpen returns the signed open quantity per symbol (buys positive).
// Exposed mainly so callers can assert quantity conservation.
func (b *Book) NetOpen() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(b.lots))
	for sym, lots := range b.lots {
		net := decimal.Zero
		for _, lot := range lots {
			if lot.Side == trade.Buy {
				net = net.Add(lot.Quantity)
			} else {
				net = net.Sub(lot.Quantity)
			}
		}
		out[sym] = net
	}
	return out
}

// SortBatch orders fills by time, preserving ingestion order for equal
// timestamps. Ingestion order (file scan order, then row index) is the
// stable tie-break that makes replays deterministic.
func SortBatch(batch []trade.Trade) {
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Time.Before(batch[j].Time)
	})
}
