package trade

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/traderank/traderank/pkg/checksum"
)

// TimeLayout is the timestamp format used by broker trade-log exports.
const TimeLayout = "2006-01-02 15:04:05"

// Source records where a trade came from, for traceability in diagnostics.
type Source struct {
	File string `json:"file"`
	Row  int    `json:"row"`
}

// Trade is a single normalized fill from a trade log. It is transient:
// produced by the parser, filtered for duplicates, consumed by the matcher.
type Trade struct {
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Time       time.Time       `json:"time"`
	Commission decimal.Decimal `json:"commission"`
	Source     Source          `json:"source"`
}

// Fingerprint derives the trade's identity from its economically
// meaningful fields. Two fills with equal fingerprints are the same trade,
// however many re-exported files they appear in.
func (t Trade) Fingerprint() string {
	return checksum.Fields(
		t.Symbol,
		t.Time.UTC().Format(time.RFC3339),
		t.Side.String(),
		canon(t.Quantity),
		canon(t.Price),
	)
}

// canon strips insignificant trailing zeros so "1.50" and "1.5" fingerprint
// identically across differently formatted exports.
func canon(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// Lot is an open, not-yet-matched slice of a position: the remaining
// quantity entered at a single price, with the share of the entry
// commission still attributable to it.
type Lot struct {
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Time       time.Time       `json:"time"`
	Commission decimal.Decimal `json:"commission"`
}

// Closed is a realized round-trip trade: an opening lot matched against an
// opposing fill. Immutable once created.
type Closed struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"` // side of the closing fill
	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	EntryTime  time.Time       `json:"entry_time"`
	ExitTime   time.Time       `json:"exit_time"`
	Commission decimal.Decimal `json:"commission"`
	GrossPL    decimal.Decimal `json:"gross_pl"`
	NetPL      decimal.Decimal `json:"net_pl"`
}

// Win reports whether the trade realized a positive net P&L.
func (c Closed) Win() bool {
	return c.NetPL.IsPositive()
}

// Key derives the identity of a realized trade from its matched fields.
// Replaying the same fills yields the same keys, which is what keeps
// journal inserts idempotent across reprocess runs.
func (c Closed) Key() string {
	return checksum.Fields(
		c.Symbol,
		c.Side.String(),
		canon(c.Quantity),
		canon(c.EntryPrice),
		canon(c.ExitPrice),
		c.EntryTime.UTC().Format(time.RFC3339),
		c.ExitTime.UTC().Format(time.RFC3339),
	)
}

// GrossPL computes (exit - entry) * quantity signed by the closing side.
func GrossPL(side Side, entry, exit, qty decimal.Decimal) decimal.Decimal {
	return exit.Sub(entry).Mul(qty).Mul(decimal.NewFromInt(side.factor()))
}
