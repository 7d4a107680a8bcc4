package metrics

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/traderank/traderank/trade"
)

// Wilson returns the Wilson score interval for a win rate, in percent.
// It behaves sanely at small sample sizes where the normal approximation
// does not. n == 0 yields [0, 100].
func Wilson(wins, n int, confidence float64) (low, high float64) {
	if n == 0 {
		return 0, 100
	}

	z := math.Sqrt2 * math.Erfinv(confidence)
	p := float64(wins) / float64(n)
	nf := float64(n)

	denom := 1 + z*z/nf
	center := p + z*z/(2*nf)
	margin := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf))

	low = (center - margin) / denom * 100
	high = (center + margin) / denom * 100
	return math.Max(low, 0), math.Min(high, 100)
}

// sharpe computes the annualized Sharpe ratio over daily net P&L, or nil
// when it is undefined (fewer than two days, or zero variance).
func sharpe(days []DaySummary, tradingDaysPerYear int) *float64 {
	if len(days) < 2 {
		return nil
	}

	rets := make([]float64, len(days))
	mean := 0.0
	for i, d := range days {
		rets[i], _ = d.NetPL.Float64()
		mean += rets[i]
	}
	mean /= float64(len(rets))

	variance := 0.0
	for _, r := range rets {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(rets) - 1)
	if variance == 0 {
		return nil
	}

	s := mean / math.Sqrt(variance) * math.Sqrt(float64(tradingDaysPerYear))
	return &s
}

// maxDrawdown is the largest peak-to-trough fall of the cumulative net
// equity curve, as an absolute value. The input must be in exit order.
func maxDrawdown(ordered []trade.Closed) decimal.Decimal {
	equity := decimal.Zero
	peak := decimal.Zero
	dd := decimal.Zero

	for _, c := range ordered {
		equity = equity.Add(c.NetPL)
		if equity.GreaterThan(peak) {
			peak = equity
		}
		if fall := peak.Sub(equity); fall.GreaterThan(dd) {
			dd = fall
		}
	}
	return dd
}
