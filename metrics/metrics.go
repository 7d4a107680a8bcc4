// Package metrics derives performance summaries from realized trades.
//
// Everything here is a pure transformation: the same set of closed trades
// produces the same report regardless of arrival order, because every
// bucket is keyed (date, ISO week, hour, session), never positional.
package metrics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/traderank/traderank/trade"
)

// Session is a named hour-of-day window, [StartHour, EndHour).
type Session struct {
	Name      string `json:"name" yaml:"name"`
	StartHour int    `json:"start_hour" yaml:"start_hour"`
	EndHour   int    `json:"end_hour" yaml:"end_hour"`
}

// Params tunes the engine. Session boundaries are configuration, not
// rules baked into the algorithm.
type Params struct {
	Confidence         float64   // Wilson interval confidence level
	TradingDaysPerYear int       // Sharpe annualization factor
	Sessions           []Session // time-of-day windows for pattern analysis
}

// DefaultSessions mirrors a US-equities trading day.
func DefaultSessions() []Session {
	return []Session{
		{Name: "Pre-Market", StartHour: 4, EndHour: 9},
		{Name: "Market Open", StartHour: 9, EndHour: 10},
		{Name: "Morning", StartHour: 10, EndHour: 12},
		{Name: "Lunch", StartHour: 12, EndHour: 13},
		{Name: "Afternoon", StartHour: 13, EndHour: 15},
		{Name: "Power Hour", StartHour: 15, EndHour: 16},
		{Name: "After-Hours", StartHour: 16, EndHour: 20},
	}
}

// DefaultParams returns 95% confidence, 252 trading days, US sessions.
func DefaultParams() Params {
	return Params{
		Confidence:         0.95,
		TradingDaysPerYear: 252,
		Sessions:           DefaultSessions(),
	}
}

// DaySummary aggregates the trades that closed on one date.
type DaySummary struct {
	Date         string          `json:"date"` // YYYY-MM-DD
	Trades       int             `json:"trades"`
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	WinRate      float64         `json:"win_rate"`
	WinRateLow   float64         `json:"win_rate_low"`
	WinRateHigh  float64         `json:"win_rate_high"`
	GrossPL      decimal.Decimal `json:"gross_pl"`
	Commission   decimal.Decimal `json:"commission"`
	NetPL        decimal.Decimal `json:"net_pl"`
	AvgWin       decimal.Decimal `json:"avg_win"`
	AvgLoss      decimal.Decimal `json:"avg_loss"`
	BestTrade    decimal.Decimal `json:"best_trade"`
	WorstTrade   decimal.Decimal `json:"worst_trade"`
	Volume       decimal.Decimal `json:"volume"` // entry plus exit notional
	Symbols      []string        `json:"symbols"`
	ProfitFactor *float64        `json:"profit_factor,omitempty"`
}

// WeekSummary aggregates the trades that closed in one ISO week.
type WeekSummary struct {
	Year           int             `json:"year"`
	Week           int             `json:"week"`
	Trades         int             `json:"trades"`
	Wins           int             `json:"wins"`
	Losses         int             `json:"losses"`
	WinRate        float64         `json:"win_rate"`
	WinRateLow     float64         `json:"win_rate_low"`
	WinRateHigh    float64         `json:"win_rate_high"`
	GrossPL        decimal.Decimal `json:"gross_pl"`
	Commission     decimal.Decimal `json:"commission"`
	NetPL          decimal.Decimal `json:"net_pl"`
	AvgWin         decimal.Decimal `json:"avg_win"`
	AvgLoss        decimal.Decimal `json:"avg_loss"`
	BestTrade      decimal.Decimal `json:"best_trade"`
	WorstTrade     decimal.Decimal `json:"worst_trade"`
	Volume         decimal.Decimal `json:"volume"`
	Symbols        []string        `json:"symbols"`
	TradingDays    int             `json:"trading_days"`
	ProfitableDays int             `json:"profitable_days"`
	ProfitFactor   *float64        `json:"profit_factor,omitempty"`
}

// HourBucket is the net performance of one hour of day across all days.
type HourBucket struct {
	Hour    int             `json:"hour"`
	Trades  int             `json:"trades"`
	Wins    int             `json:"wins"`
	Losses  int             `json:"losses"`
	WinRate float64         `json:"win_rate"`
	NetPL   decimal.Decimal `json:"net_pl"`
}

// SessionSummary is the net performance of one configured session window.
type SessionSummary struct {
	Session
	Trades  int             `json:"trades"`
	Wins    int             `json:"wins"`
	Losses  int             `json:"losses"`
	WinRate float64         `json:"win_rate"`
	NetPL   decimal.Decimal `json:"net_pl"`
	AvgPL   decimal.Decimal `json:"avg_pl"`
}

// DayRef and WeekRef point at extremes within the report.
type DayRef struct {
	Date  string          `json:"date"`
	NetPL decimal.Decimal `json:"net_pl"`
}

type WeekRef struct {
	Year  int             `json:"year"`
	Week  int             `json:"week"`
	NetPL decimal.Decimal `json:"net_pl"`
}

type HourRef struct {
	Hour  int             `json:"hour"`
	NetPL decimal.Decimal `json:"net_pl"`
}

// Report is the full derived view over a closed-trade history. It is
// always recomputable from the history; the cache stores it purely for
// read speed.
type Report struct {
	Days     []DaySummary     `json:"days"`
	Weeks    []WeekSummary    `json:"weeks"`
	Hours    []HourBucket     `json:"hours"`
	Sessions []SessionSummary `json:"sessions"` // ranked by net P&L, best first

	TotalTrades     int             `json:"total_trades"`
	TotalGrossPL    decimal.Decimal `json:"total_gross_pl"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	TotalNetPL      decimal.Decimal `json:"total_net_pl"`
	TotalVolume     decimal.Decimal `json:"total_volume"`
	OverallWinRate  float64         `json:"overall_win_rate"`

	BestDay   *DayRef  `json:"best_day,omitempty"`
	WorstDay  *DayRef  `json:"worst_day,omitempty"`
	BestWeek  *WeekRef `json:"best_week,omitempty"`
	WorstWeek *WeekRef `json:"worst_week,omitempty"`
	BestHour  *HourRef `json:"best_hour,omitempty"`
	WorstHour *HourRef `json:"worst_hour,omitempty"`

	// Sharpe is nil when undefined: fewer than two trading days or zero
	// variance in daily net P&L.
	Sharpe      *float64        `json:"sharpe,omitempty"`
	MaxDrawdown decimal.Decimal `json:"max_drawdown"`
}

// Compute builds a report from a closed-trade history. The input slice is
// not mutated.
func Compute(closed []trade.Closed, p Params) *Report {
	if p.Confidence <= 0 || p.Confidence >= 1 {
		p.Confidence = 0.95
	}
	if p.TradingDaysPerYear <= 0 {
		p.TradingDaysPerYear = 252
	}
	if len(p.Sessions) == 0 {
		p.Sessions = DefaultSessions()
	}

	// Work on a copy ordered by exit time so the equity curve, and with it
	// the drawdown, does not depend on arrival order. IDs break exact ties.
	ordered := append([]trade.Closed(nil), closed...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].ExitTime.Equal(ordered[j].ExitTime) {
			return ordered[i].ExitTime.Before(ordered[j].ExitTime)
		}
		return ordered[i].ID < ordered[j].ID
	})

	r := &Report{
		Days:     computeDays(ordered, p.Confidence),
		Hours:    computeHours(ordered),
		Sessions: computeSessions(ordered, p.Sessions),
	}
	r.Weeks = computeWeeks(ordered, r.Days, p.Confidence)

	wins := 0
	for _, c := range ordered {
		r.TotalTrades++
		r.TotalGrossPL = r.TotalGrossPL.Add(c.GrossPL)
		r.TotalCommission = r.TotalCommission.Add(c.Commission)
		r.TotalNetPL = r.TotalNetPL.Add(c.NetPL)
		r.TotalVolume = r.TotalVolume.Add(notional(c))
		if c.Win() {
			wins++
		}
	}
	if r.TotalTrades > 0 {
		r.OverallWinRate = float64(wins) / float64(r.TotalTrades) * 100
	}

	for i := range r.Days {
		d := &r.Days[i]
		if r.BestDay == nil || d.NetPL.GreaterThan(r.BestDay.NetPL) {
			r.BestDay = &DayRef{Date: d.Date, NetPL: d.NetPL}
		}
		if r.WorstDay == nil || d.NetPL.LessThan(r.WorstDay.NetPL) {
			r.WorstDay = &DayRef{Date: d.Date, NetPL: d.NetPL}
		}
	}
	for i := range r.Weeks {
		w := &r.Weeks[i]
		if r.BestWeek == nil || w.NetPL.GreaterThan(r.BestWeek.NetPL) {
			r.BestWeek = &WeekRef{Year: w.Year, Week: w.Week, NetPL: w.NetPL}
		}
		if r.WorstWeek == nil || w.NetPL.LessThan(r.WorstWeek.NetPL) {
			r.WorstWeek = &WeekRef{Year: w.Year, Week: w.Week, NetPL: w.NetPL}
		}
	}
	for i := range r.Hours {
		h := &r.Hours[i]
		if r.BestHour == nil || h.NetPL.GreaterThan(r.BestHour.NetPL) {
			r.BestHour = &HourRef{Hour: h.Hour, NetPL: h.NetPL}
		}
		if r.WorstHour == nil || h.NetPL.LessThan(r.WorstHour.NetPL) {
			r.WorstHour = &HourRef{Hour: h.Hour, NetPL: h.NetPL}
		}
	}

	r.Sharpe = sharpe(r.Days, p.TradingDaysPerYear)
	r.MaxDrawdown = maxDrawdown(ordered)
	return r
}

func notional(c trade.Closed) decimal.Decimal {
	return c.Quantity.Mul(c.EntryPrice.Add(c.ExitPrice))
}

// stats is the common win/loss accumulator shared by every bucket type.
type stats struct {
	trades, wins, losses int
	gross, comm, net     decimal.Decimal
	winTotal, lossTotal  decimal.Decimal
	best, worst          decimal.Decimal
	volume               decimal.Decimal
	symbols              map[string]struct{}
}

func newStats() *stats {
	return &stats{symbols: map[string]struct{}{}}
}

func (s *stats) add(c trade.Closed) {
	s.trades++
	s.gross = s.gross.Add(c.GrossPL)
	s.comm = s.comm.Add(c.Commission)
	s.net = s.net.Add(c.NetPL)
	s.volume = s.volume.Add(notional(c))
	s.symbols[c.Symbol] = struct{}{}

	switch {
	case c.NetPL.IsPositive():
		s.wins++
		s.winTotal = s.winTotal.Add(c.NetPL)
	case c.NetPL.IsNegative():
		s.losses++
		s.lossTotal = s.lossTotal.Add(c.NetPL)
	}
	if s.trades == 1 || c.NetPL.GreaterThan(s.best) {
		s.best = c.NetPL
	}
	if s.trades == 1 || c.NetPL.LessThan(s.worst) {
		s.worst = c.NetPL
	}
}

func (s *stats) winRate() float64 {
	if s.trades == 0 {
		return 0
	}
	return float64(s.wins) / float64(s.trades) * 100
}

func (s *stats) avgWin() decimal.Decimal {
	if s.wins == 0 {
		return decimal.Zero
	}
	return s.winTotal.Div(decimal.NewFromInt(int64(s.wins)))
}

func (s *stats) avgLoss() decimal.Decimal {
	if s.losses == 0 {
		return decimal.Zero
	}
	return s.lossTotal.Div(decimal.NewFromInt(int64(s.losses)))
}

// profitFactor is gross wins over absolute gross losses, nil when there
// are no losing trades to divide by.
func (s *stats) profitFactor() *float64 {
	if s.losses == 0 || s.lossTotal.IsZero() {
		return nil
	}
	pf, _ := s.winTotal.Div(s.lossTotal.Abs()).Float64()
	return &pf
}

func (s *stats) symbolList() []string {
	out := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func computeDays(closed []trade.Closed, confidence float64) []DaySummary {
	byDate := map[string]*stats{}
	for _, c := range closed {
		key := c.ExitTime.Format(time.DateOnly)
		s, ok := byDate[key]
		if !ok {
			s = newStats()
			byDate[key] = s
		}
		s.add(c)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]DaySummary, 0, len(dates))
	for _, d := range dates {
		s := byDate[d]
		lo, hi := Wilson(s.wins, s.trades, confidence)
		out = append(out, DaySummary{
			Date:         d,
			Trades:       s.trades,
			Wins:         s.wins,
			Losses:       s.losses,
			WinRate:      s.winRate(),
			WinRateLow:   lo,
			WinRateHigh:  hi,
			GrossPL:      s.gross,
			Commission:   s.comm,
			NetPL:        s.net,
			AvgWin:       s.avgWin(),
			AvgLoss:      s.avgLoss(),
			BestTrade:    s.best,
			WorstTrade:   s.worst,
			Volume:       s.volume,
			Symbols:      s.symbolList(),
			ProfitFactor: s.profitFactor(),
		})
	}
	return out
}

func computeWeeks(closed []trade.Closed, days []DaySummary, confidence float64) []WeekSummary {
	type weekKey struct{ year, week int }
	byWeek := map[weekKey]*stats{}
	for _, c := range closed {
		y, w := c.ExitTime.ISOWeek()
		key := weekKey{y, w}
		s, ok := byWeek[key]
		if !ok {
			s = newStats()
			byWeek[key] = s
		}
		s.add(c)
	}

	// Day counts come from the already-bucketed day summaries.
	daysPerWeek := map[weekKey]int{}
	greenPerWeek := map[weekKey]int{}
	for _, d := range days {
		t, err := time.Parse(time.DateOnly, d.Date)
		if err != nil {
			continue
		}
		y, w := t.ISOWeek()
		key := weekKey{y, w}
		daysPerWeek[key]++
		if d.NetPL.IsPositive() {
			greenPerWeek[key]++
		}
	}

	keys := make([]weekKey, 0, len(byWeek))
	for k := range byWeek {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].week < keys[j].week
	})

	out := make([]WeekSummary, 0, len(keys))
	for _, k := range keys {
		s := byWeek[k]
		lo, hi := Wilson(s.wins, s.trades, confidence)
		ws := WeekSummary{
			Year:           k.year,
			Week:           k.week,
			Trades:         s.trades,
			Wins:           s.wins,
			Losses:         s.losses,
			WinRate:        s.winRate(),
			WinRateLow:     lo,
			WinRateHigh:    hi,
			GrossPL:        s.gross,
			Commission:     s.comm,
			NetPL:          s.net,
			AvgWin:         s.avgWin(),
			AvgLoss:        s.avgLoss(),
			BestTrade:      s.best,
			WorstTrade:     s.worst,
			Volume:         s.volume,
			Symbols:        s.symbolList(),
			TradingDays:    daysPerWeek[k],
			ProfitableDays: greenPerWeek[k],
		}
		ws.ProfitFactor = s.profitFactor()
		out = append(out, ws)
	}
	return out
}

func computeHours(closed []trade.Closed) []HourBucket {
	byHour := map[int]*stats{}
	for _, c := range closed {
		h := c.ExitTime.Hour()
		s, ok := byHour[h]
		if !ok {
			s = newStats()
			byHour[h] = s
		}
		s.add(c)
	}

	hours := make([]int, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	out := make([]HourBucket, 0, len(hours))
	for _, h := range hours {
		s := byHour[h]
		out = append(out, HourBucket{
			Hour:    h,
			Trades:  s.trades,
			Wins:    s.wins,
			Losses:  s.losses,
			WinRate: s.winRate(),
			NetPL:   s.net,
		})
	}
	return out
}

func computeSessions(closed []trade.Closed, sessions []Session) []SessionSummary {
	out := make([]SessionSummary, len(sessions))
	for i, win := range sessions {
		out[i] = SessionSummary{Session: win}
		s := newStats()
		for _, c := range closed {
			h := c.ExitTime.Hour()
			if h >= win.StartHour && h < win.EndHour {
				s.add(c)
			}
		}
		out[i].Trades = s.trades
		out[i].Wins = s.wins
		out[i].Losses = s.losses
		out[i].WinRate = s.winRate()
		out[i].NetPL = s.net
		if s.trades > 0 {
			out[i].AvgPL = s.net.Div(decimal.NewFromInt(int64(s.trades)))
		}
	}

	// Rank best windows first; name is the deterministic tie-break.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].NetPL.Equal(out[j].NetPL) {
			return out[i].NetPL.GreaterThan(out[j].NetPL)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
