package contracts

import (
	"sort"
	"time"
)

// Quote is one ticker's end-of-day market cap and price change
type Quote struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	MarketCap int64   `json:"market_cap"` // 원
	ChangePct float64 `json:"change_pct"` // 등락률 (%)
}

// DaySnapshot is everything the engine needs about one (date, market).
// All amounts are KRW (원).
// ⭐ SSOT: 일별 시장 스냅샷 구조는 여기서만
type DaySnapshot struct {
	Date   time.Time `json:"date"`
	Market Market    `json:"market"`

	Quotes map[string]Quote `json:"quotes"`

	// NetBuy[class][ticker] = 순매수거래대금
	NetBuy map[InvestorClass]map[string]int64 `json:"net_buy"`
	// Unavailable lists classes whose fetch failed for this day
	Unavailable []InvestorClass `json:"unavailable,omitempty"`

	ProgramNetBuy    map[string]int64 `json:"program_net_buy"`
	ProgramAvailable bool             `json:"program_available"`
}

// NewDaySnapshot returns an empty snapshot with initialized maps
func NewDaySnapshot(date time.Time, market Market) *DaySnapshot {
	return &DaySnapshot{
		Date:          date,
		Market:        market,
		Quotes:        map[string]Quote{},
		NetBuy:        map[InvestorClass]map[string]int64{},
		ProgramNetBuy: map[string]int64{},
	}
}

// NetBuyOf returns a ticker's net-buy for class; missing data reads as zero
func (s *DaySnapshot) NetBuyOf(class InvestorClass, ticker string) int64 {
	if s == nil {
		return 0
	}
	return s.NetBuy[class][ticker]
}

// ProgramOf returns a ticker's program-trading net-buy; missing reads as zero
func (s *DaySnapshot) ProgramOf(ticker string) int64 {
	if s == nil {
		return 0
	}
	return s.ProgramNetBuy[ticker]
}

// HasClass reports whether class data was obtained for this day
func (s *DaySnapshot) HasClass(class InvestorClass) bool {
	if s == nil {
		return false
	}
	for _, c := range s.Unavailable {
		if c == class {
			return false
		}
	}
	_, ok := s.NetBuy[class]
	return ok
}

// Complete reports whether every slice of the snapshot was fetched
func (s *DaySnapshot) Complete() bool {
	return s.CompleteFor(SnapshotClasses) && len(s.Unavailable) == 0
}

// CompleteFor reports whether quotes, program data and every one of classes
// were fetched. Classes outside the list may still be missing.
func (s *DaySnapshot) CompleteFor(classes []InvestorClass) bool {
	if s == nil || len(s.Quotes) == 0 || !s.ProgramAvailable {
		return false
	}
	for _, c := range classes {
		if !s.HasClass(c) {
			return false
		}
	}
	return true
}

// Tickers returns quote tickers in ascending order
func (s *DaySnapshot) Tickers() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Quotes))
	for t := range s.Quotes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Window is the ordered set of trading days a screen looks at
type Window struct {
	Requested time.Time   `json:"requested"`
	Days      []time.Time `json:"days"` // ascending
}

// Actual returns the last (most recent) trading day of the window
func (w *Window) Actual() time.Time {
	if w == nil || len(w.Days) == 0 {
		return time.Time{}
	}
	return w.Days[len(w.Days)-1]
}

// Adjusted reports whether the window ends on a day other than the requested one
func (w *Window) Adjusted() bool {
	return !w.Actual().Equal(w.Requested)
}

// WindowAggregate holds per-ticker window averages
type WindowAggregate struct {
	AvgNetBuy    map[InvestorClass]float64 `json:"avg_net_buy"`
	AvgChangePct float64                   `json:"avg_change_pct"`
}

// Avg returns the window-average net-buy for class
func (a WindowAggregate) Avg(class InvestorClass) float64 {
	return a.AvgNetBuy[class]
}

// MinorTotal returns the summed window average of the minor classes
func (a WindowAggregate) MinorTotal() float64 {
	var sum float64
	for _, c := range MinorClasses {
		sum += a.AvgNetBuy[c]
	}
	return sum
}

// ConsecutiveSets holds consecutive net-buy sets for one window
type ConsecutiveSets struct {
	ByClass map[InvestorClass]TickerSet `json:"by_class"`
	Strict  TickerSet                   `json:"strict"`  // 3주체 모두
	Relaxed TickerSet                   `json:"relaxed"` // 2주체 이상

	// Missing[class] lists window days whose class data was unavailable;
	// any entry empties that class's consecutive set.
	Missing map[InvestorClass][]time.Time `json:"missing,omitempty"`
}

// In reports whether ticker bought on every window day for class
func (c *ConsecutiveSets) In(class InvestorClass, ticker string) bool {
	if c == nil {
		return false
	}
	return c.ByClass[class].Has(ticker)
}
