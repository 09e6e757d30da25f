package contracts

import "time"

// Candidate is a ticker that survived every screening stage
// ⭐ SSOT: 스크리닝 결과 종목
type Candidate struct {
	Ticker string   `json:"ticker"`
	Name   string   `json:"name"`
	Score  int      `json:"score"`
	Tier   Priority `json:"tier"`

	// Reasons are short labels in the order they were triggered
	Reasons []string `json:"reasons"`

	// Window averages per class (원), financial_investment included for display
	AvgNetBuy    map[InvestorClass]float64 `json:"avg_net_buy"`
	AvgChangePct float64                   `json:"avg_change_pct"`
	TotalAvg     float64                   `json:"total_avg"` // 외국인+투신+연기금 평균 합

	MarketCap int64   `json:"market_cap"`
	ChangePct float64 `json:"change_pct"` // 최근일 등락률

	Strict bool `json:"strict"`

	// ForeignOwnershipChange is the 30-day change in percentage points (0 if unavailable)
	ForeignOwnershipChange float64 `json:"foreign_ownership_change"`
}

// ScreenResult is the output of one screen run
type ScreenResult struct {
	RunID         string    `json:"run_id"`
	Market        Market    `json:"market"`
	RequestedDate time.Time `json:"requested_date"`
	ActualDate    time.Time `json:"actual_date"`
	DateAdjusted  bool      `json:"date_adjusted"`

	WindowDays []time.Time     `json:"window_days"`
	Candidates []Candidate     `json:"candidates"`
	Rejections map[string]int `json:"rejections"` // stage → 탈락 종목 수

	// Warnings carries data completeness notices
	Warnings []string `json:"warnings,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Count returns the number of candidates
func (r *ScreenResult) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Candidates)
}

// StreakEntry is one ticker that bought on every window day for a class
type StreakEntry struct {
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"`
	Daily  []int64 `json:"daily"` // 일자별 순매수 (원), window 순서
	Total  int64   `json:"total"`
}

// StreakOverlap is a ticker present in two or more class streak lists
type StreakOverlap struct {
	Ticker  string          `json:"ticker"`
	Name    string          `json:"name"`
	Classes []InvestorClass `json:"classes"`
	Total   int64           `json:"total"`
}

// StreakReport lists consecutive net buyers per class over a window
type StreakReport struct {
	RunID         string    `json:"run_id"`
	Market        Market    `json:"market"`
	RequestedDate time.Time `json:"requested_date"`
	ActualDate    time.Time `json:"actual_date"`
	DateAdjusted  bool      `json:"date_adjusted"`

	WindowDays   []time.Time                     `json:"window_days"`
	ByClass      map[InvestorClass][]StreakEntry `json:"by_class"`
	Intersection []StreakOverlap                 `json:"intersection"`
	Warnings     []string                        `json:"warnings,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}
