package contracts

import (
	"fmt"
	"strings"
)

// Market identifies a KRX equity market
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
)

// ParseMarket normalizes user input into a supported Market
func ParseMarket(s string) (Market, error) {
	switch Market(strings.ToUpper(strings.TrimSpace(s))) {
	case MarketKOSPI:
		return MarketKOSPI, nil
	case MarketKOSDAQ:
		return MarketKOSDAQ, nil
	default:
		return "", fmt.Errorf("unsupported market: %q", s)
	}
}

// InvestorClass tags the counterparty category of net-buy data
type InvestorClass string

const (
	Foreign             InvestorClass = "foreign"              // 외국인
	FinancialInvestment InvestorClass = "financial_investment" // 금융투자
	InvestmentTrust     InvestorClass = "investment_trust"     // 투신
	Pension             InvestorClass = "pension"              // 연기금
	Institution         InvestorClass = "institution"          // 기관합계 (연속 순매수 리포트 전용)
)

// ScreenClasses are fetched for every window day of a screen run
var ScreenClasses = []InvestorClass{Foreign, FinancialInvestment, InvestmentTrust, Pension}

// SnapshotClasses are fetched for every window day and cached together
var SnapshotClasses = []InvestorClass{Foreign, FinancialInvestment, InvestmentTrust, Pension, Institution}

// MinorClasses drive strict / relaxed consecutive-buy sets
var MinorClasses = []InvestorClass{Foreign, InvestmentTrust, Pension}

// StreakClasses are reported by the consecutive net-buy report
var StreakClasses = []InvestorClass{Foreign, Institution, Pension}

// Label returns the Korean display label used on KRX screens
func (c InvestorClass) Label() string {
	switch c {
	case Foreign:
		return "외국인"
	case FinancialInvestment:
		return "금융투자"
	case InvestmentTrust:
		return "투신"
	case Pension:
		return "연기금"
	case Institution:
		return "기관"
	default:
		return string(c)
	}
}

// Priority is the ordinal tier of a candidate; lower ranks first
type Priority int

const (
	PriorityNone Priority = 0
	Priority1    Priority = 1 // 빈집털이형
	Priority2    Priority = 2 // 정석 주도주형
	Priority3    Priority = 3 // 차선책
)

// String returns a short tier name
func (p Priority) String() string {
	switch p {
	case Priority1:
		return "opportunistic"
	case Priority2:
		return "full_alignment"
	case Priority3:
		return "partial_alignment"
	default:
		return "none"
	}
}

// Valid reports whether p is one of the three ranked tiers
func (p Priority) Valid() bool {
	return p >= Priority1 && p <= Priority3
}
