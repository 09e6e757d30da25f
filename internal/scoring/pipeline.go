package scoring

import (
	"fmt"

	"github.com/wonny/flowscan/internal/contracts"
)

// Stage names, in evaluation order
const (
	StageOverheat        = "overheat"
	StageDumping         = "dumping"
	StageGate            = "gate"
	StageClassify        = "classify"
	StageBonus           = "bonus"
	StageMinFlowSum      = "min_flow_sum"
	StageNegativeAverage = "negative_average"
)

// Reason labels
const (
	ReasonProgramAbsorbed = "프로그램 매도세 극복"
	ReasonFullAlignment   = "외인/투신/연기금 동반 매수"
	ReasonTopFlowRatio    = "수급비중 상위"
)

func reasonPartial(n int) string {
	return fmt.Sprintf("주요 주체 %d곳 매수", n)
}

// evaluation carries one ticker through the stages
type evaluation struct {
	ticker string
	quote  contracts.Quote

	// latest-day net-buy
	foreign, trust, pension, finInv, program int64

	agg     contracts.WindowAggregate
	sets    *contracts.ConsecutiveSets
	topFlow contracts.TickerSet

	isP1    bool
	tier    contracts.Priority
	score   int
	reasons []string
}

// stage returns false to reject the ticker
type stage struct {
	name string
	run  func(cfg *Config, ev *evaluation) bool
}

var pipeline = []stage{
	{StageOverheat, overheat},
	{StageDumping, dumping},
	{StageGate, gate},
	{StageClassify, classify},
	{StageBonus, bonus},
	{StageMinFlowSum, minFlowSum},
	{StageNegativeAverage, negativeAverage},
}

// overheat: 당일 급등 종목 제외
func overheat(cfg *Config, ev *evaluation) bool {
	return ev.quote.ChangePct < cfg.OverheatChangePct
}

// dumping: 금융투자 대량 매도 제외
func dumping(cfg *Config, ev *evaluation) bool {
	limit := float64(ev.quote.MarketCap) * cfg.DumpingCapRatio
	return float64(ev.finInv) >= -limit
}

// gate: 1순위 조건 충족 시 연속 순매수 여부와 무관하게 통과
func gate(cfg *Config, ev *evaluation) bool {
	ev.isP1 = ev.program < 0 &&
		ev.foreign >= cfg.MajorFloor &&
		ev.trust >= cfg.MinorFloor &&
		ev.pension >= cfg.MinorFloor

	return ev.isP1 || ev.sets.Relaxed.Has(ev.ticker)
}

// classify assigns the first matching tier
func classify(cfg *Config, ev *evaluation) bool {
	switch {
	case ev.isP1:
		ev.tier = contracts.Priority1
		ev.score += cfg.Priority1Score
		ev.reasons = append(ev.reasons, ReasonProgramAbsorbed)
		return true

	case ev.sets.Strict.Has(ev.ticker) && ev.foreign > 0 && ev.trust > 0 && ev.pension > 0:
		ev.tier = contracts.Priority2
		ev.score += cfg.Priority2Score
		ev.reasons = append(ev.reasons, ReasonFullAlignment)
		return true
	}

	buying := 0
	for _, v := range []int64{ev.foreign, ev.trust, ev.pension} {
		if v > 0 {
			buying++
		}
	}
	if buying < 2 {
		return false
	}

	// 연속 순매수 주체는 평균 금액 하한을 충족해야 함
	for _, class := range contracts.MinorClasses {
		if !ev.sets.In(class, ev.ticker) {
			continue
		}
		if ev.agg.Avg(class) < float64(floorOf(cfg, class)) {
			return false
		}
	}

	ev.tier = contracts.Priority3
	ev.score += cfg.Priority3Score
	ev.reasons = append(ev.reasons, reasonPartial(buying))
	return true
}

func floorOf(cfg *Config, class contracts.InvestorClass) int64 {
	if class == contracts.Foreign {
		return cfg.MajorFloor
	}
	return cfg.MinorFloor
}

// bonus never rejects
func bonus(cfg *Config, ev *evaluation) bool {
	if ev.topFlow.Has(ev.ticker) {
		ev.score += cfg.FlowBonus
		ev.reasons = append(ev.reasons, ReasonTopFlowRatio)
	}
	return true
}

func minFlowSum(cfg *Config, ev *evaluation) bool {
	return ev.agg.MinorTotal() >= float64(cfg.MinFlowSum)
}

func negativeAverage(cfg *Config, ev *evaluation) bool {
	for _, class := range contracts.MinorClasses {
		if ev.agg.Avg(class) < 0 {
			return false
		}
	}
	return true
}
