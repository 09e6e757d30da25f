package screenconfig

import (
	"math"

	"github.com/wonny/flowscan/internal/flow"
	"github.com/wonny/flowscan/internal/scoring"
)

// Eok is 1억원 in KRW
const Eok int64 = 100_000_000

// Config는 스크리닝 규칙 전체 설정 (금액 단위: 억원)
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Window    Window    `yaml:"window" json:"window"`
	Filters   Filters   `yaml:"filters" json:"filters"`
	Floors    Floors    `yaml:"floors" json:"floors"`
	Scores    Scores    `yaml:"scores" json:"scores"`
	FlowRatio FlowRatio `yaml:"flow_ratio" json:"flow_ratio"`
	Streaks   Streaks   `yaml:"streaks" json:"streaks"`
}

// Meta 메타 정보
type Meta struct {
	RulesID string `yaml:"rules_id" json:"rules_id"`
	Version string `yaml:"version" json:"version"`
}

// Window 분석 기간 (영업일)
type Window struct {
	DefaultDays int `yaml:"default_days" json:"default_days"`
	MinDays     int `yaml:"min_days" json:"min_days"`
	MaxDays     int `yaml:"max_days" json:"max_days"`
}

// Filters 광탈 조건
type Filters struct {
	OverheatChangePct float64 `yaml:"overheat_change_pct" json:"overheat_change_pct"`
	DumpingCapRatio   float64 `yaml:"dumping_cap_ratio" json:"dumping_cap_ratio"`
}

// Floors 순매수 하한 (억원)
type Floors struct {
	MajorEok      float64 `yaml:"major_eok" json:"major_eok"`               // 외국인
	MinorEok      float64 `yaml:"minor_eok" json:"minor_eok"`               // 투신/연기금
	MinFlowSumEok float64 `yaml:"min_flow_sum_eok" json:"min_flow_sum_eok"` // 평균 합계
}

// Scores 순위별 점수
type Scores struct {
	Priority1 int `yaml:"priority1" json:"priority1"`
	Priority2 int `yaml:"priority2" json:"priority2"`
	Priority3 int `yaml:"priority3" json:"priority3"`
	FlowBonus int `yaml:"flow_bonus" json:"flow_bonus"`
}

// FlowRatio 수급비중 가산점
type FlowRatio struct {
	TopN int `yaml:"top_n" json:"top_n"`
}

// Streaks 연속 순매수 리포트 기준 (억원)
type Streaks struct {
	MajorEok float64 `yaml:"major_eok" json:"major_eok"` // 외국인/기관 기간 합계
	MinorEok float64 `yaml:"minor_eok" json:"minor_eok"` // 연기금 기간 합계
}

// Default returns the built-in rules used when no YAML is configured
func Default() *Config {
	return &Config{
		Meta:      Meta{RulesID: "flow_v2", Version: "2"},
		Window:    Window{DefaultDays: 3, MinDays: 2, MaxDays: 5},
		Filters:   Filters{OverheatChangePct: 15.0, DumpingCapRatio: 0.001},
		Floors:    Floors{MajorEok: 20, MinorEok: 10, MinFlowSumEok: 10},
		Scores:    Scores{Priority1: 100, Priority2: 70, Priority3: 40, FlowBonus: 10},
		FlowRatio: FlowRatio{TopN: 50},
		Streaks:   Streaks{MajorEok: 100, MinorEok: 10},
	}
}

// EokToKRW converts 억원 to 원
func EokToKRW(eok float64) int64 {
	return int64(math.Round(eok * float64(Eok)))
}

// Scoring converts the rules to a scorer config. Non-zero overrides
// replace the major (외국인) and minor (투신/연기금) floors.
func (c *Config) Scoring(majorEok, minorEok float64) scoring.Config {
	if majorEok <= 0 {
		majorEok = c.Floors.MajorEok
	}
	if minorEok <= 0 {
		minorEok = c.Floors.MinorEok
	}

	return scoring.Config{
		OverheatChangePct: c.Filters.OverheatChangePct,
		DumpingCapRatio:   c.Filters.DumpingCapRatio,
		MajorFloor:        EokToKRW(majorEok),
		MinorFloor:        EokToKRW(minorEok),
		MinFlowSum:        EokToKRW(c.Floors.MinFlowSumEok),
		Priority1Score:    c.Scores.Priority1,
		Priority2Score:    c.Scores.Priority2,
		Priority3Score:    c.Scores.Priority3,
		FlowBonus:         c.Scores.FlowBonus,
		TopFlowN:          c.FlowRatio.TopN,
	}
}

// StreakThresholds converts the streak report thresholds, applying overrides
func (c *Config) StreakThresholds(majorEok, minorEok float64) flow.StreakThresholds {
	if majorEok <= 0 {
		majorEok = c.Streaks.MajorEok
	}
	if minorEok <= 0 {
		minorEok = c.Streaks.MinorEok
	}
	return flow.StreakThresholds{
		Major: EokToKRW(majorEok),
		Minor: EokToKRW(minorEok),
	}
}
