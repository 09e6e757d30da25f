package scoring

// Config defines exclusion filters, tier floors and scores.
// All amounts are KRW (원).
// SSOT: config/screen.yaml (internal/screenconfig가 억원 → 원 변환)
type Config struct {
	// Exclusion filters
	OverheatChangePct float64 // 당일 등락률 이상이면 과열 제외 (예: 15.0)
	DumpingCapRatio   float64 // 금융투자 순매도가 시총 × ratio 초과 시 제외 (예: 0.001)

	// Floors
	MajorFloor int64 // 외국인 (예: 20억)
	MinorFloor int64 // 투신/연기금 각각 (예: 10억)
	MinFlowSum int64 // 외국인+투신+연기금 평균 합계 하한 (예: 10억)

	// Scores
	Priority1Score int
	Priority2Score int
	Priority3Score int
	FlowBonus      int

	// TopFlowN is the size of the flow-ratio bonus set
	TopFlowN int
}

const eok int64 = 100_000_000

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		OverheatChangePct: 15.0,
		DumpingCapRatio:   0.001,
		MajorFloor:        20 * eok,
		MinorFloor:        10 * eok,
		MinFlowSum:        10 * eok,
		Priority1Score:    100,
		Priority2Score:    70,
		Priority3Score:    40,
		FlowBonus:         10,
		TopFlowN:          50,
	}
}
