package screenconfig

import "fmt"

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.RulesID == "" {
		return ValidationError{"meta.rules_id", "required"}
	}

	// === Window ===
	w := cfg.Window
	if w.MinDays < 1 {
		return ValidationError{"window.min_days", "must be >= 1"}
	}
	if w.MaxDays < w.MinDays {
		return ValidationError{"window.max_days", "must be >= min_days"}
	}
	if w.DefaultDays < w.MinDays || w.DefaultDays > w.MaxDays {
		return ValidationError{"window.default_days", fmt.Sprintf("must be in [%d, %d]", w.MinDays, w.MaxDays)}
	}

	// === Filters ===
	if cfg.Filters.OverheatChangePct <= 0 || cfg.Filters.OverheatChangePct > 30 {
		return ValidationError{"filters.overheat_change_pct", "must be in (0, 30]"}
	}
	if cfg.Filters.DumpingCapRatio <= 0 || cfg.Filters.DumpingCapRatio >= 1 {
		return ValidationError{"filters.dumping_cap_ratio", "must be in (0, 1)"}
	}

	// === Floors ===
	if cfg.Floors.MajorEok <= 0 {
		return ValidationError{"floors.major_eok", "must be > 0"}
	}
	if cfg.Floors.MinorEok <= 0 {
		return ValidationError{"floors.minor_eok", "must be > 0"}
	}
	if cfg.Floors.MinFlowSumEok < 0 {
		return ValidationError{"floors.min_flow_sum_eok", "must be >= 0"}
	}

	// === Scores ===
	// 순위 간 점수 역전 방지
	s := cfg.Scores
	if s.Priority3 <= 0 || s.Priority2 <= s.Priority3 || s.Priority1 <= s.Priority2 {
		return ValidationError{"scores", "must satisfy priority1 > priority2 > priority3 > 0"}
	}
	if s.FlowBonus < 0 {
		return ValidationError{"scores.flow_bonus", "must be >= 0"}
	}

	// === Flow ratio ===
	if cfg.FlowRatio.TopN < 0 {
		return ValidationError{"flow_ratio.top_n", "must be >= 0"}
	}

	// === Streaks ===
	if cfg.Streaks.MajorEok <= 0 || cfg.Streaks.MinorEok <= 0 {
		return ValidationError{"streaks", "thresholds must be > 0"}
	}

	return nil
}
