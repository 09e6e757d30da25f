package contracts

import "errors"

// Run-level errors abort a screen
var (
	ErrInsufficientTradingDays = errors.New("insufficient trading days")
	ErrCalendarUnavailable     = errors.New("trading calendar unavailable")
	ErrUniverseUnavailable     = errors.New("market universe unavailable")
	ErrInvalidRequest          = errors.New("invalid screen request")
)

// Slice-level errors degrade the affected figure and the run continues
var (
	ErrSnapshotUnavailable       = errors.New("snapshot unavailable")
	ErrTickerMetadataUnavailable = errors.New("ticker metadata unavailable")
)

// UserMessage maps an engine error to a short message fit for end users.
// Provider error text is never exposed.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "요청 값이 올바르지 않습니다."
	case errors.Is(err, ErrInsufficientTradingDays):
		return "분석 기간에 해당하는 영업일을 확보하지 못했습니다."
	case errors.Is(err, ErrCalendarUnavailable):
		return "영업일 정보를 조회하지 못했습니다. 잠시 후 다시 시도해 주세요."
	case errors.Is(err, ErrUniverseUnavailable):
		return "시세 데이터 조회에 실패했습니다. 잠시 후 다시 시도해 주세요."
	default:
		return "분석 중 오류가 발생했습니다."
	}
}

// IsRunLevel reports whether err aborts a screen run
func IsRunLevel(err error) bool {
	return errors.Is(err, ErrInsufficientTradingDays) ||
		errors.Is(err, ErrCalendarUnavailable) ||
		errors.Is(err, ErrUniverseUnavailable) ||
		errors.Is(err, ErrInvalidRequest)
}
