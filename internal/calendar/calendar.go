package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/pkg/logger"
)

// Config holds calendar settings
type Config struct {
	ProxyTicker  string // 영업일 판정 기준 종목
	LookbackDays int    // 조회 범위 (달력일)
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{ProxyTicker: "005930", LookbackDays: 30}
}

// Calendar derives trading days from a liquid proxy security's history
// ⭐ SSOT: 영업일 판정은 여기서만
type Calendar struct {
	provider contracts.MarketDataProvider
	config   Config
	logger   *logger.Logger
}

// New creates a new calendar
func New(provider contracts.MarketDataProvider, config Config, log *logger.Logger) *Calendar {
	return &Calendar{
		provider: provider,
		config:   config,
		logger:   log,
	}
}

// Resolve returns the last size trading days on or before ref, ascending.
// Provider failure is fatal (ErrCalendarUnavailable).
func (c *Calendar) Resolve(ctx context.Context, ref time.Time, size int) (*contracts.Window, error) {
	ref = contracts.DateOf(ref)
	from := ref.AddDate(0, 0, -c.config.LookbackDays)

	days, err := c.Days(ctx, from, ref)
	if err != nil {
		return nil, err
	}

	if len(days) < size {
		return nil, fmt.Errorf("%w: need %d, found %d in %d days before %s",
			contracts.ErrInsufficientTradingDays, size, len(days), c.config.LookbackDays, ref.Format("2006-01-02"))
	}

	w := &contracts.Window{
		Requested: ref,
		Days:      days[len(days)-size:],
	}

	c.logger.WithDate("requested", ref).WithDate("actual", w.Actual()).WithFields(map[string]interface{}{
		"adjusted": w.Adjusted(),
		"size":     size,
	}).Debug("Resolved trading window")

	return w, nil
}

// LastTradingDayOnOrBefore returns the latest trading day in [date-spanDays, date]
func (c *Calendar) LastTradingDayOnOrBefore(ctx context.Context, date time.Time, spanDays int) (time.Time, error) {
	date = contracts.DateOf(date)
	days, err := c.Days(ctx, date.AddDate(0, 0, -spanDays), date)
	if err != nil {
		return time.Time{}, err
	}
	if len(days) == 0 {
		return time.Time{}, fmt.Errorf("%w: none in %d days before %s",
			contracts.ErrInsufficientTradingDays, spanDays, date.Format("2006-01-02"))
	}
	return days[len(days)-1], nil
}

// Days returns the distinct trading days in [from, to], ascending
func (c *Calendar) Days(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	from, to = contracts.DateOf(from), contracts.DateOf(to)

	raw, err := c.provider.TradingDays(ctx, from, to, c.config.ProxyTicker)
	if err != nil {
		c.logger.WithError(err).WithDate("from", from).WithDate("to", to).
			WithField("proxy", c.config.ProxyTicker).Error("Trading calendar lookup failed")
		return nil, fmt.Errorf("%w: %w", contracts.ErrCalendarUnavailable, err)
	}

	seen := make(map[time.Time]struct{}, len(raw))
	days := make([]time.Time, 0, len(raw))
	for _, d := range raw {
		d = contracts.DateOf(d)
		if d.Before(from) || d.After(to) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	return days, nil
}
