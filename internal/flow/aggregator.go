package flow

import (
	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/pkg/logger"
)

// Aggregator computes window averages of investor flow (수급)
// ⭐ SSOT: 기간 평균 순매수 계산은 여기서만
type Aggregator struct {
	logger *logger.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(log *logger.Logger) *Aggregator {
	return &Aggregator{
		logger: log,
	}
}

// Aggregate returns each ticker's arithmetic mean over every window day.
// A missing day, missing ticker or unavailable class contributes zero,
// so the divisor is always len(days).
func (a *Aggregator) Aggregate(tickers []string, days []*contracts.DaySnapshot) map[string]contracts.WindowAggregate {
	out := make(map[string]contracts.WindowAggregate, len(tickers))
	if len(days) == 0 {
		return out
	}
	n := float64(len(days))

	for _, ticker := range tickers {
		sums := make(map[contracts.InvestorClass]int64, len(contracts.ScreenClasses))
		var changeSum float64

		for _, day := range days {
			for _, class := range contracts.ScreenClasses {
				sums[class] += day.NetBuyOf(class, ticker)
			}
			if day != nil {
				changeSum += day.Quotes[ticker].ChangePct
			}
		}

		avg := make(map[contracts.InvestorClass]float64, len(sums))
		for class, sum := range sums {
			avg[class] = float64(sum) / n
		}
		out[ticker] = contracts.WindowAggregate{
			AvgNetBuy:    avg,
			AvgChangePct: changeSum / n,
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"days":    len(days),
	}).Debug("Aggregated window flows")

	return out
}
