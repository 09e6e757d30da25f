package scoring

import (
	"sort"

	"github.com/wonny/flowscan/internal/contracts"
)

// TopFlowRatio returns the n tickers with the highest latest-day
// (foreign + trust + pension) net-buy relative to market cap.
// Tickers without a positive market cap are skipped.
func TopFlowRatio(latest *contracts.DaySnapshot, n int) contracts.TickerSet {
	out := contracts.NewTickerSet()
	if latest == nil || n <= 0 {
		return out
	}

	type ratioStock struct {
		ticker string
		ratio  float64
	}
	ratios := make([]ratioStock, 0, len(latest.Quotes))

	for ticker, q := range latest.Quotes {
		if q.MarketCap <= 0 {
			continue
		}
		var sum int64
		for _, class := range contracts.MinorClasses {
			sum += latest.NetBuyOf(class, ticker)
		}
		ratios = append(ratios, ratioStock{ticker, float64(sum) / float64(q.MarketCap)})
	}

	sort.Slice(ratios, func(i, j int) bool {
		if ratios[i].ratio != ratios[j].ratio {
			return ratios[i].ratio > ratios[j].ratio
		}
		return ratios[i].ticker < ratios[j].ticker
	})

	for i := 0; i < n && i < len(ratios); i++ {
		out.Add(ratios[i].ticker)
	}
	return out
}
