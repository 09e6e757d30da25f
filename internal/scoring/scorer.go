package scoring

import (
	"context"
	"sort"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/pkg/logger"
)

// Input is everything the scorer reads for one run
type Input struct {
	Latest     *contracts.DaySnapshot
	Aggregates map[string]contracts.WindowAggregate
	Sets       *contracts.ConsecutiveSets
	TopFlow    contracts.TickerSet

	// OwnershipChange is the 30-day foreign ownership change (%p) by ticker
	OwnershipChange map[string]float64
}

// Scorer applies the staged decision pipeline to every ticker
// ⭐ SSOT: 후보 선정/점수 로직은 여기서만
type Scorer struct {
	config Config
	logger *logger.Logger
}

// NewScorer creates a new scorer
func NewScorer(config Config, logger *logger.Logger) *Scorer {
	return &Scorer{
		config: config,
		logger: logger,
	}
}

// Config returns the active configuration
func (s *Scorer) Config() Config {
	return s.config
}

// Score evaluates every ticker of the latest snapshot and returns sorted
// candidates plus rejection counts per stage. It stops with ctx.Err() once
// ctx is done.
func (s *Scorer) Score(ctx context.Context, in Input) ([]contracts.Candidate, map[string]int, error) {
	tickers := in.Latest.Tickers()
	candidates := make([]contracts.Candidate, 0)
	rejected := make(map[string]int)

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		c, stageName, ok := s.Evaluate(in, ticker)
		if !ok {
			rejected[stageName]++
			continue
		}
		candidates = append(candidates, c)
	}

	Sort(candidates)

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(tickers),
		"passed":       len(candidates),
		"filtered_out": len(tickers) - len(candidates),
		"filters":      rejected,
	}).Info("Scoring completed")

	return candidates, rejected, nil
}

// Evaluate runs one ticker through the pipeline. On rejection it returns
// the name of the rejecting stage and false.
func (s *Scorer) Evaluate(in Input, ticker string) (contracts.Candidate, string, bool) {
	ev := newEvaluation(in, ticker)

	for _, st := range pipeline {
		if !st.run(&s.config, ev) {
			return contracts.Candidate{}, st.name, false
		}
	}

	avg := make(map[contracts.InvestorClass]float64, len(contracts.ScreenClasses))
	for _, class := range contracts.ScreenClasses {
		avg[class] = ev.agg.Avg(class)
	}

	return contracts.Candidate{
		Ticker:                 ticker,
		Name:                   ev.quote.Name,
		Score:                  ev.score,
		Tier:                   ev.tier,
		Reasons:                ev.reasons,
		AvgNetBuy:              avg,
		AvgChangePct:           ev.agg.AvgChangePct,
		TotalAvg:               ev.agg.MinorTotal(),
		MarketCap:              ev.quote.MarketCap,
		ChangePct:              ev.quote.ChangePct,
		Strict:                 ev.sets.Strict.Has(ticker),
		ForeignOwnershipChange: in.OwnershipChange[ticker],
	}, "", true
}

func newEvaluation(in Input, ticker string) *evaluation {
	sets := in.Sets
	if sets == nil {
		sets = &contracts.ConsecutiveSets{}
	}
	latest := in.Latest

	return &evaluation{
		ticker:  ticker,
		quote:   latest.Quotes[ticker],
		foreign: latest.NetBuyOf(contracts.Foreign, ticker),
		trust:   latest.NetBuyOf(contracts.InvestmentTrust, ticker),
		pension: latest.NetBuyOf(contracts.Pension, ticker),
		finInv:  latest.NetBuyOf(contracts.FinancialInvestment, ticker),
		program: latest.ProgramOf(ticker),
		agg:     in.Aggregates[ticker],
		sets:    sets,
		topFlow: in.TopFlow,
	}
}

// Sort orders candidates by tier ascending, score descending, total window
// average descending, then ticker.
func Sort(candidates []contracts.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TotalAvg != b.TotalAvg {
			return a.TotalAvg > b.TotalAvg
		}
		return a.Ticker < b.Ticker
	})
}
