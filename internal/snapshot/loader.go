package snapshot

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/pkg/logger"
	"github.com/wonny/flowscan/pkg/metrics"
)

// Loader fetches one (date, market) snapshot from the provider.
// Each slice (quotes, per-class net-buy, program) is fetched in parallel;
// a failed slice degrades to empty and is marked unavailable.
// ⭐ SSOT: 일별 스냅샷 수집은 여기서만
type Loader struct {
	provider    contracts.MarketDataProvider
	concurrency int
	metrics     *metrics.Recorder
	logger      *logger.Logger
}

// NewLoader creates a new snapshot loader
func NewLoader(provider contracts.MarketDataProvider, concurrency int, rec *metrics.Recorder, log *logger.Logger) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		provider:    provider,
		concurrency: concurrency,
		metrics:     rec,
		logger:      log,
	}
}

// Load implements contracts.SnapshotSource. It only fails when ctx is done.
func (l *Loader) Load(ctx context.Context, date time.Time, market contracts.Market) (*contracts.DaySnapshot, error) {
	date = contracts.DateOf(date)
	snap := contracts.NewDaySnapshot(date, market)

	// 각 goroutine은 자기 슬롯에만 기록
	var (
		quotes     map[string]contracts.Quote
		quotesErr  error
		program    map[string]int64
		programErr error
		netBuy     = make([]map[string]int64, len(contracts.SnapshotClasses))
		netBuyErr  = make([]error, len(contracts.SnapshotClasses))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	g.Go(func() error {
		q, err := l.provider.Quotes(gctx, date, market)
		l.metrics.RecordProviderRequest("quotes", err)
		quotes, quotesErr = q, err
		return nil
	})

	for i, class := range contracts.SnapshotClasses {
		g.Go(func() error {
			nb, err := l.provider.NetBuyByInvestor(gctx, date, date, market, class)
			l.metrics.RecordProviderRequest("net_buy", err)
			netBuy[i], netBuyErr[i] = nb, err
			return nil
		})
	}

	g.Go(func() error {
		p, err := l.provider.ProgramNetBuy(gctx, date, market)
		l.metrics.RecordProviderRequest("program", err)
		program, programErr = p, err
		return nil
	})

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := l.logger.WithField("market", string(market)).WithDate("date", date)

	if quotesErr != nil {
		log.WithError(quotesErr).Warn("Quotes unavailable")
	} else {
		snap.Quotes = quotes
	}

	for i, class := range contracts.SnapshotClasses {
		if netBuyErr[i] != nil {
			log.WithError(netBuyErr[i]).WithField("class", string(class)).Warn("Net-buy unavailable, treated as zero")
			snap.Unavailable = append(snap.Unavailable, class)
			continue
		}
		snap.NetBuy[class] = netBuy[i]
	}

	if programErr != nil {
		log.WithError(programErr).Warn("Program net-buy unavailable, treated as zero")
	} else {
		snap.ProgramNetBuy = program
		snap.ProgramAvailable = true
	}

	log.WithFields(map[string]interface{}{
		"tickers":     len(snap.Quotes),
		"unavailable": len(snap.Unavailable),
		"complete":    snap.Complete(),
	}).Debug("Snapshot loaded")

	return snap, nil
}

// LoadWindow loads one snapshot per day, in parallel, preserving day order
func LoadWindow(ctx context.Context, src contracts.SnapshotSource, days []time.Time, market contracts.Market, concurrency int) ([]*contracts.DaySnapshot, error) {
	out := make([]*contracts.DaySnapshot, len(days))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, day := range days {
		g.Go(func() error {
			snap, err := src.Load(gctx, day, market)
			if err != nil {
				return err
			}
			out[i] = snap
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
