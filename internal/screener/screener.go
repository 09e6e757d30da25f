package screener

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/flowscan/internal/calendar"
	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/flow"
	"github.com/wonny/flowscan/internal/scoring"
	"github.com/wonny/flowscan/internal/screenconfig"
	"github.com/wonny/flowscan/internal/snapshot"
	"github.com/wonny/flowscan/pkg/logger"
	"github.com/wonny/flowscan/pkg/metrics"
)

const (
	// 외국인 지분율 변화 비교 기준 (실제 기준일 - 30일, 직전 10일 내 영업일)
	ownershipLookbackDays = 30
	ownershipSearchSpan   = 10
)

// Screener coordinates one screen run:
// calendar → snapshots → aggregate → consecutive sets → score → names
// ⭐ SSOT: 스크리닝 실행 조율은 여기서만
type Screener struct {
	provider    contracts.MarketDataProvider
	source      contracts.SnapshotSource
	calendar    *calendar.Calendar
	aggregator  *flow.Aggregator
	rules       *screenconfig.Config
	concurrency int
	metrics     *metrics.Recorder
	logger      *logger.Logger

	now func() time.Time
}

// New creates a new screener. source is usually a cached snapshot.Loader over provider.
func New(
	provider contracts.MarketDataProvider,
	source contracts.SnapshotSource,
	cal *calendar.Calendar,
	rules *screenconfig.Config,
	concurrency int,
	rec *metrics.Recorder,
	log *logger.Logger,
) *Screener {
	if rules == nil {
		rules = screenconfig.Default()
	}
	return &Screener{
		provider:    provider,
		source:      source,
		calendar:    cal,
		aggregator:  flow.NewAggregator(log),
		rules:       rules,
		concurrency: concurrency,
		metrics:     rec,
		logger:      log,
		now:         contracts.Today,
	}
}

// Rules returns the active screen rules
func (s *Screener) Rules() *screenconfig.Config {
	return s.rules
}

// Calendar returns the trading calendar used by runs
func (s *Screener) Calendar() *calendar.Calendar {
	return s.calendar
}

// window holds the resolved inputs shared by screen and streak runs
type window struct {
	req  Request
	win  *contracts.Window
	days []*contracts.DaySnapshot
}

// Run executes a screen and returns sorted candidates.
// Repeated runs over the same provider data return the same candidates.
func (s *Screener) Run(ctx context.Context, req Request) (*contracts.ScreenResult, error) {
	start := time.Now()
	result, err := s.run(ctx, req)
	s.metrics.RecordRun(string(req.Market), time.Since(start), result.Count(), err)

	if err != nil {
		s.logger.WithError(err).WithField("market", string(req.Market)).Warn("Screen run failed")
		return nil, err
	}
	return result, nil
}

func (s *Screener) run(ctx context.Context, req Request) (*contracts.ScreenResult, error) {
	// 1. 기간 확정 + 스냅샷 로드
	w, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	req = w.req

	latest := w.days[len(w.days)-1]
	if len(latest.Quotes) == 0 {
		return nil, fmt.Errorf("%w: no quotes for %s on %s",
			contracts.ErrUniverseUnavailable, req.Market, latest.Date.Format("2006-01-02"))
	}

	runID := uuid.New().String()
	s.logger.WithDate("actual", w.win.Actual()).WithFields(map[string]interface{}{
		"run_id":   runID,
		"market":   string(req.Market),
		"window":   req.Window,
		"adjusted": w.win.Adjusted(),
	}).Info("Starting screen run")

	// 2. 기간 평균 + 연속 순매수 집합
	aggregates := s.aggregator.Aggregate(latest.Tickers(), w.days)
	sets := flow.BuildConsecutive(w.days)
	s.logger.WithFields(map[string]interface{}{
		"run_id":  runID,
		"strict":  sets.Strict.Sorted(),
		"relaxed": sets.Relaxed.Len(),
	}).Debug("Consecutive net-buy sets built")

	// 3. 수급비중 상위 + 외국인 지분율 변화
	cfg := s.rules.Scoring(req.MajorEok, req.MinorEok)
	topFlow := scoring.TopFlowRatio(latest, cfg.TopFlowN)

	warnings := completenessWarnings(w.days, screenScope)
	ownership, err := s.ownershipChange(ctx, w.win.Actual(), req.Market)
	if err != nil {
		s.logger.WithError(err).Warn("Foreign ownership change unavailable, treated as zero")
		warnings = append(warnings, "외국인 지분율 변화를 계산하지 못했습니다 (0으로 표시)")
	}

	// 4. 점수화
	scorer := scoring.NewScorer(cfg, s.logger)
	candidates, rejected, err := scorer.Score(ctx, scoring.Input{
		Latest:          latest,
		Aggregates:      aggregates,
		Sets:            sets,
		TopFlow:         topFlow,
		OwnershipChange: ownership,
	})
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	s.metrics.RecordRejections(rejected)

	// 5. 종목명
	tickers := candidatesTickers(candidates)
	names := make([]string, len(tickers))
	copy(names, tickers)
	s.resolveNames(ctx, tickers, latest, names)
	for i := range candidates {
		candidates[i].Name = names[i]
	}

	result := &contracts.ScreenResult{
		RunID:         runID,
		Market:        req.Market,
		RequestedDate: w.win.Requested,
		ActualDate:    w.win.Actual(),
		DateAdjusted:  w.win.Adjusted(),
		WindowDays:    w.win.Days,
		Candidates:    candidates,
		Rejections:    rejected,
		Warnings:      warnings,
		GeneratedAt:   time.Now().UTC(),
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":     runID,
		"candidates": len(candidates),
		"warnings":   len(warnings),
	}).Info("Screen run completed")

	return result, nil
}

// RunStreaks builds the consecutive net-buy report for foreign, institution
// and pension over the request window.
func (s *Screener) RunStreaks(ctx context.Context, req Request) (*contracts.StreakReport, error) {
	w, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	req = w.req

	th := s.rules.StreakThresholds(req.MajorEok, req.MinorEok)
	byClass, overlap := flow.Streaks(w.days, th)

	// 종목명은 한 번만 조회
	seen := make(map[string]int)
	var tickers []string
	for _, class := range contracts.StreakClasses {
		for _, e := range byClass[class] {
			if _, ok := seen[e.Ticker]; !ok {
				seen[e.Ticker] = len(tickers)
				tickers = append(tickers, e.Ticker)
			}
		}
	}
	names := make([]string, len(tickers))
	copy(names, tickers)
	latest := w.days[len(w.days)-1]
	s.resolveNames(ctx, tickers, latest, names)

	for _, class := range contracts.StreakClasses {
		for i := range byClass[class] {
			byClass[class][i].Name = names[seen[byClass[class][i].Ticker]]
		}
	}
	for i := range overlap {
		overlap[i].Name = names[seen[overlap[i].Ticker]]
	}

	report := &contracts.StreakReport{
		RunID:         uuid.New().String(),
		Market:        req.Market,
		RequestedDate: w.win.Requested,
		ActualDate:    w.win.Actual(),
		DateAdjusted:  w.win.Adjusted(),
		WindowDays:    w.win.Days,
		ByClass:       byClass,
		Intersection:  overlap,
		Warnings:      completenessWarnings(w.days, streakScope),
		GeneratedAt:   time.Now().UTC(),
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":       report.RunID,
		"market":       string(req.Market),
		"foreign":      len(byClass[contracts.Foreign]),
		"institution":  len(byClass[contracts.Institution]),
		"pension":      len(byClass[contracts.Pension]),
		"intersection": len(overlap),
	}).Info("Streak report completed")

	return report, nil
}

// prepare validates the request, resolves the window and loads its snapshots
func (s *Screener) prepare(ctx context.Context, req Request) (*window, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	win, err := s.calendar.Resolve(ctx, req.Date, req.Window)
	if err != nil {
		return nil, err
	}

	days, err := snapshot.LoadWindow(ctx, s.source, win.Days, req.Market, s.concurrency)
	if err != nil {
		return nil, fmt.Errorf("load window snapshots: %w", err)
	}

	return &window{req: req, win: win, days: days}, nil
}

// normalize fills defaults and validates against the static bounds and the rule bounds
func (s *Screener) normalize(req Request) (Request, error) {
	if m, err := contracts.ParseMarket(string(req.Market)); err == nil {
		req.Market = m
	}
	if req.Date.IsZero() {
		req.Date = s.now()
	}
	req.Date = contracts.DateOf(req.Date)
	if req.Window == 0 {
		req.Window = s.rules.Window.DefaultDays
	}

	if err := req.Validate(); err != nil {
		return req, err
	}
	if req.Window < s.rules.Window.MinDays || req.Window > s.rules.Window.MaxDays {
		return req, fmt.Errorf("%w: window must be between %d and %d",
			contracts.ErrInvalidRequest, s.rules.Window.MinDays, s.rules.Window.MaxDays)
	}
	return req, nil
}

// ownershipChange returns the foreign ownership change (%p) between actual
// and the last trading day on or before actual-30d.
func (s *Screener) ownershipChange(ctx context.Context, actual time.Time, market contracts.Market) (map[string]float64, error) {
	prior, err := s.calendar.LastTradingDayOnOrBefore(ctx, actual.AddDate(0, 0, -ownershipLookbackDays), ownershipSearchSpan)
	if err != nil {
		return nil, fmt.Errorf("resolve prior ownership date: %w", err)
	}

	var now, before map[string]float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		now, err = s.provider.ForeignOwnership(gctx, actual, market)
		s.metrics.RecordProviderRequest("ownership", err)
		return err
	})
	g.Go(func() error {
		var err error
		before, err = s.provider.ForeignOwnership(gctx, prior, market)
		s.metrics.RecordProviderRequest("ownership", err)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: foreign ownership: %w", contracts.ErrSnapshotUnavailable, err)
	}

	change := make(map[string]float64, len(now))
	for ticker, pct := range now {
		if prev, ok := before[ticker]; ok {
			change[ticker] = pct - prev
		}
	}
	return change, nil
}

// resolveNames fills names[i] for tickers[i]: quote name, provider name, else ticker id
func (s *Screener) resolveNames(ctx context.Context, tickers []string, latest *contracts.DaySnapshot, names []string) {
	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for i, ticker := range tickers {
		if q, ok := latest.Quotes[ticker]; ok && q.Name != "" {
			names[i] = q.Name
			continue
		}
		g.Go(func() error {
			name, err := s.provider.TickerName(gctx, ticker)
			s.metrics.RecordProviderRequest("name", err)
			if err != nil || name == "" {
				if err != nil && !errors.Is(err, contracts.ErrTickerMetadataUnavailable) {
					s.logger.WithError(err).WithField("ticker", ticker).Debug("Ticker name lookup failed")
				}
				names[i] = ticker
				return nil
			}
			names[i] = name
			return nil
		})
	}
	_ = g.Wait()
}

// gapScope names the slices a run actually reads
type gapScope struct {
	classes     []contracts.InvestorClass
	consecutive []contracts.InvestorClass
	program     bool
}

var (
	screenScope = gapScope{classes: contracts.ScreenClasses, consecutive: contracts.MinorClasses, program: true}
	streakScope = gapScope{classes: contracts.StreakClasses, consecutive: contracts.StreakClasses}
)

// completenessWarnings lists per-day gaps in the slices scope reads
func completenessWarnings(days []*contracts.DaySnapshot, scope gapScope) []string {
	var warnings []string
	for _, day := range days {
		if day == nil {
			continue
		}
		date := day.Date.Format(logger.DateLayout)
		if len(day.Quotes) == 0 {
			warnings = append(warnings, fmt.Sprintf("%s 시세 데이터 없음", date))
		}
		for _, class := range scope.classes {
			if day.HasClass(class) {
				continue
			}
			if slices.Contains(scope.consecutive, class) {
				warnings = append(warnings, fmt.Sprintf("%s %s 순매수 데이터 없음 (연속 매수 판정 제외, 0으로 처리)", date, class.Label()))
			} else {
				warnings = append(warnings, fmt.Sprintf("%s %s 순매수 데이터 없음 (0으로 처리)", date, class.Label()))
			}
		}
		if scope.program && !day.ProgramAvailable {
			warnings = append(warnings, fmt.Sprintf("%s 프로그램 매매 데이터 없음 (0으로 처리)", date))
		}
	}
	return warnings
}

func candidatesTickers(candidates []contracts.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Ticker
	}
	return out
}
