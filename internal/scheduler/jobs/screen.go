package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/screener"
	"github.com/wonny/flowscan/pkg/logger"
)

// Runner runs one screen
type Runner interface {
	Run(ctx context.Context, req screener.Request) (*contracts.ScreenResult, error)
}

// ScreenJob runs the post-close screen for each configured market and keeps
// the latest result per market. Non-trading days are skipped.
// ⭐ SSOT: 장 마감 후 스크리닝 스케줄은 이 Job에서만
type ScreenJob struct {
	runner   Runner
	markets  []contracts.Market
	schedule string
	logger   *logger.Logger

	mu     sync.RWMutex
	latest map[contracts.Market]*contracts.ScreenResult

	now func() time.Time
}

// NewScreenJob creates a new screen job
func NewScreenJob(runner Runner, markets []contracts.Market, schedule string, log *logger.Logger) *ScreenJob {
	return &ScreenJob{
		runner:   runner,
		markets:  markets,
		schedule: schedule,
		logger:   log,
		latest:   make(map[contracts.Market]*contracts.ScreenResult),
		now:      contracts.Today,
	}
}

// Name returns the job name
func (j *ScreenJob) Name() string {
	return "post_close_screen"
}

// Schedule returns the cron schedule (KST, with seconds)
func (j *ScreenJob) Schedule() string {
	return j.schedule
}

// Run screens every market for today. A market failure does not stop the
// others; the joined error is returned so the scheduler can retry.
func (j *ScreenJob) Run(ctx context.Context) error {
	today := j.now()
	var errs []error

	for _, market := range j.markets {
		log := j.logger.WithField("market", string(market)).WithDate("date", today)

		res, err := j.runner.Run(ctx, screener.Request{Market: market, Date: today})
		if err != nil {
			errs = append(errs, fmt.Errorf("screen %s: %w", market, err))
			continue
		}

		if res.DateAdjusted {
			log.WithDate("actual", res.ActualDate).Info("Not a trading day, skipping")
			continue
		}

		j.mu.Lock()
		j.latest[market] = res
		j.mu.Unlock()

		top := make([]string, 0, 5)
		for i := 0; i < len(res.Candidates) && i < 5; i++ {
			top = append(top, res.Candidates[i].Ticker)
		}
		log.WithFields(map[string]interface{}{
			"run_id":     res.RunID,
			"candidates": res.Count(),
			"top":        top,
			"warnings":   len(res.Warnings),
		}).Info("Scheduled screen completed")
	}

	return errors.Join(errs...)
}

// Latest returns the last successful result for market
func (j *ScreenJob) Latest(market contracts.Market) (*contracts.ScreenResult, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	res, ok := j.latest[market]
	return res, ok
}
