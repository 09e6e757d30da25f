package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/screener"
	"github.com/wonny/flowscan/pkg/logger"
)

type fakeRunner struct {
	results map[contracts.Market]*contracts.ScreenResult
	errs    map[contracts.Market]error
	reqs    []screener.Request
}

func (f *fakeRunner) Run(ctx context.Context, req screener.Request) (*contracts.ScreenResult, error) {
	f.reqs = append(f.reqs, req)
	if err := f.errs[req.Market]; err != nil {
		return nil, err
	}
	return f.results[req.Market], nil
}

var friday = time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)

func TestScreenJob_Run(t *testing.T) {
	runner := &fakeRunner{
		results: map[contracts.Market]*contracts.ScreenResult{
			contracts.MarketKOSPI: {
				RunID:      "r1",
				ActualDate: friday,
				Candidates: []contracts.Candidate{{Ticker: "005930"}},
			},
		},
		errs: map[contracts.Market]error{
			contracts.MarketKOSDAQ: contracts.ErrUniverseUnavailable,
		},
	}

	job := NewScreenJob(runner, []contracts.Market{contracts.MarketKOSPI, contracts.MarketKOSDAQ}, "0 40 16 * * MON-FRI", logger.Nop())
	job.now = func() time.Time { return friday }

	err := job.Run(context.Background())
	assert.ErrorIs(t, err, contracts.ErrUniverseUnavailable)
	require.Len(t, runner.reqs, 2, "KOSDAQ failure must not skip KOSPI")
	assert.Equal(t, friday, runner.reqs[0].Date)

	res, ok := job.Latest(contracts.MarketKOSPI)
	require.True(t, ok)
	assert.Equal(t, "r1", res.RunID)

	_, ok = job.Latest(contracts.MarketKOSDAQ)
	assert.False(t, ok)
}

func TestScreenJob_SkipsNonTradingDay(t *testing.T) {
	runner := &fakeRunner{
		results: map[contracts.Market]*contracts.ScreenResult{
			contracts.MarketKOSPI: {RunID: "holiday", DateAdjusted: true, ActualDate: friday},
		},
	}
	job := NewScreenJob(runner, []contracts.Market{contracts.MarketKOSPI}, "@daily", logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	_, ok := job.Latest(contracts.MarketKOSPI)
	assert.False(t, ok)
	assert.Equal(t, "post_close_screen", job.Name())
	assert.Equal(t, "@daily", job.Schedule())
}
