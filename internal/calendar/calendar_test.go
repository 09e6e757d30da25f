package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/contracts/contractstest"
	"github.com/wonny/flowscan/pkg/logger"
)

var d = contractstest.Date

// 2026-03: 2(월)~6(금) 영업일, 3/1 일요일, 3/9(월) 임시휴장 가정
func marchProvider() *contractstest.Provider {
	p := contractstest.New()
	for _, day := range []int{2, 3, 4, 5, 6, 10, 11} {
		p.AddDay(d(2026, time.March, day))
	}
	for _, day := range []int{23, 24, 25, 26, 27} {
		p.AddDay(d(2026, time.February, day))
	}
	return p
}

func TestResolve(t *testing.T) {
	cal := New(marchProvider(), DefaultConfig(), logger.Nop())
	ctx := context.Background()

	tests := []struct {
		name     string
		ref      time.Time
		size     int
		want     []time.Time
		adjusted bool
	}{
		{
			name: "trading day reference",
			ref:  d(2026, time.March, 6),
			size: 3,
			want: []time.Time{d(2026, time.March, 4), d(2026, time.March, 5), d(2026, time.March, 6)},
		},
		{
			name:     "weekend resolves to friday",
			ref:      d(2026, time.March, 8),
			size:     2,
			want:     []time.Time{d(2026, time.March, 5), d(2026, time.March, 6)},
			adjusted: true,
		},
		{
			name:     "holiday monday",
			ref:      d(2026, time.March, 9),
			size:     3,
			want:     []time.Time{d(2026, time.March, 4), d(2026, time.March, 5), d(2026, time.March, 6)},
			adjusted: true,
		},
		{
			name: "window spans month boundary",
			ref:  d(2026, time.March, 3),
			size: 4,
			want: []time.Time{d(2026, time.February, 26), d(2026, time.February, 27), d(2026, time.March, 2), d(2026, time.March, 3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := cal.Resolve(ctx, tt.ref, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.Days)
			assert.Equal(t, tt.adjusted, w.Adjusted())
			assert.Equal(t, tt.ref, w.Requested)

			for i := 1; i < len(w.Days); i++ {
				assert.True(t, w.Days[i-1].Before(w.Days[i]), "window must be strictly increasing")
			}
		})
	}
}

func TestResolve_Insufficient(t *testing.T) {
	p := contractstest.New().AddDay(d(2026, time.March, 6))
	cal := New(p, DefaultConfig(), logger.Nop())

	_, err := cal.Resolve(context.Background(), d(2026, time.March, 6), 3)
	assert.ErrorIs(t, err, contracts.ErrInsufficientTradingDays)
}

func TestResolve_ProviderFailureIsFatal(t *testing.T) {
	p := marchProvider()
	p.Fail["calendar"] = true
	cal := New(p, DefaultConfig(), logger.Nop())

	_, err := cal.Resolve(context.Background(), d(2026, time.March, 6), 3)
	assert.ErrorIs(t, err, contracts.ErrCalendarUnavailable)
	assert.ErrorIs(t, err, contractstest.ErrInjected)
}

func TestResolve_NormalizesTimeOfDay(t *testing.T) {
	cal := New(marchProvider(), DefaultConfig(), logger.Nop())

	ref := time.Date(2026, time.March, 6, 17, 30, 0, 0, contracts.KST)
	w, err := cal.Resolve(context.Background(), ref, 2)
	require.NoError(t, err)
	assert.False(t, w.Adjusted())
	assert.Equal(t, d(2026, time.March, 6), w.Actual())
}

func TestLastTradingDayOnOrBefore(t *testing.T) {
	cal := New(marchProvider(), DefaultConfig(), logger.Nop())
	ctx := context.Background()

	got, err := cal.LastTradingDayOnOrBefore(ctx, d(2026, time.March, 1), 10)
	require.NoError(t, err)
	assert.Equal(t, d(2026, time.February, 27), got)

	_, err = cal.LastTradingDayOnOrBefore(ctx, d(2026, time.January, 10), 10)
	assert.ErrorIs(t, err, contracts.ErrInsufficientTradingDays)
}
