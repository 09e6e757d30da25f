package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/contracts/contractstest"
	"github.com/wonny/flowscan/pkg/logger"
	"github.com/wonny/flowscan/pkg/metrics"
)

var (
	mon = contractstest.Date(2026, time.March, 2)
	tue = contractstest.Date(2026, time.March, 3)
)

func fixtureProvider() *contractstest.Provider {
	p := contractstest.New().AddDay(mon).AddDay(tue)
	for _, d := range []time.Time{mon, tue} {
		p.SetQuote(d, contracts.Quote{Ticker: "005930", Name: "삼성전자", MarketCap: 400_000e8, ChangePct: 1.1})
		p.SetNetBuy(d, contracts.Foreign, "005930", 30e8)
		p.SetNetBuy(d, contracts.Pension, "005930", 12e8)
		p.SetProgram(d, "005930", -5e8)
	}
	return p
}

func TestLoader_Load(t *testing.T) {
	p := fixtureProvider()
	l := NewLoader(p, 4, metrics.New(), logger.Nop())

	snap, err := l.Load(context.Background(), tue, contracts.MarketKOSPI)
	require.NoError(t, err)

	assert.True(t, snap.Complete())
	assert.Equal(t, "삼성전자", snap.Quotes["005930"].Name)
	assert.Equal(t, int64(30e8), snap.NetBuyOf(contracts.Foreign, "005930"))
	assert.Equal(t, int64(-5e8), snap.ProgramOf("005930"))
	assert.True(t, snap.HasClass(contracts.Institution))

	// 클래스당 하루 1회 조회
	assert.Equal(t, len(contracts.SnapshotClasses), p.Calls("netbuy"))
}

func TestLoader_DegradesFailedSlices(t *testing.T) {
	p := fixtureProvider()
	p.Fail["netbuy:"+contractstest.Key(tue)+":pension"] = true
	p.Fail["program"] = true

	snap, err := NewLoader(p, 2, nil, logger.Nop()).Load(context.Background(), tue, contracts.MarketKOSPI)
	require.NoError(t, err)

	assert.False(t, snap.Complete())
	assert.False(t, snap.HasClass(contracts.Pension))
	assert.Zero(t, snap.NetBuyOf(contracts.Pension, "005930"))
	assert.Equal(t, []contracts.InvestorClass{contracts.Pension}, snap.Unavailable)
	assert.False(t, snap.ProgramAvailable)
	assert.Zero(t, snap.ProgramOf("005930"))
	assert.Equal(t, int64(30e8), snap.NetBuyOf(contracts.Foreign, "005930"))
}

func TestLoader_QuotesFailure(t *testing.T) {
	p := fixtureProvider()
	p.Fail["quotes"] = true

	snap, err := NewLoader(p, 2, nil, logger.Nop()).Load(context.Background(), tue, contracts.MarketKOSPI)
	require.NoError(t, err)
	assert.Empty(t, snap.Quotes)
	assert.False(t, snap.Complete())
}

func TestLoader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(fixtureProvider(), 2, nil, logger.Nop()).Load(ctx, tue, contracts.MarketKOSPI)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadWindow_PreservesOrder(t *testing.T) {
	l := NewLoader(fixtureProvider(), 4, nil, logger.Nop())

	snaps, err := LoadWindow(context.Background(), l, []time.Time{mon, tue}, contracts.MarketKOSPI, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, mon, snaps[0].Date)
	assert.Equal(t, tue, snaps[1].Date)
}

func TestCached_StoresOnlyCompleteSnapshots(t *testing.T) {
	p := fixtureProvider()
	p.Fail["program:"+contractstest.Key(mon)] = true

	mem, err := NewMemoryCache(100)
	require.NoError(t, err)
	defer mem.Close()

	rec := metrics.New()
	src := NewCached(NewLoader(p, 4, rec, logger.Nop()), mem, time.Hour, rec, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := src.Load(ctx, tue, contracts.MarketKOSPI)
		require.NoError(t, err)
		_, err = src.Load(ctx, mon, contracts.MarketKOSPI)
		require.NoError(t, err)
	}

	// tue: 1회 조회 후 캐시, mon: 불완전 → 매번 재조회
	assert.Equal(t, 3, p.Calls("quotes"))

	cached, ok := mem.Get(ctx, Key(tue, contracts.MarketKOSPI))
	require.True(t, ok)
	assert.Equal(t, int64(12e8), cached.NetBuyOf(contracts.Pension, "005930"))

	_, ok = mem.Get(ctx, Key(mon, contracts.MarketKOSPI))
	assert.False(t, ok)
}

func TestCached_KeepsSnapshotMissingOnlyStreakClasses(t *testing.T) {
	p := fixtureProvider()
	p.Fail["netbuy:"+contractstest.Key(mon)+":institution"] = true

	mem, err := NewMemoryCache(100)
	require.NoError(t, err)
	defer mem.Close()

	rec := metrics.New()
	src := NewCached(NewLoader(p, 4, rec, logger.Nop()), mem, time.Hour, rec, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		snap, err := src.Load(ctx, mon, contracts.MarketKOSPI)
		require.NoError(t, err)
		assert.False(t, snap.Complete())
		assert.True(t, snap.CompleteFor(contracts.ScreenClasses))
	}
	assert.Equal(t, 1, p.Calls("quotes"))
}

func TestCached_TTLFor(t *testing.T) {
	full := contracts.NewDaySnapshot(mon, contracts.MarketKOSPI)
	full.Quotes["005930"] = contracts.Quote{Ticker: "005930", MarketCap: 1e12}
	full.ProgramAvailable = true
	for _, c := range contracts.SnapshotClasses {
		full.NetBuy[c] = map[string]int64{}
	}

	partial := contracts.NewDaySnapshot(mon, contracts.MarketKOSPI)
	partial.Quotes = full.Quotes
	partial.ProgramAvailable = true
	for _, c := range contracts.ScreenClasses {
		partial.NetBuy[c] = map[string]int64{}
	}
	partial.Unavailable = []contracts.InvestorClass{contracts.Institution}

	screenGap := contracts.NewDaySnapshot(mon, contracts.MarketKOSPI)
	screenGap.Quotes = full.Quotes
	screenGap.ProgramAvailable = true
	screenGap.Unavailable = []contracts.InvestorClass{contracts.Pension}

	tests := []struct {
		name string
		ttl  time.Duration
		snap *contracts.DaySnapshot
		want time.Duration
	}{
		{"complete", time.Hour, full, time.Hour},
		{"streak class missing", time.Hour, partial, PartialTTL},
		{"streak class missing, short ttl", time.Minute, partial, time.Minute},
		{"screen class missing", time.Hour, screenGap, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCached(nil, nil, tt.ttl, nil, logger.Nop())
			assert.Equal(t, tt.want, c.ttlFor(tt.snap))
		})
	}
}

func TestMemoryCache_Expires(t *testing.T) {
	mem, err := NewMemoryCache(10)
	require.NoError(t, err)
	defer mem.Close()

	ctx := context.Background()
	snap := contracts.NewDaySnapshot(tue, contracts.MarketKOSDAQ)
	mem.Set(ctx, "k", snap, 50*time.Millisecond)

	_, ok := mem.Get(ctx, "k")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := mem.Get(ctx, "k")
		return !ok
	}, 3*time.Second, 50*time.Millisecond)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "snapshot:KOSDAQ:20260303", Key(tue, contracts.MarketKOSDAQ))
}
