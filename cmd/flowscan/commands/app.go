package commands

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/wonny/flowscan/internal/calendar"
	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/external"
	"github.com/wonny/flowscan/internal/external/krx"
	"github.com/wonny/flowscan/internal/external/naver"
	"github.com/wonny/flowscan/internal/screenconfig"
	"github.com/wonny/flowscan/internal/screener"
	"github.com/wonny/flowscan/internal/snapshot"
	"github.com/wonny/flowscan/internal/store"
	"github.com/wonny/flowscan/pkg/config"
	"github.com/wonny/flowscan/pkg/database"
	"github.com/wonny/flowscan/pkg/httputil"
	"github.com/wonny/flowscan/pkg/logger"
	"github.com/wonny/flowscan/pkg/metrics"
	"github.com/wonny/flowscan/pkg/redis"
)

// memoryCacheEntries bounds the in-process snapshot cache (일자×시장)
const memoryCacheEntries = 512

// app holds the wired components shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Recorder
	redis    *redis.Client
	db       *database.DB
	provider contracts.MarketDataProvider
	screener *screener.Screener

	closers []func()
}

// newApp loads config and wires provider → cache → calendar → screener
func newApp(ctx context.Context) (*app, error) {
	if env != "" {
		os.Setenv("ENV", env)
	}
	if verbose {
		os.Setenv("LOG_LEVEL", "debug")
	}

	// 1. Config + logger
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 2. Screen rules
	rules, err := screenconfig.LoadOrDefault(cfg.ScreenConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load screen rules: %w", err)
	}

	// 3. Redis (disabled → no-op)
	a.redis, err = redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() { a.redis.Close() })

	// 4. Provider
	a.provider, err = a.buildProvider(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	// 5. Snapshot source with read-through cache
	loader := snapshot.NewLoader(a.provider, cfg.Engine.FetchConcurrency, a.metrics, log)
	var cache snapshot.Cache
	if a.redis.Enabled() {
		cache = snapshot.NewRedisCache(a.redis, log)
	} else {
		mem, err := snapshot.NewMemoryCache(memoryCacheEntries)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create memory cache: %w", err)
		}
		a.closers = append(a.closers, mem.Close)
		cache = mem
	}
	source := snapshot.NewCached(loader, cache, cfg.Engine.SnapshotCacheTTL, a.metrics, log)

	// 6. Calendar + screener
	cal := calendar.New(a.provider, calendar.Config{
		ProxyTicker:  cfg.Engine.ProxyTicker,
		LookbackDays: cfg.Engine.CalendarLookbackDays,
	}, log)
	a.screener = screener.New(a.provider, source, cal, rules, cfg.Engine.FetchConcurrency, a.metrics, log)

	log.WithFields(map[string]interface{}{
		"provider":    cfg.Provider,
		"redis":       a.redis.Enabled(),
		"rules_id":    rules.Meta.RulesID,
		"concurrency": cfg.Engine.FetchConcurrency,
	}).Debug("Application wired")

	return a, nil
}

// buildProvider selects the market data adapter by PROVIDER
func (a *app) buildProvider(ctx context.Context) (contracts.MarketDataProvider, error) {
	switch a.cfg.Provider {
	case "postgres":
		db, err := database.New(ctx, a.cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
		return store.NewProvider(db.Pool, a.log), nil

	default:
		// KRX: 초당 요청 제한 + 연속 실패 시 차단
		krxHTTP := httputil.New(a.cfg, a.log).
			WithRateLimit(a.cfg.KRX.RatePerSec).
			WithBreaker("krx", 30*time.Second)
		if a.redis.Enabled() {
			// 여러 프로세스가 같은 IP로 KRX를 호출할 때 분 단위 공유 한도
			krxHTTP.WithRateLimiter(redis.NewRateLimiter(a.redis), redis.RateLimitConfig{
				Key:    "krx",
				Limit:  int(math.Ceil(a.cfg.KRX.RatePerSec * 60)),
				Window: time.Minute,
			})
		}
		krxClient := krx.NewClient(krxHTTP, a.cfg.KRX.BaseURL, a.cfg.KRX.ProgramBld, a.log)

		naverHTTP := httputil.New(a.cfg, a.log).WithRetry(1, 500*time.Millisecond)
		names := naver.NewNameResolver(
			naver.NewClient(naverHTTP, a.cfg.Naver.BaseURL, a.log),
			redis.NewCache(a.redis),
		)
		return external.NewProvider(krxClient, names), nil
	}
}

// Close releases resources in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
