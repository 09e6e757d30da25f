package contracts

import (
	"context"
	"time"
)

// MarketDataProvider is the external market-data capability the engine needs.
// Each call may fail independently; only TradingDays failures are fatal to a run.
// ⭐ SSOT: 시장 데이터 제공자 인터페이스
type MarketDataProvider interface {
	// Quotes returns market cap, price change and name for every ticker on date
	Quotes(ctx context.Context, date time.Time, market Market) (map[string]Quote, error)

	// NetBuyByInvestor returns each ticker's net-buy value summed over [from, to]
	NetBuyByInvestor(ctx context.Context, from, to time.Time, market Market, class InvestorClass) (map[string]int64, error)

	// ProgramNetBuy returns each ticker's program-trading net-buy value on date
	ProgramNetBuy(ctx context.Context, date time.Time, market Market) (map[string]int64, error)

	// ForeignOwnership returns each ticker's foreign ownership percentage on date
	ForeignOwnership(ctx context.Context, date time.Time, market Market) (map[string]float64, error)

	// TradingDays returns the dates in [from, to] on which proxyTicker traded, ascending
	TradingDays(ctx context.Context, from, to time.Time, proxyTicker string) ([]time.Time, error)

	// TickerName returns the display name of ticker
	TickerName(ctx context.Context, ticker string) (string, error)
}

// SnapshotSource loads one (date, market) snapshot
type SnapshotSource interface {
	Load(ctx context.Context, date time.Time, market Market) (*DaySnapshot, error)
}
