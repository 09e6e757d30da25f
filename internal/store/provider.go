package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// Provider serves market data from the Postgres warehouse.
// It only reads; the tables are filled by the ingest side.
// ⭐ SSOT: 웨어하우스 조회는 여기서만
type Provider struct {
	db     *pgxpool.Pool
	logger *logger.Logger
}

// NewProvider creates a warehouse-backed provider
func NewProvider(db *pgxpool.Pool, log *logger.Logger) *Provider {
	return &Provider{db: db, logger: log}
}

// EnsureSchema creates the warehouse tables when missing
func (p *Provider) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Quotes returns market cap, change rate and name for every ticker of market on date
func (p *Provider) Quotes(ctx context.Context, date time.Time, market contracts.Market) (map[string]contracts.Quote, error) {
	query := `
		SELECT q.stock_code, COALESCE(s.name, ''), q.market_cap, q.change_rate
		FROM data.daily_quotes q
		LEFT JOIN data.stocks s ON s.code = q.stock_code
		WHERE q.trade_date = $1 AND q.market = $2
	`

	rows, err := p.db.Query(ctx, query, contracts.DateOf(date), string(market))
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]contracts.Quote)
	for rows.Next() {
		var q contracts.Quote
		if err := rows.Scan(&q.Ticker, &q.Name, &q.MarketCap, &q.ChangePct); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		out[q.Ticker] = q
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	p.logger.WithDate("date", date).WithFields(map[string]interface{}{
		"market": market,
		"count":  len(out),
	}).Debug("Loaded quotes from warehouse")

	return out, nil
}

// NetBuyByInvestor sums each ticker's net-buy value for class over [from, to]
func (p *Provider) NetBuyByInvestor(ctx context.Context, from, to time.Time, market contracts.Market, class contracts.InvestorClass) (map[string]int64, error) {
	query := `
		SELECT n.stock_code, SUM(n.net_value)::BIGINT
		FROM data.investor_net_buy n
		JOIN data.stocks s ON s.code = n.stock_code
		WHERE n.investor_class = $1
		  AND n.trade_date BETWEEN $2 AND $3
		  AND s.market = $4
		GROUP BY n.stock_code
	`

	return p.sumByTicker(ctx, "net buy", query, string(class), contracts.DateOf(from), contracts.DateOf(to), string(market))
}

// ProgramNetBuy returns each ticker's program-trading net-buy value on date
func (p *Provider) ProgramNetBuy(ctx context.Context, date time.Time, market contracts.Market) (map[string]int64, error) {
	query := `
		SELECT g.stock_code, g.net_value
		FROM data.program_net_buy g
		JOIN data.stocks s ON s.code = g.stock_code
		WHERE g.trade_date = $1 AND s.market = $2
	`

	return p.sumByTicker(ctx, "program net buy", query, contracts.DateOf(date), string(market))
}

// ForeignOwnership returns each ticker's foreign ownership percentage on date
func (p *Provider) ForeignOwnership(ctx context.Context, date time.Time, market contracts.Market) (map[string]float64, error) {
	query := `
		SELECT o.stock_code, o.ownership_pct
		FROM data.foreign_ownership o
		JOIN data.stocks s ON s.code = o.stock_code
		WHERE o.trade_date = $1 AND s.market = $2
	`

	rows, err := p.db.Query(ctx, query, contracts.DateOf(date), string(market))
	if err != nil {
		return nil, fmt.Errorf("query foreign ownership: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var code string
		var pct float64
		if err := rows.Scan(&code, &pct); err != nil {
			return nil, fmt.Errorf("scan foreign ownership: %w", err)
		}
		out[code] = pct
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign ownership: %w", err)
	}
	return out, nil
}

// TradingDays returns the dates in [from, to] with a quote row for proxyTicker
func (p *Provider) TradingDays(ctx context.Context, from, to time.Time, proxyTicker string) ([]time.Time, error) {
	query := `
		SELECT trade_date
		FROM data.daily_quotes
		WHERE stock_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := p.db.Query(ctx, query, proxyTicker, contracts.DateOf(from), contracts.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("query trading days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan trading day: %w", err)
		}
		days = append(days, contracts.DateOf(d))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trading days: %w", err)
	}
	return days, nil
}

// TickerName returns the registered name of ticker
func (p *Provider) TickerName(ctx context.Context, ticker string) (string, error) {
	query := `SELECT name FROM data.stocks WHERE code = $1`

	var name string
	err := p.db.QueryRow(ctx, query, ticker).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && name == "") {
		return "", fmt.Errorf("%w: %s", contracts.ErrTickerMetadataUnavailable, ticker)
	}
	if err != nil {
		return "", fmt.Errorf("query ticker name %s: %w", ticker, err)
	}
	return name, nil
}

// sumByTicker runs a (code, bigint) query into a map
func (p *Provider) sumByTicker(ctx context.Context, what, query string, args ...interface{}) (map[string]int64, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var code string
		var value int64
		if err := rows.Scan(&code, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out[code] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

var _ contracts.MarketDataProvider = (*Provider)(nil)
