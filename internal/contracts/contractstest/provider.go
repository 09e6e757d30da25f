// Package contractstest provides an in-memory MarketDataProvider for tests.
package contractstest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/flowscan/internal/contracts"
)

// ErrInjected is returned by calls configured to fail
var ErrInjected = errors.New("injected provider failure")

// Provider is a deterministic in-memory provider keyed by date
type Provider struct {
	mu sync.Mutex

	Days      []time.Time
	QuotesBy  map[string]map[string]contracts.Quote                   // date → ticker
	NetBuyBy  map[string]map[contracts.InvestorClass]map[string]int64 // date → class → ticker
	ProgramBy map[string]map[string]int64                             // date → ticker
	OwnerBy   map[string]map[string]float64                           // date → ticker
	Names     map[string]string

	// Fail marks "kind" or "kind:date" or "kind:date:class" keys that return ErrInjected
	Fail map[string]bool

	calls map[string]int
}

// New returns an empty provider
func New() *Provider {
	return &Provider{
		QuotesBy:  map[string]map[string]contracts.Quote{},
		NetBuyBy:  map[string]map[contracts.InvestorClass]map[string]int64{},
		ProgramBy: map[string]map[string]int64{},
		OwnerBy:   map[string]map[string]float64{},
		Names:     map[string]string{},
		Fail:      map[string]bool{},
		calls:     map[string]int{},
	}
}

// Key formats a date as the provider's map key
func Key(d time.Time) string {
	return d.Format("20060102")
}

// Date builds a UTC midnight date
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDay registers a trading day
func (p *Provider) AddDay(d time.Time) *Provider {
	p.Days = append(p.Days, d)
	sort.Slice(p.Days, func(i, j int) bool { return p.Days[i].Before(p.Days[j]) })
	return p
}

// SetQuote sets a quote for date
func (p *Provider) SetQuote(d time.Time, q contracts.Quote) *Provider {
	k := Key(d)
	if p.QuotesBy[k] == nil {
		p.QuotesBy[k] = map[string]contracts.Quote{}
	}
	p.QuotesBy[k][q.Ticker] = q
	return p
}

// SetNetBuy sets a ticker's net-buy for class on date
func (p *Provider) SetNetBuy(d time.Time, class contracts.InvestorClass, ticker string, amount int64) *Provider {
	k := Key(d)
	if p.NetBuyBy[k] == nil {
		p.NetBuyBy[k] = map[contracts.InvestorClass]map[string]int64{}
	}
	if p.NetBuyBy[k][class] == nil {
		p.NetBuyBy[k][class] = map[string]int64{}
	}
	p.NetBuyBy[k][class][ticker] = amount
	return p
}

// SetProgram sets a ticker's program net-buy on date
func (p *Provider) SetProgram(d time.Time, ticker string, amount int64) *Provider {
	k := Key(d)
	if p.ProgramBy[k] == nil {
		p.ProgramBy[k] = map[string]int64{}
	}
	p.ProgramBy[k][ticker] = amount
	return p
}

// SetOwnership sets a ticker's foreign ownership on date
func (p *Provider) SetOwnership(d time.Time, ticker string, pct float64) *Provider {
	k := Key(d)
	if p.OwnerBy[k] == nil {
		p.OwnerBy[k] = map[string]float64{}
	}
	p.OwnerBy[k][ticker] = pct
	return p
}

// Calls returns how many times kind was requested
func (p *Provider) Calls(kind string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[kind]
}

func (p *Provider) hit(kind string, keys ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[kind]++
	if p.Fail[kind] {
		return ErrInjected
	}
	k := kind
	for _, part := range keys {
		k += ":" + part
		if p.Fail[k] {
			return ErrInjected
		}
	}
	return nil
}

// Quotes implements contracts.MarketDataProvider
func (p *Provider) Quotes(ctx context.Context, date time.Time, market contracts.Market) (map[string]contracts.Quote, error) {
	if err := p.hit("quotes", Key(date)); err != nil {
		return nil, err
	}
	out := map[string]contracts.Quote{}
	for t, q := range p.QuotesBy[Key(date)] {
		out[t] = q
	}
	return out, nil
}

// NetBuyByInvestor implements contracts.MarketDataProvider; from..to sums every stored day
func (p *Provider) NetBuyByInvestor(ctx context.Context, from, to time.Time, market contracts.Market, class contracts.InvestorClass) (map[string]int64, error) {
	if err := p.hit("netbuy", Key(to), string(class)); err != nil {
		return nil, err
	}
	out := map[string]int64{}
	for k, byClass := range p.NetBuyBy {
		if k < Key(from) || k > Key(to) {
			continue
		}
		for t, v := range byClass[class] {
			out[t] += v
		}
	}
	return out, nil
}

// ProgramNetBuy implements contracts.MarketDataProvider
func (p *Provider) ProgramNetBuy(ctx context.Context, date time.Time, market contracts.Market) (map[string]int64, error) {
	if err := p.hit("program", Key(date)); err != nil {
		return nil, err
	}
	out := map[string]int64{}
	for t, v := range p.ProgramBy[Key(date)] {
		out[t] = v
	}
	return out, nil
}

// ForeignOwnership implements contracts.MarketDataProvider
func (p *Provider) ForeignOwnership(ctx context.Context, date time.Time, market contracts.Market) (map[string]float64, error) {
	if err := p.hit("ownership", Key(date)); err != nil {
		return nil, err
	}
	out := map[string]float64{}
	for t, v := range p.OwnerBy[Key(date)] {
		out[t] = v
	}
	return out, nil
}

// TradingDays implements contracts.MarketDataProvider
func (p *Provider) TradingDays(ctx context.Context, from, to time.Time, proxyTicker string) ([]time.Time, error) {
	if err := p.hit("calendar"); err != nil {
		return nil, err
	}
	var out []time.Time
	for _, d := range p.Days {
		if !d.Before(from) && !d.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

// TickerName implements contracts.MarketDataProvider
func (p *Provider) TickerName(ctx context.Context, ticker string) (string, error) {
	if err := p.hit("name", ticker); err != nil {
		return "", err
	}
	name, ok := p.Names[ticker]
	if !ok {
		return "", fmt.Errorf("ticker %s: %w", ticker, contracts.ErrTickerMetadataUnavailable)
	}
	return name, nil
}

var _ contracts.MarketDataProvider = (*Provider)(nil)
