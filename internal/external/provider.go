// Package external assembles market-data adapters into one provider.
package external

import (
	"context"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/external/krx"
)

// NameSource resolves ticker display names
type NameSource interface {
	TickerName(ctx context.Context, ticker string) (string, error)
}

// Provider serves market data from KRX and names from a separate source
type Provider struct {
	*krx.Client
	names NameSource
}

// NewProvider combines a KRX client with a name source
func NewProvider(client *krx.Client, names NameSource) *Provider {
	return &Provider{Client: client, names: names}
}

// TickerName implements contracts.MarketDataProvider
func (p *Provider) TickerName(ctx context.Context, ticker string) (string, error) {
	return p.names.TickerName(ctx, ticker)
}

var _ contracts.MarketDataProvider = (*Provider)(nil)
