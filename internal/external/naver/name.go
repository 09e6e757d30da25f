package naver

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/pkg/redis"
)

// NameResolver looks up ticker display names, cached in Redis when enabled
type NameResolver struct {
	client *Client
	cache  *redis.Cache
}

// NewNameResolver creates a resolver; cache may be nil
func NewNameResolver(client *Client, cache *redis.Cache) *NameResolver {
	return &NameResolver{client: client, cache: cache}
}

// TickerName returns the display name of ticker from the item main page
func (n *NameResolver) TickerName(ctx context.Context, ticker string) (string, error) {
	if n.cache == nil {
		return n.fetchName(ctx, ticker)
	}
	return redis.GetOrSet(ctx, n.cache, redis.TickerNameKey(ticker), redis.TTLMaster, func() (string, error) {
		return n.fetchName(ctx, ticker)
	})
}

func (n *NameResolver) fetchName(ctx context.Context, ticker string) (string, error) {
	page, err := n.client.fetchHTML(ctx, "/item/main.naver", url.Values{"code": {ticker}})
	if err != nil {
		return "", fmt.Errorf("ticker %s: %w: %w", ticker, contracts.ErrTickerMetadataUnavailable, err)
	}

	name, err := parseItemName(page)
	if err != nil {
		return "", fmt.Errorf("ticker %s: %w: %w", ticker, contracts.ErrTickerMetadataUnavailable, err)
	}
	return name, nil
}

// parseItemName extracts the company name from an item main page
func parseItemName(page io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", err
	}

	// 종목 헤더: <div class="wrap_company"><h2><a>삼성전자</a></h2>
	name := strings.TrimSpace(doc.Find("div.wrap_company h2 a").First().Text())
	if name == "" {
		name = strings.TrimSpace(doc.Find("div.wrap_company h2").First().Text())
	}
	if name == "" {
		return "", fmt.Errorf("company name not found")
	}
	return name, nil
}
