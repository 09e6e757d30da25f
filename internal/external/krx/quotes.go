package krx

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/flowscan/internal/contracts"
)

// Quotes fetches every ticker's market cap, change rate and name on date
func (c *Client) Quotes(ctx context.Context, date time.Time, market contracts.Market) (map[string]contracts.Quote, error) {
	mktID, err := marketID(market)
	if err != nil {
		return nil, err
	}

	rows, err := c.post(ctx, bldQuotes, url.Values{
		"mktId": {mktID},
		"trdDd": {ymd(date)},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s quotes %s: %w", market, ymd(date), err)
	}

	out := make(map[string]contracts.Quote, len(rows))
	for _, r := range rows {
		code := r["ISU_SRT_CD"]
		if code == "" {
			continue
		}
		out[code] = contracts.Quote{
			Ticker:    code,
			Name:      r["ISU_ABBRV"],
			MarketCap: parseKRXNumber(r["MKTCAP"]),
			ChangePct: parseKRXFloat(r["FLUC_RT"]),
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"market": string(market),
		"date":   ymd(date),
		"count":  len(out),
	}).Debug("Fetched quotes from KRX")

	return out, nil
}
