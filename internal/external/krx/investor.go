package krx

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/flowscan/internal/contracts"
)

// NetBuyByInvestor fetches each ticker's net-buy value (순매수거래대금, 원)
// for class, summed over [from, to]
func (c *Client) NetBuyByInvestor(ctx context.Context, from, to time.Time, market contracts.Market, class contracts.InvestorClass) (map[string]int64, error) {
	mktID, err := marketID(market)
	if err != nil {
		return nil, err
	}
	invCode, err := investorCode(class)
	if err != nil {
		return nil, err
	}

	rows, err := c.post(ctx, bldNetBuy, url.Values{
		"mktId":     {mktID},
		"invstTpCd": {invCode},
		"strtDd":    {ymd(from)},
		"endDd":     {ymd(to)},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s net-buy %s~%s: %w", class, ymd(from), ymd(to), err)
	}

	return netBidValues(rows), nil
}

// ProgramNetBuy fetches each ticker's program-trading net-buy value on date
func (c *Client) ProgramNetBuy(ctx context.Context, date time.Time, market contracts.Market) (map[string]int64, error) {
	mktID, err := marketID(market)
	if err != nil {
		return nil, err
	}

	rows, err := c.post(ctx, c.programBld, url.Values{
		"mktId":  {mktID},
		"strtDd": {ymd(date)},
		"endDd":  {ymd(date)},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch program net-buy %s: %w", ymd(date), err)
	}

	return netBidValues(rows), nil
}

func netBidValues(rows []row) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		code := r["ISU_SRT_CD"]
		if code == "" {
			continue
		}
		out[code] = parseKRXNumber(r["NETBID_TRDVAL"])
	}
	return out
}

// ForeignOwnership fetches each ticker's foreign ownership (지분율, %) on date
func (c *Client) ForeignOwnership(ctx context.Context, date time.Time, market contracts.Market) (map[string]float64, error) {
	mktID, err := marketID(market)
	if err != nil {
		return nil, err
	}

	rows, err := c.post(ctx, bldOwnership, url.Values{
		"mktId":      {mktID},
		"trdDd":      {ymd(date)},
		"searchType": {"1"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch foreign ownership %s: %w", ymd(date), err)
	}

	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		code := r["ISU_SRT_CD"]
		if code == "" {
			continue
		}
		out[code] = parseKRXFloat(r["FORN_SHR_RT"])
	}
	return out, nil
}
