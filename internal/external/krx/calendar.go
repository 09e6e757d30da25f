package krx

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// TradingDays returns the dates in [from, to] on which proxyTicker traded
func (c *Client) TradingDays(ctx context.Context, from, to time.Time, proxyTicker string) ([]time.Time, error) {
	isin, err := ISIN(proxyTicker)
	if err != nil {
		return nil, err
	}

	rows, err := c.post(ctx, bldHistory, url.Values{
		"isuCd":  {isin},
		"strtDd": {ymd(from)},
		"endDd":  {ymd(to)},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s history: %w", proxyTicker, err)
	}

	days := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		raw := strings.ReplaceAll(r["TRD_DD"], "/", "")
		d, err := time.Parse("20060102", raw)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	return days, nil
}

// ISIN builds the KR7 ISIN of a six-digit common-stock short code
func ISIN(code string) (string, error) {
	if len(code) != 6 {
		return "", fmt.Errorf("invalid ticker %q", code)
	}
	body := "KR7" + code + "00"

	// 영문자 → 숫자 (A=10 ... Z=35) 후 Luhn
	var digits []int
	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r >= 'A' && r <= 'Z':
			v := int(r-'A') + 10
			digits = append(digits, v/10, v%10)
		default:
			return "", fmt.Errorf("invalid ticker %q", code)
		}
	}

	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if (len(digits)-1-i)%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return body + fmt.Sprint((10-sum%10)%10), nil
}
