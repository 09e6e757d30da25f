package krx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/pkg/httputil"
	"github.com/wonny/flowscan/pkg/logger"
)

const jsonPath = "/comm/bldAttendant/getJsonData.cmd"

// Screen IDs (bld) of data.krx.co.kr
const (
	bldQuotes    = "dbms/MDC/STAT/standard/MDCSTAT01501" // 전종목 시세
	bldNetBuy    = "dbms/MDC/STAT/standard/MDCSTAT02401" // 투자자별 순매수 상위종목
	bldOwnership = "dbms/MDC/STAT/standard/MDCSTAT03701" // 외국인 보유량(개별종목)
	bldHistory   = "dbms/MDC/STAT/standard/MDCSTAT01701" // 개별종목 시세 추이
)

// Client talks to data.krx.co.kr JSON endpoints
// ⭐ SSOT: KRX 시장 데이터 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	programBld string
}

// NewClient creates a new KRX client
func NewClient(httpClient *httputil.Client, baseURL, programBld string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		programBld: programBld,
	}
}

// marketID maps a market to KRX mktId
func marketID(m contracts.Market) (string, error) {
	switch m {
	case contracts.MarketKOSPI:
		return "STK", nil
	case contracts.MarketKOSDAQ:
		return "KSQ", nil
	default:
		return "", fmt.Errorf("unsupported market: %s", m)
	}
}

// investorCode maps an investor class to KRX invstTpCd
func investorCode(c contracts.InvestorClass) (string, error) {
	switch c {
	case contracts.FinancialInvestment:
		return "1000", nil
	case contracts.InvestmentTrust:
		return "3000", nil
	case contracts.Pension:
		return "6000", nil
	case contracts.Institution:
		return "7050", nil
	case contracts.Foreign:
		return "9000", nil
	default:
		return "", fmt.Errorf("unsupported investor class: %s", c)
	}
}

// row is one record of a KRX JSON table; every value arrives as a string
type row map[string]string

// table accepts both result keys KRX uses
type table struct {
	Output    []row `json:"output"`
	OutBlock1 []row `json:"OutBlock_1"`
}

func (t table) rows() []row {
	if len(t.OutBlock1) > 0 {
		return t.OutBlock1
	}
	return t.Output
}

// post submits a bld form and decodes the result table
func (c *Client) post(ctx context.Context, bld string, params url.Values) ([]row, error) {
	form := url.Values{
		"bld":         {bld},
		"locale":      {"ko_KR"},
		"share":       {"1"},
		"money":       {"1"},
		"csvxls_isNo": {"false"},
	}
	for k, v := range params {
		form[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+jsonPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// KRX blocks requests without browser-like headers
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/contents/MDC/MDI/mdiLoader/index.cmd?menuId=MDC0201020101")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("KRX API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("KRX API returned status %d: %s", resp.StatusCode, string(body[:min(200, len(body))]))
	}

	var t table
	if err := json.Unmarshal(body, &t); err != nil {
		preview := string(body[:min(500, len(body))])
		c.logger.WithFields(map[string]interface{}{
			"bld":              bld,
			"response_preview": preview,
		}).Error("Failed to parse KRX response")
		return nil, fmt.Errorf("decode KRX response: %w", err)
	}

	return t.rows(), nil
}

// parseKRXNumber parses KRX number format (with commas) to int64
func parseKRXNumber(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// parseKRXFloat parses a KRX decimal ("-1.23", "52.10")
func parseKRXFloat(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func ymd(t time.Time) string {
	return t.Format("20060102")
}
