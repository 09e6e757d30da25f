package krx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/pkg/config"
	"github.com/wonny/flowscan/pkg/httputil"
	"github.com/wonny/flowscan/pkg/logger"
)

const testProgramBld = "dbms/MDC/STAT/standard/MDCSTAT02601"

// newTestServer answers each bld with the given JSON body
func newTestServer(t *testing.T, bodies map[string]string, seen func(r *http.Request)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, jsonPath, r.URL.Path)
		assert.NoError(t, r.ParseForm())
		if seen != nil {
			seen(r)
		}
		body, ok := bodies[r.PostForm.Get("bld")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	log := logger.Nop()
	hc := httputil.New(&config.Config{}, log).DisableRetry()
	return NewClient(hc, srv.URL, testProgramBld, log)
}

var tue = time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

func TestQuotes(t *testing.T) {
	var form map[string]string
	c := newTestServer(t, map[string]string{
		bldQuotes: `{"OutBlock_1":[
			{"ISU_SRT_CD":"005930","ISU_ABBRV":"삼성전자","MKTCAP":"430,123,456,000,000","FLUC_RT":"-1.25"},
			{"ISU_SRT_CD":"000660","ISU_ABBRV":"SK하이닉스","MKTCAP":"150,000,000,000,000","FLUC_RT":"3.10"},
			{"ISU_SRT_CD":"","ISU_ABBRV":"합계"}
		]}`,
	}, func(r *http.Request) {
		form = map[string]string{"mktId": r.PostForm.Get("mktId"), "trdDd": r.PostForm.Get("trdDd")}
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
	})

	quotes, err := c.Quotes(context.Background(), tue, contracts.MarketKOSPI)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"mktId": "STK", "trdDd": "20260303"}, form)
	require.Len(t, quotes, 2)
	assert.Equal(t, contracts.Quote{Ticker: "005930", Name: "삼성전자", MarketCap: 430_123_456_000_000, ChangePct: -1.25}, quotes["005930"])
}

func TestNetBuyByInvestor(t *testing.T) {
	var invCode, mkt string
	c := newTestServer(t, map[string]string{
		bldNetBuy: `{"output":[
			{"ISU_SRT_CD":"005930","NETBID_TRDVAL":"12,345,678,900"},
			{"ISU_SRT_CD":"035420","NETBID_TRDVAL":"-2,000,000,000"}
		]}`,
	}, func(r *http.Request) {
		invCode, mkt = r.PostForm.Get("invstTpCd"), r.PostForm.Get("mktId")
	})

	got, err := c.NetBuyByInvestor(context.Background(), tue, tue, contracts.MarketKOSDAQ, contracts.Pension)
	require.NoError(t, err)

	assert.Equal(t, "6000", invCode)
	assert.Equal(t, "KSQ", mkt)
	assert.Equal(t, map[string]int64{"005930": 12_345_678_900, "035420": -2_000_000_000}, got)
}

func TestProgramNetBuy_UsesConfiguredScreen(t *testing.T) {
	c := newTestServer(t, map[string]string{
		testProgramBld: `{"output":[{"ISU_SRT_CD":"005930","NETBID_TRDVAL":"-500,000,000"}]}`,
	}, nil)

	got, err := c.ProgramNetBuy(context.Background(), tue, contracts.MarketKOSPI)
	require.NoError(t, err)
	assert.Equal(t, int64(-500_000_000), got["005930"])
}

func TestForeignOwnership(t *testing.T) {
	c := newTestServer(t, map[string]string{
		bldOwnership: `{"output":[{"ISU_SRT_CD":"005930","FORN_SHR_RT":"52.31"}]}`,
	}, nil)

	got, err := c.ForeignOwnership(context.Background(), tue, contracts.MarketKOSPI)
	require.NoError(t, err)
	assert.InDelta(t, 52.31, got["005930"], 1e-9)
}

func TestTradingDays(t *testing.T) {
	var isuCd string
	c := newTestServer(t, map[string]string{
		bldHistory: `{"output":[{"TRD_DD":"2026/03/03"},{"TRD_DD":"2026/02/27"},{"TRD_DD":"2026/03/02"},{"TRD_DD":"bad"}]}`,
	}, func(r *http.Request) {
		isuCd = r.PostForm.Get("isuCd")
	})

	days, err := c.TradingDays(context.Background(), tue.AddDate(0, 0, -10), tue, "005930")
	require.NoError(t, err)

	assert.Equal(t, "KR7005930003", isuCd)
	assert.Equal(t, []time.Time{
		time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		tue,
	}, days)
}

func TestClient_ErrorStatus(t *testing.T) {
	c := newTestServer(t, map[string]string{}, nil)

	_, err := c.Quotes(context.Background(), tue, contracts.MarketKOSPI)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestClient_UnsupportedInputs(t *testing.T) {
	c := newTestServer(t, map[string]string{}, nil)
	ctx := context.Background()

	_, err := c.Quotes(ctx, tue, contracts.Market("NYSE"))
	assert.Error(t, err)

	_, err = c.NetBuyByInvestor(ctx, tue, tue, contracts.MarketKOSPI, contracts.InvestorClass("retail"))
	assert.Error(t, err)
}

func TestISIN(t *testing.T) {
	tests := map[string]string{
		"005930": "KR7005930003",
		"000660": "KR7000660001",
		"035420": "KR7035420009",
		"373220": "KR7373220003",
	}
	for code, want := range tests {
		got, err := ISIN(code)
		require.NoError(t, err)
		assert.Equal(t, want, got, code)
	}

	_, err := ISIN("5930")
	assert.Error(t, err)
}

func TestParseKRXNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"with comma", "1,459,781", 1459781},
		{"negative with comma", "-1,240,182", -1240182},
		{"with spaces", " 1,234 ", 1234},
		{"dash", "-", 0},
		{"empty string", "", 0},
		{"invalid", "abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseKRXNumber(tt.input))
		})
	}
}
