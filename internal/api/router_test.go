package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flowscan/internal/api/handlers"
	"github.com/wonny/flowscan/internal/calendar"
	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/contracts/contractstest"
	"github.com/wonny/flowscan/internal/screenconfig"
	"github.com/wonny/flowscan/internal/screener"
	"github.com/wonny/flowscan/internal/snapshot"
	"github.com/wonny/flowscan/pkg/logger"
	"github.com/wonny/flowscan/pkg/metrics"
)

const e8 = int64(100_000_000)

func newTestRouter(p *contractstest.Provider) http.Handler {
	log := logger.Nop()
	rec := metrics.New()
	cal := calendar.New(p, calendar.DefaultConfig(), log)
	s := screener.New(p, snapshot.NewLoader(p, 2, rec, log), cal, screenconfig.Default(), 2, rec, log)
	return NewRouter(handlers.NewScreenHandler(s, log), rec, log)
}

// 3/4~3/6 영업일, 000001 3주체 연속 매수
func testProvider() *contractstest.Provider {
	p := contractstest.New()
	for _, day := range []int{4, 5, 6} {
		d := contractstest.Date(2026, time.March, day)
		p.AddDay(d)
		p.SetQuote(d, contracts.Quote{Ticker: "000001", Name: "첫째", MarketCap: 10_000_000 * e8, ChangePct: 1})
		p.SetNetBuy(d, contracts.Foreign, "000001", 30*e8)
		p.SetNetBuy(d, contracts.InvestmentTrust, "000001", 15*e8)
		p.SetNetBuy(d, contracts.Pension, "000001", 15*e8)
		p.SetNetBuy(d, contracts.Institution, "000001", 120*e8)
	}
	return p
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(testProvider()), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestScreen(t *testing.T) {
	rec := get(t, newTestRouter(testProvider()), "/api/screen?market=kospi&date=20260308&window=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res contracts.ScreenResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.DateAdjusted)
	assert.Equal(t, contractstest.Date(2026, time.March, 6), res.ActualDate)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "000001", res.Candidates[0].Ticker)
	assert.Equal(t, contracts.Priority2, res.Candidates[0].Tier)
}

func TestScreen_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		target string
		fail   string
		status int
		msg    string
	}{
		{"bad market", "/api/screen?market=NYSE", "", http.StatusUnprocessableEntity, contracts.UserMessage(contracts.ErrInvalidRequest)},
		{"bad window", "/api/screen?window=9&date=20260306", "", http.StatusUnprocessableEntity, contracts.UserMessage(contracts.ErrInvalidRequest)},
		{"bad date", "/api/screen?date=2026-13-40", "", http.StatusUnprocessableEntity, contracts.UserMessage(contracts.ErrInvalidRequest)},
		{"insufficient days", "/api/screen?date=20260305&window=3", "", http.StatusUnprocessableEntity, contracts.UserMessage(contracts.ErrInsufficientTradingDays)},
		{"calendar down", "/api/screen?date=20260306", "calendar", http.StatusServiceUnavailable, contracts.UserMessage(contracts.ErrCalendarUnavailable)},
		{"quotes down", "/api/screen?date=20260306", "quotes", http.StatusServiceUnavailable, contracts.UserMessage(contracts.ErrUniverseUnavailable)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProvider()
			if tt.fail != "" {
				p.Fail[tt.fail] = true
			}
			rec := get(t, newTestRouter(p), tt.target)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body["error"])
			assert.NotContains(t, body["error"], contractstest.ErrInjected.Error())
		})
	}
}

func TestStreaks(t *testing.T) {
	rec := get(t, newTestRouter(testProvider()), "/api/streaks?market=KOSPI&date=2026-03-06&window=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep contracts.StreakReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	// 외국인 90억 < 100억 기준, 기관 360억, 연기금 45억
	assert.Empty(t, rep.ByClass[contracts.Foreign])
	require.Len(t, rep.ByClass[contracts.Institution], 1)
	require.Len(t, rep.ByClass[contracts.Pension], 1)
	require.Len(t, rep.Intersection, 1)
	assert.Equal(t, "첫째", rep.Intersection[0].Name)
}

func TestCalendar(t *testing.T) {
	rec := get(t, newTestRouter(testProvider()), "/api/calendar?date=20260307&window=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.CalendarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-03-06", resp.Actual)
	assert.True(t, resp.Adjusted)
	assert.Equal(t, []string{"2026-03-05", "2026-03-06"}, resp.Days)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(testProvider())
	get(t, h, "/api/screen?date=20260306")

	rec := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "flowscan_"), "expected flowscan metrics")
}
