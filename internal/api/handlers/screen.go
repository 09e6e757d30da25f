package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/screener"
	"github.com/wonny/flowscan/pkg/logger"
)

// ScreenHandler serves screen, streak and calendar endpoints
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreenHandler struct {
	screener *screener.Screener
	logger   *logger.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(s *screener.Screener, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		screener: s,
		logger:   log,
	}
}

// Screen runs a screen
// GET /api/screen?market=KOSPI&date=20260306&window=3&major=20&minor=10
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r.URL.Query())
	if err != nil {
		h.respondRunError(w, err)
		return
	}

	result, err := h.screener.Run(r.Context(), req)
	if err != nil {
		h.respondRunError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Streaks runs the consecutive net-buy report
// GET /api/streaks?market=KOSDAQ&window=5&major=100&minor=10
func (h *ScreenHandler) Streaks(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r.URL.Query())
	if err != nil {
		h.respondRunError(w, err)
		return
	}

	report, err := h.screener.RunStreaks(r.Context(), req)
	if err != nil {
		h.respondRunError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// CalendarResponse is the resolved trading window
type CalendarResponse struct {
	Requested string   `json:"requested"`
	Actual    string   `json:"actual"`
	Adjusted  bool     `json:"adjusted"`
	Days      []string `json:"days"`
}

// Calendar resolves the trading window for a reference date
// GET /api/calendar?date=2026-03-08&window=3
func (h *ScreenHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("market", string(contracts.MarketKOSPI)) // 달력은 시장 무관
	req, err := parseRequest(q)
	if err != nil {
		h.respondRunError(w, err)
		return
	}
	if req.Date.IsZero() {
		req.Date = contracts.Today()
	}
	if req.Window == 0 {
		req.Window = h.screener.Rules().Window.DefaultDays
	}
	if err := req.Validate(); err != nil {
		h.respondRunError(w, err)
		return
	}

	win, err := h.screener.Calendar().Resolve(r.Context(), req.Date, req.Window)
	if err != nil {
		h.respondRunError(w, err)
		return
	}

	resp := CalendarResponse{
		Requested: win.Requested.Format("2006-01-02"),
		Actual:    win.Actual().Format("2006-01-02"),
		Adjusted:  win.Adjusted(),
		Days:      make([]string, len(win.Days)),
	}
	for i, d := range win.Days {
		resp.Days[i] = d.Format("2006-01-02")
	}
	respondJSON(w, http.StatusOK, resp)
}

// parseRequest reads market, date, window, major and minor query parameters
func parseRequest(q url.Values) (screener.Request, error) {
	req := screener.Request{Market: contracts.MarketKOSPI}

	if m := q.Get("market"); m != "" {
		market, err := contracts.ParseMarket(m)
		if err != nil {
			return req, fmt.Errorf("%w: %v", contracts.ErrInvalidRequest, err)
		}
		req.Market = market
	}

	if s := q.Get("date"); s != "" {
		date, err := contracts.ParseDate(s)
		if err != nil {
			return req, fmt.Errorf("%w: date %q", contracts.ErrInvalidRequest, s)
		}
		req.Date = date
	}

	var err error
	if req.Window, err = intParam(q, "window"); err != nil {
		return req, err
	}
	if req.MajorEok, err = floatParam(q, "major"); err != nil {
		return req, err
	}
	if req.MinorEok, err = floatParam(q, "minor"); err != nil {
		return req, err
	}
	return req, nil
}

func intParam(q url.Values, key string) (int, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", contracts.ErrInvalidRequest, key, s)
	}
	return v, nil
}

func floatParam(q url.Values, key string) (float64, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", contracts.ErrInvalidRequest, key, s)
	}
	return v, nil
}

// respondRunError maps engine errors to status codes; provider text is never exposed
func (h *ScreenHandler) respondRunError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	log := h.logger.WithError(err).WithField("status", status)
	if status >= 500 {
		log.Error("Screen request failed")
	} else {
		log.Warn("Screen request rejected")
	}
	respondError(w, status, contracts.UserMessage(err))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidRequest),
		errors.Is(err, contracts.ErrInsufficientTradingDays):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contracts.ErrCalendarUnavailable),
		errors.Is(err, contracts.ErrUniverseUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
