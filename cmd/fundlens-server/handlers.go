package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/interfaces"
	"github.com/fundlens/fundlens/internal/models"
)

// apiServer holds the REST handler dependencies.
type apiServer struct {
	funds     interfaces.FundStore
	alerts    interfaces.AlertStore
	estimator interfaces.EstimatorService
	kline     interfaces.KlineService
	cache     interfaces.Cache
	logger    *common.Logger
}

func (s *apiServer) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("GET /api/v1/funds", s.handleListFunds)
	mux.HandleFunc("POST /api/v1/funds", s.handleSaveFund)
	mux.HandleFunc("GET /api/v1/funds/{code}", s.handleGetFund)
	mux.HandleFunc("GET /api/v1/funds/{code}/estimate", s.handleEstimate)

	mux.HandleFunc("GET /api/v1/kline/{code}", s.handleKline)
	mux.HandleFunc("GET /api/v1/kline/{code}/summary", s.handleKlineSummary)

	mux.HandleFunc("GET /api/v1/alerts", s.handleListAlerts)
	mux.HandleFunc("POST /api/v1/alerts", s.handleCreateAlert)
	mux.HandleFunc("DELETE /api/v1/alerts/{id}", s.handleDeleteAlert)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleListFunds(w http.ResponseWriter, r *http.Request) {
	funds, err := s.funds.ListFunds(r.Context())
	if err != nil {
		s.serverError(w, err, "Failed to list funds")
		return
	}
	if funds == nil {
		funds = []*models.Fund{}
	}
	writeJSON(w, http.StatusOK, funds)
}

func (s *apiServer) handleSaveFund(w http.ResponseWriter, r *http.Request) {
	var fund models.Fund
	if err := json.NewDecoder(r.Body).Decode(&fund); err != nil {
		writeError(w, http.StatusBadRequest, "invalid fund payload")
		return
	}
	if fund.Code == "" {
		writeError(w, http.StatusBadRequest, "fund code is required")
		return
	}

	if err := s.funds.SaveFund(r.Context(), &fund); err != nil {
		s.serverError(w, err, "Failed to save fund")
		return
	}

	// A registry write may change fund classification, so cached estimates
	// for this fund are stale.
	s.cache.DeleteContaining(cache.Key("fund", fund.Code))

	writeJSON(w, http.StatusCreated, fund)
}

func (s *apiServer) handleGetFund(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	fund, err := s.funds.GetFund(r.Context(), code)
	if err != nil {
		s.serverError(w, err, "Failed to get fund")
		return
	}
	if fund == nil {
		writeError(w, http.StatusNotFound, "fund "+code+" not found")
		return
	}
	writeJSON(w, http.StatusOK, fund)
}

func (s *apiServer) handleEstimate(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	result, err := s.estimator.Estimate(r.Context(), code)
	if err != nil {
		if errors.Is(err, models.ErrEstimateUnavailable) {
			// Temporarily no estimate: every tier failed this round, the next
			// poll may succeed.
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusServiceUnavailable, "unable to estimate NAV for "+code)
			return
		}
		s.serverError(w, err, "Estimate failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleKline(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	q := r.URL.Query()

	period := q.Get("period")
	if period == "" {
		period = models.PeriodDaily
	}

	from, ok := parseDateParam(w, q.Get("start_date"))
	if !ok {
		return
	}
	to, ok := parseDateParam(w, q.Get("end_date"))
	if !ok {
		return
	}

	withIndicators := q.Get("indicators") != "false"

	series, err := s.kline.GetKline(r.Context(), code, period, from, to, withIndicators)
	if err != nil {
		s.logger.Warn().Err(err).Str("fund", code).Msg("Kline fetch failed")
		writeError(w, http.StatusNotFound, "no kline data for "+code)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *apiServer) handleKlineSummary(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	period := r.URL.Query().Get("period")
	if period == "" {
		period = models.PeriodDaily
	}

	summary, err := s.kline.Summary(r.Context(), code, period)
	if err != nil {
		s.logger.Warn().Err(err).Str("fund", code).Msg("Kline summary failed")
		writeError(w, http.StatusNotFound, "no kline data for "+code)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *apiServer) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.alerts.ListActiveAlerts(r.Context())
	if err != nil {
		s.serverError(w, err, "Failed to list alerts")
		return
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *apiServer) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var alert models.Alert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert payload")
		return
	}
	if alert.FundCode == "" {
		writeError(w, http.StatusBadRequest, "fund_code is required")
		return
	}
	switch alert.Type {
	case models.AlertPriceAbove, models.AlertPriceBelow, models.AlertChangePercent:
	default:
		writeError(w, http.StatusBadRequest, "unknown alert_type "+alert.Type)
		return
	}

	alert.Active = true
	if err := s.alerts.SaveAlert(r.Context(), &alert); err != nil {
		s.serverError(w, err, "Failed to save alert")
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

func (s *apiServer) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.alerts.DeleteAlert(r.Context(), id); err != nil {
		s.serverError(w, err, "Failed to delete alert")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) serverError(w http.ResponseWriter, err error, msg string) {
	s.logger.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// parseDateParam parses an optional YYYY-MM-DD query parameter. On a malformed
// value it writes a 400 and reports false.
func parseDateParam(w http.ResponseWriter, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, use YYYY-MM-DD: "+value)
		return time.Time{}, false
	}
	return t, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
