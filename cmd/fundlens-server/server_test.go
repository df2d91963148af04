package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/models"
)

type memFundStore struct {
	funds map[string]*models.Fund
}

func (s *memFundStore) GetFund(_ context.Context, code string) (*models.Fund, error) {
	return s.funds[code], nil
}

func (s *memFundStore) SaveFund(_ context.Context, fund *models.Fund) error {
	if s.funds == nil {
		s.funds = make(map[string]*models.Fund)
	}
	s.funds[fund.Code] = fund
	return nil
}

func (s *memFundStore) ListFunds(_ context.Context) ([]*models.Fund, error) {
	var out []*models.Fund
	for _, f := range s.funds {
		out = append(out, f)
	}
	return out, nil
}

func (s *memFundStore) LatestNav(_ context.Context, fundCode string) (*models.NavRecord, error) {
	return nil, nil
}

func (s *memFundStore) NavOn(_ context.Context, fundCode string, date time.Time) (*models.NavRecord, error) {
	return nil, nil
}

func (s *memFundStore) SaveNavRecords(_ context.Context, records []models.NavRecord) error {
	return nil
}

type memAlertStore struct {
	saved   []*models.Alert
	deleted []string
}

func (s *memAlertStore) ListActiveAlerts(_ context.Context) ([]*models.Alert, error) {
	return s.saved, nil
}

func (s *memAlertStore) SaveAlert(_ context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = "test-id"
	}
	s.saved = append(s.saved, alert)
	return nil
}

func (s *memAlertStore) DeleteAlert(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *memAlertStore) MarkTriggered(_ context.Context, id string, at time.Time) error {
	return nil
}

type stubEstimator struct {
	result *models.EstimationResult
}

func (e *stubEstimator) Estimate(_ context.Context, fundCode string) (*models.EstimationResult, error) {
	if e.result == nil {
		return nil, models.ErrEstimateUnavailable
	}
	return e.result, nil
}

type stubKline struct {
	series  *models.KlineSeries
	summary *models.KlineSummary
	period  string
	from    time.Time
	withInd bool
}

func (k *stubKline) GetKline(_ context.Context, fundCode, period string, from, to time.Time, withIndicators bool) (*models.KlineSeries, error) {
	k.period, k.from, k.withInd = period, from, withIndicators
	if k.series == nil {
		return nil, models.ErrEstimateUnavailable
	}
	return k.series, nil
}

func (k *stubKline) Summary(_ context.Context, fundCode, period string) (*models.KlineSummary, error) {
	if k.summary == nil {
		return nil, models.ErrEstimateUnavailable
	}
	return k.summary, nil
}

func newTestServer(t *testing.T, api *apiServer) *httptest.Server {
	t.Helper()
	if api.cache == nil {
		api.cache = cache.New()
	}
	api.logger = common.NewSilentLogger()

	mux := http.NewServeMux()
	api.register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &apiServer{funds: &memFundStore{}, alerts: &memAlertStore{}})

	var body map[string]string
	resp := getJSON(t, srv.URL+"/api/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestEstimateEndpoint(t *testing.T) {
	est := &stubEstimator{result: &models.EstimationResult{
		FundCode:      "001186",
		EstimatedNav:  2.47,
		ChangePercent: 0.71,
		Method:        models.MethodHoldingsBased,
	}}
	srv := newTestServer(t, &apiServer{funds: &memFundStore{}, alerts: &memAlertStore{}, estimator: est})

	var body models.EstimationResult
	resp := getJSON(t, srv.URL+"/api/v1/funds/001186/estimate", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2.47, body.EstimatedNav)
}

func TestEstimateEndpointUnavailable(t *testing.T) {
	srv := newTestServer(t, &apiServer{funds: &memFundStore{}, alerts: &memAlertStore{}, estimator: &stubEstimator{}})

	resp := getJSON(t, srv.URL+"/api/v1/funds/999999/estimate", nil)

	// A failed estimate is retryable, not a missing resource
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}

func TestSaveFundInvalidatesCache(t *testing.T) {
	c := cache.New()
	c.Set(cache.Key("fund", "001186", "nav", "realtime"), "stale", time.Minute)
	api := &apiServer{funds: &memFundStore{}, alerts: &memAlertStore{}, cache: c}
	srv := newTestServer(t, api)

	resp, err := http.Post(srv.URL+"/api/v1/funds", "application/json",
		strings.NewReader(`{"code":"001186","name":"富国文体健康股票A"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	_, ok := c.Get(cache.Key("fund", "001186", "nav", "realtime"))
	assert.False(t, ok)
}

func TestSaveFundRequiresCode(t *testing.T) {
	srv := newTestServer(t, &apiServer{funds: &memFundStore{}, alerts: &memAlertStore{}})

	resp, err := http.Post(srv.URL+"/api/v1/funds", "application/json", strings.NewReader(`{"name":"无代码"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetFundNotFound(t *testing.T) {
	srv := newTestServer(t, &apiServer{funds: &memFundStore{}, alerts: &memAlertStore{}})

	resp := getJSON(t, srv.URL+"/api/v1/funds/000000", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestKlineEndpointParams(t *testing.T) {
	k := &stubKline{series: &models.KlineSeries{FundCode: "510300", Period: "weekly"}}
	srv := newTestServer(t, &apiServer{funds: &memFundStore{}, alerts: &memAlertStore{}, kline: k})

	resp := getJSON(t, srv.URL+"/api/v1/kline/510300?period=weekly&start_date=2026-01-05&indicators=false", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "weekly", k.period)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), k.from)
	assert.False(t, k.withInd)
}

func TestKlineEndpointDefaults(t *testing.T) {
	k := &stubKline{series: &models.KlineSeries{FundCode: "510300"}}
	srv := newTestServer(t, &apiServer{funds: &memFundStore{}, alerts: &memAlertStore{}, kline: k})

	resp := getJSON(t, srv.URL+"/api/v1/kline/510300", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.PeriodDaily, k.period)
	assert.True(t, k.withInd)
}

func TestKlineEndpointBadDate(t *testing.T) {
	srv := newTestServer(t, &apiServer{funds: &memFundStore{}, alerts: &memAlertStore{}, kline: &stubKline{}})

	resp := getJSON(t, srv.URL+"/api/v1/kline/510300?start_date=05-01-2026", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAlert(t *testing.T) {
	store := &memAlertStore{}
	srv := newTestServer(t, &apiServer{funds: &memFundStore{}, alerts: store})

	resp, err := http.Post(srv.URL+"/api/v1/alerts", "application/json",
		strings.NewReader(`{"fund_code":"001186","alert_type":"price_above","threshold":2.5}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Len(t, store.saved, 1)
	assert.True(t, store.saved[0].Active)
	assert.Equal(t, 2.5, store.saved[0].Threshold)
}

func TestCreateAlertUnknownType(t *testing.T) {
	srv := newTestServer(t, &apiServer{funds: &memFundStore{}, alerts: &memAlertStore{}})

	resp, err := http.Post(srv.URL+"/api/v1/alerts", "application/json",
		strings.NewReader(`{"fund_code":"001186","alert_type":"volume_spike","threshold":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteAlert(t *testing.T) {
	store := &memAlertStore{}
	srv := newTestServer(t, &apiServer{funds: &memFundStore{}, alerts: store})

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/alerts/a1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"a1"}, store.deleted)
}
