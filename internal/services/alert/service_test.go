package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/models"
)

type fakeEstimator struct {
	results map[string]*models.EstimationResult
}

func (e *fakeEstimator) Estimate(ctx context.Context, fundCode string) (*models.EstimationResult, error) {
	if r, ok := e.results[fundCode]; ok {
		return r, nil
	}
	return nil, models.ErrEstimateUnavailable
}

type fakeAlertStore struct {
	alerts    []*models.Alert
	listErr   error
	triggered map[string]time.Time
}

func (s *fakeAlertStore) ListActiveAlerts(ctx context.Context) ([]*models.Alert, error) {
	return s.alerts, s.listErr
}

func (s *fakeAlertStore) SaveAlert(ctx context.Context, alert *models.Alert) error { return nil }

func (s *fakeAlertStore) DeleteAlert(ctx context.Context, id string) error { return nil }

func (s *fakeAlertStore) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	if s.triggered == nil {
		s.triggered = make(map[string]time.Time)
	}
	s.triggered[id] = at
	return nil
}

type fakeNotifier struct {
	sent []models.AlertNotification
}

func (n *fakeNotifier) Notify(ctx context.Context, notification models.AlertNotification) {
	n.sent = append(n.sent, notification)
}

func estimate(fundCode string, estimatedNav, changePercent float64) *models.EstimationResult {
	return &models.EstimationResult{
		FundCode:      fundCode,
		FundName:      "测试基金" + fundCode,
		EstimatedNav:  estimatedNav,
		ChangePercent: changePercent,
	}
}

func TestCheckAllPriceAbove(t *testing.T) {
	store := &fakeAlertStore{alerts: []*models.Alert{
		{ID: "a1", FundCode: "001186", Type: models.AlertPriceAbove, Threshold: 2.40, Active: true},
	}}
	notifier := &fakeNotifier{}
	svc := NewService(&fakeEstimator{results: map[string]*models.EstimationResult{
		"001186": estimate("001186", 2.47, 0.7),
	}}, store, notifier, common.NewSilentLogger())

	fired, err := svc.CheckAll(context.Background())
	require.NoError(t, err)

	require.Len(t, fired, 1)
	n := fired[0]
	assert.Equal(t, "a1", n.AlertID)
	assert.Equal(t, models.AlertPriceAbove, n.AlertType)
	assert.Equal(t, 2.47, n.CurrentValue)
	assert.NotEmpty(t, n.ID)
	assert.Contains(t, n.Message, "测试基金001186")

	assert.Equal(t, notifier.sent, fired)
	assert.Contains(t, store.triggered, "a1")
}

func TestCheckAllPriceBelowNotTriggered(t *testing.T) {
	store := &fakeAlertStore{alerts: []*models.Alert{
		{ID: "a1", FundCode: "001186", Type: models.AlertPriceBelow, Threshold: 2.40, Active: true},
	}}
	svc := NewService(&fakeEstimator{results: map[string]*models.EstimationResult{
		"001186": estimate("001186", 2.47, 0.7),
	}}, store, nil, common.NewSilentLogger())

	fired, err := svc.CheckAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Empty(t, store.triggered)
}

func TestCheckAllChangePercentAbsolute(t *testing.T) {
	store := &fakeAlertStore{alerts: []*models.Alert{
		{ID: "down", FundCode: "510300", Type: models.AlertChangePercent, Threshold: 2.5, Active: true},
	}}
	svc := NewService(&fakeEstimator{results: map[string]*models.EstimationResult{
		"510300": estimate("510300", 1.0, -3.1),
	}}, store, nil, common.NewSilentLogger())

	fired, err := svc.CheckAll(context.Background())
	require.NoError(t, err)

	// A -3.1% move trips a 2.5 threshold; the notification carries the signed value
	require.Len(t, fired, 1)
	assert.Equal(t, -3.1, fired[0].CurrentValue)
}

func TestCheckAllSkipsUnavailableEstimate(t *testing.T) {
	store := &fakeAlertStore{alerts: []*models.Alert{
		{ID: "a1", FundCode: "999999", Type: models.AlertPriceAbove, Threshold: 1.0, Active: true},
		{ID: "a2", FundCode: "001186", Type: models.AlertPriceAbove, Threshold: 2.0, Active: true},
	}}
	svc := NewService(&fakeEstimator{results: map[string]*models.EstimationResult{
		"001186": estimate("001186", 2.47, 0.7),
	}}, store, nil, common.NewSilentLogger())

	fired, err := svc.CheckAll(context.Background())
	require.NoError(t, err)

	// The fund with no estimate is skipped, the rest of the sweep continues
	require.Len(t, fired, 1)
	assert.Equal(t, "a2", fired[0].AlertID)
}

func TestCheckAllListError(t *testing.T) {
	store := &fakeAlertStore{listErr: errors.New("storage closed")}
	svc := NewService(&fakeEstimator{}, store, nil, common.NewSilentLogger())

	_, err := svc.CheckAll(context.Background())
	require.Error(t, err)
}

func TestCheckAllExactThresholdDoesNotTrigger(t *testing.T) {
	store := &fakeAlertStore{alerts: []*models.Alert{
		{ID: "a1", FundCode: "001186", Type: models.AlertPriceAbove, Threshold: 2.47, Active: true},
		{ID: "a2", FundCode: "001186", Type: models.AlertChangePercent, Threshold: 0.7, Active: true},
	}}
	svc := NewService(&fakeEstimator{results: map[string]*models.EstimationResult{
		"001186": estimate("001186", 2.47, 0.7),
	}}, store, nil, common.NewSilentLogger())

	fired, err := svc.CheckAll(context.Background())
	require.NoError(t, err)

	// Comparisons are strict: equality is not a breach
	assert.Empty(t, fired)
}

func TestEvaluateUnknownType(t *testing.T) {
	triggered, _ := evaluate(
		&models.Alert{Type: "volume_spike", Threshold: 1},
		estimate("001186", 99, 99),
	)
	assert.False(t, triggered)
}
