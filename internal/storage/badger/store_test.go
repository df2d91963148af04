package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFundRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	funds := mgr.FundStore()
	ctx := context.Background()

	require.NoError(t, funds.SaveFund(ctx, &models.Fund{
		Code: "001186",
		Name: "富国文体健康股票A",
		Type: "股票型",
	}))

	fund, err := funds.GetFund(ctx, "001186")
	require.NoError(t, err)
	require.NotNil(t, fund)
	assert.Equal(t, "富国文体健康股票A", fund.Name)
	assert.False(t, fund.CreatedAt.IsZero())

	list, err := funds.ListFunds(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetFundMissing(t *testing.T) {
	mgr := newTestManager(t)

	fund, err := mgr.FundStore().GetFund(context.Background(), "000000")
	require.NoError(t, err)
	assert.Nil(t, fund)
}

func TestLatestNav(t *testing.T) {
	mgr := newTestManager(t)
	funds := mgr.FundStore()
	ctx := context.Background()

	require.NoError(t, funds.SaveNavRecords(ctx, []models.NavRecord{
		{FundCode: "001186", Date: date(2026, 3, 2), Nav: 2.44},
		{FundCode: "001186", Date: date(2026, 3, 3), Nav: 2.47},
		{FundCode: "001186", Date: date(2026, 2, 27), Nav: 2.40},
		{FundCode: "510300", Date: date(2026, 3, 4), Nav: 4.10},
	}))

	latest, err := funds.LatestNav(ctx, "001186")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2.47, latest.Nav)
	assert.Equal(t, date(2026, 3, 3), latest.Date)

	none, err := funds.LatestNav(ctx, "999999")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestNavOn(t *testing.T) {
	mgr := newTestManager(t)
	funds := mgr.FundStore()
	ctx := context.Background()

	require.NoError(t, funds.SaveNavRecords(ctx, []models.NavRecord{
		{FundCode: "001186", Date: date(2026, 3, 2), Nav: 2.44},
	}))

	record, err := funds.NavOn(ctx, "001186", date(2026, 3, 2))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 2.44, record.Nav)

	// Same calendar date at a different clock time still matches
	afternoon := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	record, err = funds.NavOn(ctx, "001186", afternoon)
	require.NoError(t, err)
	assert.NotNil(t, record)

	missing, err := funds.NavOn(ctx, "001186", date(2026, 3, 3))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveNavRecordsUpserts(t *testing.T) {
	mgr := newTestManager(t)
	funds := mgr.FundStore()
	ctx := context.Background()

	require.NoError(t, funds.SaveNavRecords(ctx, []models.NavRecord{
		{FundCode: "001186", Date: date(2026, 3, 2), Nav: 2.44},
	}))
	// Re-publishing the same date replaces, not duplicates
	require.NoError(t, funds.SaveNavRecords(ctx, []models.NavRecord{
		{FundCode: "001186", Date: date(2026, 3, 2), Nav: 2.45},
	}))

	latest, err := funds.LatestNav(ctx, "001186")
	require.NoError(t, err)
	assert.Equal(t, 2.45, latest.Nav)
}

func TestAlertLifecycle(t *testing.T) {
	mgr := newTestManager(t)
	alerts := mgr.AlertStore()
	ctx := context.Background()

	active := &models.Alert{FundCode: "001186", Type: models.AlertPriceAbove, Threshold: 2.5, Active: true}
	inactive := &models.Alert{FundCode: "001186", Type: models.AlertPriceBelow, Threshold: 2.0, Active: false}
	require.NoError(t, alerts.SaveAlert(ctx, active))
	require.NoError(t, alerts.SaveAlert(ctx, inactive))

	// IDs are assigned on save
	assert.NotEmpty(t, active.ID)

	listed, err := alerts.ListActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, active.ID, listed[0].ID)

	at := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, alerts.MarkTriggered(ctx, active.ID, at))

	listed, err = alerts.ListActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].LastTriggered.Equal(at))

	require.NoError(t, alerts.DeleteAlert(ctx, active.ID))
	listed, err = alerts.ListActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestMarkTriggeredMissingAlert(t *testing.T) {
	mgr := newTestManager(t)
	err := mgr.AlertStore().MarkTriggered(context.Background(), "nope", time.Now())
	require.Error(t, err)
}
