package interfaces

import (
	"context"
	"time"

	"github.com/fundlens/fundlens/internal/models"
)

// FundStore persists the fund registry and published NAV history. The
// estimation engine only reads from it; writes come from sync tasks and the
// API layer, which invalidate the cache afterwards.
type FundStore interface {
	GetFund(ctx context.Context, code string) (*models.Fund, error)
	SaveFund(ctx context.Context, fund *models.Fund) error
	ListFunds(ctx context.Context) ([]*models.Fund, error)

	// LatestNav returns the most recent published NAV record for a fund, or
	// nil when none is stored.
	LatestNav(ctx context.Context, fundCode string) (*models.NavRecord, error)

	// NavOn returns the published NAV record for a specific date, or nil.
	NavOn(ctx context.Context, fundCode string, date time.Time) (*models.NavRecord, error)

	// SaveNavRecords upserts published NAV records, keyed by fund and date.
	SaveNavRecords(ctx context.Context, records []models.NavRecord) error
}

// AlertStore persists alert definitions and trigger timestamps.
type AlertStore interface {
	ListActiveAlerts(ctx context.Context) ([]*models.Alert, error)
	SaveAlert(ctx context.Context, alert *models.Alert) error
	DeleteAlert(ctx context.Context, id string) error

	// MarkTriggered stamps the alert's last-triggered time.
	MarkTriggered(ctx context.Context, id string, at time.Time) error
}

// StorageManager groups the storage areas and owns their lifecycle.
type StorageManager interface {
	FundStore() FundStore
	AlertStore() AlertStore
	Close() error
}
