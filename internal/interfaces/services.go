package interfaces

import (
	"context"
	"time"

	"github.com/fundlens/fundlens/internal/models"
)

// EstimatorService produces real-time NAV estimates.
type EstimatorService interface {
	// Estimate returns the current estimate for a fund, or
	// models.ErrEstimateUnavailable when every tier failed.
	Estimate(ctx context.Context, fundCode string) (*models.EstimationResult, error)
}

// KlineService serves OHLCV series enriched with technical indicators.
type KlineService interface {
	// GetKline returns the bar series for a fund, with indicator fields
	// attached when withIndicators is true.
	GetKline(ctx context.Context, fundCode, period string, from, to time.Time, withIndicators bool) (*models.KlineSeries, error)

	// Summary condenses the most recent bars into headline statistics.
	Summary(ctx context.Context, fundCode, period string) (*models.KlineSummary, error)
}

// AlertService evaluates active alerts against current estimates.
type AlertService interface {
	// CheckAll sweeps every active alert once. Returns the notifications
	// emitted during the sweep.
	CheckAll(ctx context.Context) ([]models.AlertNotification, error)
}

// Notifier delivers alert notifications to interested consumers.
type Notifier interface {
	Notify(ctx context.Context, n models.AlertNotification)
}

// Cache is the process-wide TTL cache shared by the estimator and the kline
// service, exposed so write-path collaborators can invalidate entries.
type Cache interface {
	Set(key string, value any, ttl time.Duration)
	Get(key string) (any, bool)
	Delete(key string)
	// DeleteContaining removes every key containing the given substring,
	// e.g. all entries for one fund after a write.
	DeleteContaining(pattern string) int
	Clear()
}
