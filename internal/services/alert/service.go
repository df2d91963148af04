// Package alert evaluates NAV alerts against current estimates
package alert

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/interfaces"
	"github.com/fundlens/fundlens/internal/models"
)

// Service implements AlertService. A sweep walks every active alert, obtains
// the fund's current estimate and fires a notification when the alert
// condition holds. Each alert is evaluated independently; one failing fund
// never aborts the sweep.
type Service struct {
	estimator interfaces.EstimatorService
	alerts    interfaces.AlertStore
	notifier  interfaces.Notifier
	logger    *common.Logger
	now       func() time.Time
}

// NewService creates a new alert service. notifier may be nil; triggered
// alerts are then only recorded and returned.
func NewService(estimator interfaces.EstimatorService, alerts interfaces.AlertStore, notifier interfaces.Notifier, logger *common.Logger) *Service {
	return &Service{
		estimator: estimator,
		alerts:    alerts,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// CheckAll sweeps every active alert once and returns the notifications that
// fired. An alert whose fund has no estimate right now is skipped, not
// deactivated; it gets another chance next sweep.
func (s *Service) CheckAll(ctx context.Context) ([]models.AlertNotification, error) {
	alerts, err := s.alerts.ListActiveAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active alerts: %w", err)
	}

	var fired []models.AlertNotification
	for _, a := range alerts {
		estimate, err := s.estimator.Estimate(ctx, a.FundCode)
		if err != nil {
			s.logger.Debug().
				Err(err).
				Str("alert", a.ID).
				Str("fund", a.FundCode).
				Msg("No estimate, skipping alert")
			continue
		}

		triggered, currentValue := evaluate(a, estimate)
		if !triggered {
			continue
		}

		triggeredAt := s.now()
		if err := s.alerts.MarkTriggered(ctx, a.ID, triggeredAt); err != nil {
			s.logger.Warn().Err(err).Str("alert", a.ID).Msg("Failed to record alert trigger")
		}

		n := models.AlertNotification{
			ID:           uuid.NewString(),
			AlertID:      a.ID,
			FundCode:     a.FundCode,
			FundName:     estimate.FundName,
			AlertType:    a.Type,
			Threshold:    a.Threshold,
			CurrentValue: currentValue,
			Message:      fmt.Sprintf("Alert triggered for %s", estimate.FundName),
			TriggeredAt:  triggeredAt,
		}

		if s.notifier != nil {
			s.notifier.Notify(ctx, n)
		}
		fired = append(fired, n)

		s.logger.Info().
			Str("alert", a.ID).
			Str("fund", a.FundCode).
			Str("type", a.Type).
			Float64("threshold", a.Threshold).
			Float64("current", currentValue).
			Msg("Alert triggered")
	}

	return fired, nil
}

// evaluate reports whether the alert condition holds against the estimate and
// which value it compared. Price alerts compare the estimated NAV strictly
// against the threshold; change alerts compare the absolute change percent, so
// a -3% move trips a 2.5 threshold the same as +3%.
func evaluate(a *models.Alert, estimate *models.EstimationResult) (bool, float64) {
	switch a.Type {
	case models.AlertPriceAbove:
		return estimate.EstimatedNav > a.Threshold, estimate.EstimatedNav
	case models.AlertPriceBelow:
		return estimate.EstimatedNav < a.Threshold, estimate.EstimatedNav
	case models.AlertChangePercent:
		return math.Abs(estimate.ChangePercent) > a.Threshold, estimate.ChangePercent
	default:
		return false, 0
	}
}

// Ensure Service implements AlertService
var _ interfaces.AlertService = (*Service)(nil)
