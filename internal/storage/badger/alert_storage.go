package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/interfaces"
	"github.com/fundlens/fundlens/internal/models"
)

type alertStorage struct {
	store  *Store
	logger *common.Logger
}

// NewAlertStorage creates a new AlertStore backed by BadgerHold.
func NewAlertStorage(store *Store, logger *common.Logger) *alertStorage {
	return &alertStorage{store: store, logger: logger}
}

func (s *alertStorage) ListActiveAlerts(_ context.Context) ([]*models.Alert, error) {
	var alerts []*models.Alert
	query := badgerhold.Where("Active").Eq(true)
	if err := s.store.db.Find(&alerts, query); err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	return alerts, nil
}

func (s *alertStorage) SaveAlert(_ context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	if err := s.store.db.Upsert(alert.ID, alert); err != nil {
		return fmt.Errorf("failed to save alert '%s': %w", alert.ID, err)
	}
	s.logger.Debug().
		Str("alert", alert.ID).
		Str("fund", alert.FundCode).
		Str("type", alert.Type).
		Msg("Alert saved")
	return nil
}

func (s *alertStorage) DeleteAlert(_ context.Context, id string) error {
	err := s.store.db.Delete(id, models.Alert{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete alert '%s': %w", id, err)
	}
	s.logger.Debug().Str("alert", id).Msg("Alert deleted")
	return nil
}

func (s *alertStorage) MarkTriggered(_ context.Context, id string, at time.Time) error {
	var alert models.Alert
	if err := s.store.db.Get(id, &alert); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("alert '%s' not found", id)
		}
		return fmt.Errorf("failed to get alert '%s': %w", id, err)
	}

	alert.LastTriggered = at
	if err := s.store.db.Update(id, &alert); err != nil {
		return fmt.Errorf("failed to update alert '%s': %w", id, err)
	}
	return nil
}

// Ensure alertStorage implements AlertStore
var _ interfaces.AlertStore = (*alertStorage)(nil)
