package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/interfaces"
	"github.com/fundlens/fundlens/internal/models"
)

type fundStorage struct {
	store  *Store
	logger *common.Logger
}

// NewFundStorage creates a new FundStore backed by BadgerHold.
func NewFundStorage(store *Store, logger *common.Logger) *fundStorage {
	return &fundStorage{store: store, logger: logger}
}

func (s *fundStorage) GetFund(_ context.Context, code string) (*models.Fund, error) {
	var fund models.Fund
	err := s.store.db.Get(code, &fund)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fund '%s': %w", code, err)
	}
	return &fund, nil
}

func (s *fundStorage) SaveFund(_ context.Context, fund *models.Fund) error {
	fund.UpdatedAt = time.Now()
	if fund.CreatedAt.IsZero() {
		fund.CreatedAt = time.Now()
	}

	if err := s.store.db.Upsert(fund.Code, fund); err != nil {
		return fmt.Errorf("failed to save fund '%s': %w", fund.Code, err)
	}
	s.logger.Debug().Str("fund", fund.Code).Str("name", fund.Name).Msg("Fund saved")
	return nil
}

func (s *fundStorage) ListFunds(_ context.Context) ([]*models.Fund, error) {
	var funds []*models.Fund
	if err := s.store.db.Find(&funds, nil); err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	return funds, nil
}

func (s *fundStorage) LatestNav(_ context.Context, fundCode string) (*models.NavRecord, error) {
	var records []models.NavRecord
	query := badgerhold.Where("FundCode").Eq(fundCode).Index("FundCode")
	if err := s.store.db.Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to query NAV history for '%s': %w", fundCode, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	latest := records[0]
	for _, r := range records[1:] {
		if r.Date.After(latest.Date) {
			latest = r
		}
	}
	return &latest, nil
}

func (s *fundStorage) NavOn(_ context.Context, fundCode string, date time.Time) (*models.NavRecord, error) {
	var record models.NavRecord
	err := s.store.db.Get(navKey(fundCode, date), &record)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get NAV for '%s' on %s: %w", fundCode, date.Format("2006-01-02"), err)
	}
	return &record, nil
}

func (s *fundStorage) SaveNavRecords(_ context.Context, records []models.NavRecord) error {
	for i := range records {
		r := records[i]
		if err := s.store.db.Upsert(navKey(r.FundCode, r.Date), &r); err != nil {
			return fmt.Errorf("failed to save NAV for '%s' on %s: %w", r.FundCode, r.Date.Format("2006-01-02"), err)
		}
	}
	s.logger.Debug().Int("count", len(records)).Msg("NAV records saved")
	return nil
}

// navKey builds the NAV record key from fund code and calendar date. The time
// of day is deliberately dropped so one record exists per fund per day.
func navKey(fundCode string, date time.Time) string {
	return fundCode + ":" + date.Format("2006-01-02")
}

// Ensure fundStorage implements FundStore
var _ interfaces.FundStore = (*fundStorage)(nil)
