// Package badger provides BadgerHold-based storage for the fund registry,
// NAV history and alerts.
package badger

import (
	"fmt"
	"os"

	"github.com/timshannon/badgerhold/v4"

	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/interfaces"
)

// Store wraps a BadgerHold database connection.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore creates a new BadgerHold store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerHold store opened")

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// DB returns the underlying badgerhold store.
func (s *Store) DB() *badgerhold.Store {
	return s.db
}

// Close closes the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Manager groups the storage areas over a single Store.
type Manager struct {
	store  *Store
	funds  *fundStorage
	alerts *alertStorage
}

// NewManager opens a Store at path and builds the storage areas over it.
func NewManager(logger *common.Logger, path string) (*Manager, error) {
	store, err := NewStore(logger, path)
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:  store,
		funds:  NewFundStorage(store, logger),
		alerts: NewAlertStorage(store, logger),
	}, nil
}

func (m *Manager) FundStore() interfaces.FundStore { return m.funds }

func (m *Manager) AlertStore() interfaces.AlertStore { return m.alerts }

func (m *Manager) Close() error { return m.store.Close() }

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)
