package persistence

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/partner"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"gorm.io/gorm"
)

// GormStore implements syncrun.Store. Every repository it hands out shares db,
// so inside Transaction they all write through the same transaction.
type GormStore struct {
	db      *gorm.DB
	history *GormHistoryRepository
}

// NewGormStore creates a store bound to db (a connection or a transaction)
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, history: NewGormHistoryRepository(db)}
}

// Items returns the catalog item repository
func (s *GormStore) Items() catalog.ItemRepository {
	return NewGormCatalogItemRepository(s.db)
}

// Dimensions returns the category/brand repository
func (s *GormStore) Dimensions() catalog.DimensionRepository {
	return NewGormDimensionRepository(s.db)
}

// SecondaryCodes returns the global barcode registry
func (s *GormStore) SecondaryCodes() catalog.SecondaryCodeRepository {
	return NewGormSecondaryCodeRepository(s.db)
}

// ItemHistory returns the item history checker
func (s *GormStore) ItemHistory() catalog.HistoryChecker {
	return s.history
}

// Partners returns the partner repository
func (s *GormStore) Partners() partner.Repository {
	return NewGormPartnerRepository(s.db)
}

// PartnerHistory returns the partner history checker
func (s *GormStore) PartnerHistory() partner.HistoryChecker {
	return s.history
}

// Runs returns the sync run audit repository
func (s *GormStore) Runs() syncrun.RunRepository {
	return NewGormSyncRunRepository(s.db)
}

// Transaction runs fn in a transaction. Called on a store that is already
// inside a transaction, gorm opens a savepoint instead.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx syncrun.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

// Ensure GormStore implements syncrun.Store
var _ syncrun.Store = (*GormStore)(nil)
