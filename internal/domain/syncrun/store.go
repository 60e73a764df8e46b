package syncrun

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/partner"
)

// Store is the unit of work a sync run reads and writes through.
// Inside Transaction every repository shares the transaction; a nested
// Transaction call runs in a savepoint.
type Store interface {
	Items() catalog.ItemRepository
	Dimensions() catalog.DimensionRepository
	SecondaryCodes() catalog.SecondaryCodeRepository
	ItemHistory() catalog.HistoryChecker
	Partners() partner.Repository
	PartnerHistory() partner.HistoryChecker
	Runs() RunRepository

	Transaction(ctx context.Context, fn func(tx Store) error) error
}
