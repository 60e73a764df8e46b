package persistence

import (
	"context"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/partner"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Existence probes against tables owned by the trade subsystem. They never count.
const (
	salesLineProbe     = "SELECT 1 FROM sales_order_items WHERE product_id = ? LIMIT 1"
	purchaseLineProbe  = "SELECT 1 FROM purchase_order_items WHERE product_id = ? LIMIT 1"
	salesOrderProbe    = "SELECT 1 FROM sales_orders WHERE customer_id = ? LIMIT 1"
	purchaseOrderProbe = "SELECT 1 FROM purchase_orders WHERE supplier_id = ? LIMIT 1"
)

// GormHistoryRepository answers whether orders reference an item or partner
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// HasItemHistory checks sale lines first, then purchase lines
func (r *GormHistoryRepository) HasItemHistory(ctx context.Context, itemID uuid.UUID) (bool, error) {
	for _, probe := range []string{salesLineProbe, purchaseLineProbe} {
		found, err := r.exists(ctx, probe, itemID)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

// HasPartnerHistory checks sales orders for clients and purchase orders for providers
func (r *GormHistoryRepository) HasPartnerHistory(ctx context.Context, kind partner.Kind, partnerID uuid.UUID) (bool, error) {
	switch kind {
	case partner.KindClient:
		return r.exists(ctx, salesOrderProbe, partnerID)
	case partner.KindProvider:
		return r.exists(ctx, purchaseOrderProbe, partnerID)
	default:
		return false, fmt.Errorf("unknown partner kind %q", kind)
	}
}

func (r *GormHistoryRepository) exists(ctx context.Context, probe string, id uuid.UUID) (bool, error) {
	var one int
	result := r.db.WithContext(ctx).Raw(probe, id).Scan(&one)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Ensure GormHistoryRepository implements both history checkers
var (
	_ catalog.HistoryChecker = (*GormHistoryRepository)(nil)
	_ partner.HistoryChecker = (*GormHistoryRepository)(nil)
)
