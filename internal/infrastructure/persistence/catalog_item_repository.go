package persistence

import (
	"context"
	"time"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCatalogItemRepository implements catalog.ItemRepository using GORM
type GormCatalogItemRepository struct {
	db *gorm.DB
}

// NewGormCatalogItemRepository creates a new GormCatalogItemRepository
func NewGormCatalogItemRepository(db *gorm.DB) *GormCatalogItemRepository {
	return &GormCatalogItemRepository{db: db}
}

// FindAllForTenant loads every item of a tenant ordered by code
func (r *GormCatalogItemRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Item, error) {
	var rows []models.CatalogItemModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]catalog.Item, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// Create inserts a new item
func (r *GormCatalogItemRepository) Create(ctx context.Context, item *catalog.Item) error {
	if err := r.db.WithContext(ctx).Create(models.CatalogItemModelFromDomain(item)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update writes every tracked column, zero values included
func (r *GormCatalogItemRepository) Update(ctx context.Context, item *catalog.Item) error {
	result := r.db.WithContext(ctx).
		Model(&models.CatalogItemModel{}).
		Where("tenant_id = ? AND id = ?", item.TenantID, item.ID).
		Updates(map[string]any{
			"description": item.Description,
			"cost_price":  item.CostPrice,
			"sale_price":  item.SalePrice,
			"stock":       item.Stock,
			"active":      item.Active,
			"location":    item.Location,
			"unit":        item.Unit,
			"category_id": item.CategoryID,
			"brand_id":    item.BrandID,
			"version":     item.Version,
			"updated_at":  item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteForTenant hard deletes an item within a tenant
func (r *GormCatalogItemRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.CatalogItemModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormCatalogItemRepository implements catalog.ItemRepository
var _ catalog.ItemRepository = (*GormCatalogItemRepository)(nil)

func nowUTC() time.Time {
	return time.Now().UTC()
}
