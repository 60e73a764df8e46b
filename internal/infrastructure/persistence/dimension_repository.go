package persistence

import (
	"context"
	"errors"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDimensionRepository implements catalog.DimensionRepository using GORM
type GormDimensionRepository struct {
	db *gorm.DB
}

// NewGormDimensionRepository creates a new GormDimensionRepository
func NewGormDimensionRepository(db *gorm.DB) *GormDimensionRepository {
	return &GormDimensionRepository{db: db}
}

// FindByName finds a dimension by exact, case-sensitive name
func (r *GormDimensionRepository) FindByName(ctx context.Context, tenantID uuid.UUID, kind catalog.DimensionKind, name string) (*catalog.Dimension, error) {
	var model models.DimensionModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("kind = ? AND name = ?", kind, name).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new dimension
func (r *GormDimensionRepository) Create(ctx context.Context, dimension *catalog.Dimension) error {
	if err := r.db.WithContext(ctx).Create(models.DimensionModelFromDomain(dimension)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Ensure GormDimensionRepository implements catalog.DimensionRepository
var _ catalog.DimensionRepository = (*GormDimensionRepository)(nil)
