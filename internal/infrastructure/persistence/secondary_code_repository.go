package persistence

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSecondaryCodeRepository implements catalog.SecondaryCodeRepository using GORM.
// Uniqueness of a code is enforced by idx_secondary_codes_code, so a concurrent
// writer in another tenant surfaces here as ErrBarcodeTaken.
type GormSecondaryCodeRepository struct {
	db *gorm.DB
}

// NewGormSecondaryCodeRepository creates a new GormSecondaryCodeRepository
func NewGormSecondaryCodeRepository(db *gorm.DB) *GormSecondaryCodeRepository {
	return &GormSecondaryCodeRepository{db: db}
}

// FindAll loads the registry across all tenants
func (r *GormSecondaryCodeRepository) FindAll(ctx context.Context) ([]catalog.SecondaryCode, error) {
	var rows []models.SecondaryCodeModel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	codes := make([]catalog.SecondaryCode, len(rows))
	for i := range rows {
		codes[i] = *rows[i].ToDomain()
	}
	return codes, nil
}

// Insert registers a new code
func (r *GormSecondaryCodeRepository) Insert(ctx context.Context, code *catalog.SecondaryCode) error {
	if err := r.db.WithContext(ctx).Create(models.SecondaryCodeModelFromDomain(code)).Error; err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrBarcodeTaken
		}
		return err
	}
	return nil
}

// Claim rebinds a code when its owner is still the one the caller observed
func (r *GormSecondaryCodeRepository) Claim(ctx context.Context, code string, itemID, tenantID uuid.UUID, expectedOwner *uuid.UUID) error {
	query := r.db.WithContext(ctx).
		Model(&models.SecondaryCodeModel{}).
		Where("code = ?", code)
	if expectedOwner == nil {
		query = query.Where("item_id IS NULL")
	} else {
		query = query.Where("item_id = ?", *expectedOwner)
	}

	result := query.Updates(map[string]any{
		"item_id":    itemID,
		"tenant_id":  tenantID,
		"updated_at": nowUTC(),
	})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return catalog.ErrBarcodeTaken
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrBarcodeTaken
	}
	return nil
}

// ReleaseItem removes whatever code the item owns
func (r *GormSecondaryCodeRepository) ReleaseItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&models.SecondaryCodeModel{}).Error
}

// Ensure GormSecondaryCodeRepository implements catalog.SecondaryCodeRepository
var _ catalog.SecondaryCodeRepository = (*GormSecondaryCodeRepository)(nil)
