package persistence

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/partner"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPartnerRepository implements partner.Repository using GORM
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// FindAllForTenant loads every partner of one kind within a tenant
func (r *GormPartnerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, kind partner.Kind) ([]partner.Partner, error) {
	var rows []models.PartnerModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("kind = ?", kind).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	partners := make([]partner.Partner, len(rows))
	for i := range rows {
		partners[i] = *rows[i].ToDomain()
	}
	return partners, nil
}

// Create inserts a new partner
func (r *GormPartnerRepository) Create(ctx context.Context, p *partner.Partner) error {
	if err := r.db.WithContext(ctx).Create(models.PartnerModelFromDomain(p)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update writes every tracked column, zero values included
func (r *GormPartnerRepository) Update(ctx context.Context, p *partner.Partner) error {
	result := r.db.WithContext(ctx).
		Model(&models.PartnerModel{}).
		Where("tenant_id = ? AND id = ?", p.TenantID, p.ID).
		Updates(map[string]any{
			"name":       p.Name,
			"tax_id":     p.TaxID,
			"email":      p.Email,
			"phone":      p.Phone,
			"address":    p.Address,
			"active":     p.Active,
			"version":    p.Version,
			"updated_at": p.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteForTenant hard deletes a partner within a tenant
func (r *GormPartnerRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.PartnerModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormPartnerRepository implements partner.Repository
var _ partner.Repository = (*GormPartnerRepository)(nil)
