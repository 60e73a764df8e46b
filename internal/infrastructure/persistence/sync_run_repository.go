package persistence

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultRunListLimit = 20
	maxRunListLimit     = 100
)

// GormSyncRunRepository implements syncrun.RunRepository using GORM
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// Save inserts the audit record of a finished run
func (r *GormSyncRunRepository) Save(ctx context.Context, run *syncrun.Run) error {
	model, err := models.SyncRunModelFromDomain(run)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// ListForTenant returns the most recent runs first
func (r *GormSyncRunRepository) ListForTenant(ctx context.Context, tenantID uuid.UUID, filter syncrun.RunFilter) ([]syncrun.Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	if limit > maxRunListLimit {
		limit = maxRunListLimit
	}

	query := r.db.WithContext(ctx).Scopes(TenantScope(tenantID))
	if filter.Table != "" {
		query = query.Where("table_name = ?", string(filter.Table))
	}

	var rows []models.SyncRunModel
	if err := query.Order("started_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	runs := make([]syncrun.Run, 0, len(rows))
	for i := range rows {
		run, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, nil
}

// Ensure GormSyncRunRepository implements syncrun.RunRepository
var _ syncrun.RunRepository = (*GormSyncRunRepository)(nil)
