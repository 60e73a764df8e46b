package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SyncRunModel is the audit record of one sync run
type SyncRunModel struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_sync_runs_tenant_started,priority:1"`
	SyncTable       string         `gorm:"column:table_name;type:varchar(50);not null"`
	Trigger         string         `gorm:"column:run_trigger;type:varchar(20);not null"`
	Status          string         `gorm:"type:varchar(30);not null"`
	ReadCount       int            `gorm:"not null;default:0"`
	Duplicates      int            `gorm:"not null;default:0"`
	Created         int            `gorm:"not null;default:0"`
	Updated         int            `gorm:"not null;default:0"`
	Unchanged       int            `gorm:"not null;default:0"`
	Skipped         int            `gorm:"not null;default:0"`
	Errors          int            `gorm:"not null;default:0"`
	Deleted         int            `gorm:"not null;default:0"`
	Protected       int            `gorm:"not null;default:0"`
	Flagged         int            `gorm:"not null;default:0"`
	ErrorCode       string         `gorm:"type:varchar(50);not null;default:''"`
	ErrorMessage    string         `gorm:"type:text;not null;default:''"`
	Issues          datatypes.JSON `gorm:""`
	TotalIssues     int            `gorm:"not null;default:0"`
	IssuesTruncated bool           `gorm:"not null;default:false"`
	StartedAt       time.Time      `gorm:"not null;index:idx_sync_runs_tenant_started,priority:2,sort:desc"`
	FinishedAt      time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncRunModel) TableName() string {
	return "sync_runs"
}

// SyncRunModelFromDomain creates a model from a domain Run
func SyncRunModelFromDomain(run *syncrun.Run) (*SyncRunModel, error) {
	issues := run.Issues
	if issues == nil {
		issues = []syncrun.Issue{}
	}
	raw, err := json.Marshal(issues)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sync run issues: %w", err)
	}
	return &SyncRunModel{
		ID:              run.RunID,
		TenantID:        run.TenantID,
		SyncTable:       string(run.Table),
		Trigger:         string(run.Trigger),
		Status:          string(run.Status),
		ReadCount:       run.Read,
		Duplicates:      run.Duplicates,
		Created:         run.Created,
		Updated:         run.Updated,
		Unchanged:       run.Unchanged,
		Skipped:         run.Skipped,
		Errors:          run.Errors,
		Deleted:         run.Deleted,
		Protected:       run.Protected,
		Flagged:         run.Flagged,
		ErrorCode:       run.ErrorCode,
		ErrorMessage:    run.Error,
		Issues:          datatypes.JSON(raw),
		TotalIssues:     run.TotalIssues,
		IssuesTruncated: run.IssuesTruncated,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
	}, nil
}

// ToDomain converts the model to a domain Run
func (m *SyncRunModel) ToDomain() (*syncrun.Run, error) {
	var issues []syncrun.Issue
	if len(m.Issues) > 0 {
		if err := json.Unmarshal(m.Issues, &issues); err != nil {
			return nil, fmt.Errorf("failed to decode sync run issues: %w", err)
		}
	}
	return &syncrun.Run{
		Trigger: syncrun.Trigger(m.Trigger),
		Report: syncrun.Report{
			RunID:    m.ID,
			TenantID: m.TenantID,
			Table:    syncrun.LogicalTable(m.SyncTable),
			Status:   syncrun.Status(m.Status),
			Counters: syncrun.Counters{
				Read:       m.ReadCount,
				Duplicates: m.Duplicates,
				Created:    m.Created,
				Updated:    m.Updated,
				Unchanged:  m.Unchanged,
				Skipped:    m.Skipped,
				Errors:     m.Errors,
				Deleted:    m.Deleted,
				Protected:  m.Protected,
				Flagged:    m.Flagged,
			},
			ErrorCode:       m.ErrorCode,
			Error:           m.ErrorMessage,
			Issues:          issues,
			TotalIssues:     m.TotalIssues,
			IssuesTruncated: m.IssuesTruncated,
			StartedAt:       m.StartedAt,
			FinishedAt:      m.FinishedAt,
		},
	}, nil
}

// AllModels lists every model AutoMigrate creates
func AllModels() []any {
	return []any{
		&CatalogItemModel{},
		&DimensionModel{},
		&SecondaryCodeModel{},
		&PartnerModel{},
		&SalesOrderModel{},
		&SalesOrderItemModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderItemModel{},
		&SyncRunModel{},
	}
}
