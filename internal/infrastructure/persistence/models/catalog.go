package models

import (
	"fmt"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Amount is a decimal column of catalog.AmountPrecision digits, catalog.AmountScale
// of them decimals. SQLite stores it as TEXT so values never pass through a float.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d for storage
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// GormDBDataType picks the column type per dialect
func (Amount) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "sqlite" {
		return "text"
	}
	return fmt.Sprintf("decimal(%d,%d)", catalog.AmountPrecision, catalog.AmountScale)
}

// CatalogItemModel is the persistence model for catalog.Item
type CatalogItemModel struct {
	BaseModel
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_items_tenant_code,priority:1"`
	Version     int             `gorm:"not null;default:1"`
	Code        string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_catalog_items_tenant_code,priority:2"`
	Description string          `gorm:"type:varchar(500);not null;default:''"`
	CostPrice   Amount          `gorm:"not null;default:0"`
	SalePrice   Amount          `gorm:"not null;default:0"`
	Stock       Amount          `gorm:"not null;default:0"`
	Active      bool            `gorm:"not null;default:true"`
	Location    string          `gorm:"type:varchar(100);not null;default:''"`
	Unit        string          `gorm:"type:varchar(50);not null;default:''"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	BrandID     *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (CatalogItemModel) TableName() string {
	return "catalog_items"
}

// ToDomain converts the model to a domain Item
func (m *CatalogItemModel) ToDomain() *catalog.Item {
	tm := TenantModel{BaseModel: m.BaseModel, TenantID: m.TenantID, Version: m.Version}
	return &catalog.Item{
		TenantEntity: tm.ToDomainTenantEntity(),
		Code:         m.Code,
		Description:  m.Description,
		CostPrice:    m.CostPrice.Decimal,
		SalePrice:    m.SalePrice.Decimal,
		Stock:        m.Stock.Decimal,
		Active:       m.Active,
		Location:     m.Location,
		Unit:         m.Unit,
		CategoryID:   m.CategoryID,
		BrandID:      m.BrandID,
	}
}

// FromDomain populates the model from a domain Item
func (m *CatalogItemModel) FromDomain(i *catalog.Item) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.TenantID = i.TenantID
	m.Version = i.Version
	m.Code = i.Code
	m.Description = i.Description
	m.CostPrice = NewAmount(i.CostPrice)
	m.SalePrice = NewAmount(i.SalePrice)
	m.Stock = NewAmount(i.Stock)
	m.Active = i.Active
	m.Location = i.Location
	m.Unit = i.Unit
	m.CategoryID = i.CategoryID
	m.BrandID = i.BrandID
}

// CatalogItemModelFromDomain creates a model from a domain Item
func CatalogItemModelFromDomain(i *catalog.Item) *CatalogItemModel {
	m := &CatalogItemModel{}
	m.FromDomain(i)
	return m
}

// DimensionModel is the persistence model for catalog.Dimension
type DimensionModel struct {
	BaseModel
	TenantID uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_dimensions_tenant_kind_name,priority:1"`
	Kind     catalog.DimensionKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_catalog_dimensions_tenant_kind_name,priority:2"`
	Name     string                `gorm:"type:varchar(200);not null;uniqueIndex:idx_catalog_dimensions_tenant_kind_name,priority:3"`
}

// TableName returns the table name for GORM
func (DimensionModel) TableName() string {
	return "catalog_dimensions"
}

// ToDomain converts the model to a domain Dimension
func (m *DimensionModel) ToDomain() *catalog.Dimension {
	return &catalog.Dimension{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		Kind:       m.Kind,
		Name:       m.Name,
	}
}

// DimensionModelFromDomain creates a model from a domain Dimension
func DimensionModelFromDomain(d *catalog.Dimension) *DimensionModel {
	m := &DimensionModel{TenantID: d.TenantID, Kind: d.Kind, Name: d.Name}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}

// SecondaryCodeModel is the persistence model for catalog.SecondaryCode.
// Code is unique across all tenants; an item owns at most one code.
type SecondaryCodeModel struct {
	BaseModel
	Code     string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_secondary_codes_code"`
	ItemID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_secondary_codes_item"`
	TenantID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (SecondaryCodeModel) TableName() string {
	return "secondary_codes"
}

// ToDomain converts the model to a domain SecondaryCode
func (m *SecondaryCodeModel) ToDomain() *catalog.SecondaryCode {
	return &catalog.SecondaryCode{
		BaseEntity: m.BaseModel.ToDomain(),
		Code:       m.Code,
		ItemID:     m.ItemID,
		TenantID:   m.TenantID,
	}
}

// SecondaryCodeModelFromDomain creates a model from a domain SecondaryCode
func SecondaryCodeModelFromDomain(s *catalog.SecondaryCode) *SecondaryCodeModel {
	m := &SecondaryCodeModel{Code: s.Code, ItemID: s.ItemID, TenantID: s.TenantID}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
