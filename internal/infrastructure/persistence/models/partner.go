package models

import (
	"github.com/erp/catalogsync/internal/domain/partner"
	"github.com/google/uuid"
)

// PartnerModel is the persistence model for partner.Partner
type PartnerModel struct {
	BaseModel
	TenantID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_partners_tenant_kind_code,priority:1"`
	Version  int          `gorm:"not null;default:1"`
	Kind     partner.Kind `gorm:"type:varchar(20);not null;uniqueIndex:idx_partners_tenant_kind_code,priority:2"`
	Code     string       `gorm:"type:varchar(100);not null;uniqueIndex:idx_partners_tenant_kind_code,priority:3"`
	Name     string       `gorm:"type:varchar(300);not null;default:''"`
	TaxID    string       `gorm:"type:varchar(50);not null;default:''"`
	Email    string       `gorm:"type:varchar(200);not null;default:''"`
	Phone    string       `gorm:"type:varchar(50);not null;default:''"`
	Address  string       `gorm:"type:varchar(500);not null;default:''"`
	Active   bool         `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (PartnerModel) TableName() string {
	return "partners"
}

// ToDomain converts the model to a domain Partner
func (m *PartnerModel) ToDomain() *partner.Partner {
	tm := TenantModel{BaseModel: m.BaseModel, TenantID: m.TenantID, Version: m.Version}
	return &partner.Partner{
		TenantEntity: tm.ToDomainTenantEntity(),
		Kind:         m.Kind,
		Code:         m.Code,
		Name:         m.Name,
		TaxID:        m.TaxID,
		Email:        m.Email,
		Phone:        m.Phone,
		Address:      m.Address,
		Active:       m.Active,
	}
}

// PartnerModelFromDomain creates a model from a domain Partner
func PartnerModelFromDomain(p *partner.Partner) *PartnerModel {
	m := &PartnerModel{
		TenantID: p.TenantID,
		Version:  p.Version,
		Kind:     p.Kind,
		Code:     p.Code,
		Name:     p.Name,
		TaxID:    p.TaxID,
		Email:    p.Email,
		Phone:    p.Phone,
		Address:  p.Address,
		Active:   p.Active,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
