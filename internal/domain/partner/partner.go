package partner

import (
	"strings"

	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
)

// Kind separates clients from providers. Codes are unique per (tenant, kind).
type Kind string

const (
	KindClient   Kind = "client"
	KindProvider Kind = "provider"
)

// IsValid reports whether the kind is known
func (k Kind) IsValid() bool {
	return k == KindClient || k == KindProvider
}

// Tracked partner fields
const (
	FieldName    = "name"
	FieldTaxID   = "tax_id"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldAddress = "address"
	FieldActive  = "active"
)

// Partner is a client or provider synchronized from the tenant's source
type Partner struct {
	shared.TenantEntity
	Kind    Kind
	Code    string
	Name    string
	TaxID   string
	Email   string
	Phone   string
	Address string
	Active  bool
}

// Fields is the desired state of a partner as read from the source
type Fields struct {
	Name    string
	TaxID   string
	Email   string
	Phone   string
	Address string
	Active  *bool
}

// ErrBlankCode is returned for rows without a partner code
var ErrBlankCode = shared.NewDomainError("ROW_SKIPPED", "Partner code cannot be empty")

// NewPartner creates a new partner, active unless fields say otherwise
func NewPartner(tenantID uuid.UUID, kind Kind, code string, fields Fields) (*Partner, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_PARTNER_KIND", "Partner kind must be client or provider")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrBlankCode
	}

	p := &Partner{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Kind:         kind,
		Code:         code,
		Name:         strings.TrimSpace(fields.Name),
		TaxID:        strings.TrimSpace(fields.TaxID),
		Email:        strings.ToLower(strings.TrimSpace(fields.Email)),
		Phone:        strings.TrimSpace(fields.Phone),
		Address:      strings.TrimSpace(fields.Address),
		Active:       true,
	}
	if fields.Active != nil {
		p.Active = *fields.Active
	}
	return p, nil
}

// Apply writes the fields that differ and returns their names
func (p *Partner) Apply(fields Fields) []string {
	var changed []string
	set := func(dst *string, v, name string) {
		if v != *dst {
			*dst = v
			changed = append(changed, name)
		}
	}

	set(&p.Name, strings.TrimSpace(fields.Name), FieldName)
	set(&p.TaxID, strings.TrimSpace(fields.TaxID), FieldTaxID)
	set(&p.Email, strings.ToLower(strings.TrimSpace(fields.Email)), FieldEmail)
	set(&p.Phone, strings.TrimSpace(fields.Phone), FieldPhone)
	set(&p.Address, strings.TrimSpace(fields.Address), FieldAddress)
	if fields.Active != nil && *fields.Active != p.Active {
		p.Active = *fields.Active
		changed = append(changed, FieldActive)
	}

	if len(changed) > 0 {
		p.IncrementVersion()
	}
	return changed
}

// Clone returns a copy of the partner
func (p *Partner) Clone() *Partner {
	c := *p
	return &c
}
