package catalog

import (
	"fmt"
	"strings"

	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tracked item fields, as reported in change sets and logs
const (
	FieldDescription = "description"
	FieldCostPrice   = "cost_price"
	FieldSalePrice   = "sale_price"
	FieldStock       = "stock"
	FieldActive      = "active"
	FieldLocation    = "location"
	FieldUnit        = "unit"
	FieldCategory    = "category"
	FieldBrand       = "brand"
)

// Amount columns are DECIMAL(18,4)
const (
	AmountPrecision = 18
	AmountScale     = 4
)

// maxAmount is the first magnitude an amount column cannot hold
var maxAmount = decimal.New(1, AmountPrecision-AmountScale)

// FitAmount rounds d half away from zero to the stored scale and rejects values
// outside the column range. Stored and incoming amounts are compared after fitting.
func FitAmount(d decimal.Decimal) (decimal.Decimal, error) {
	d = d.Round(AmountScale)
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrAmountOutOfRange
	}
	return d, nil
}

// Item is a tenant's catalog article. Identity is (TenantID, Code).
type Item struct {
	shared.TenantEntity
	Code        string
	Description string
	CostPrice   decimal.Decimal
	SalePrice   decimal.Decimal
	Stock       decimal.Decimal
	Active      bool
	Location    string
	Unit        string
	CategoryID  *uuid.UUID
	BrandID     *uuid.UUID
}

// ItemFields is the desired state of an item as read from the source.
// Active is nil when the source leaves the flag blank.
type ItemFields struct {
	Description string
	CostPrice   decimal.Decimal
	SalePrice   decimal.Decimal
	Stock       decimal.Decimal
	Active      *bool
	Location    string
	Unit        string
	CategoryID  *uuid.UUID
	BrandID     *uuid.UUID
}

// Fit returns a copy with every amount fitted to the store
func (f ItemFields) Fit() (ItemFields, error) {
	amounts := []struct {
		name string
		v    *decimal.Decimal
	}{
		{FieldCostPrice, &f.CostPrice},
		{FieldSalePrice, &f.SalePrice},
		{FieldStock, &f.Stock},
	}
	for _, a := range amounts {
		fitted, err := FitAmount(*a.v)
		if err != nil {
			return f, fmt.Errorf("%s %s: %w", a.name, a.v.String(), err)
		}
		*a.v = fitted
	}
	return f, nil
}

// NewItem creates a new catalog item. Active defaults to true unless fields say otherwise.
func NewItem(tenantID uuid.UUID, code string, fields ItemFields) (*Item, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrBlankCode
	}
	fields, err := fields.Fit()
	if err != nil {
		return nil, err
	}

	item := &Item{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Code:         code,
		Description:  strings.TrimSpace(fields.Description),
		CostPrice:    fields.CostPrice,
		SalePrice:    fields.SalePrice,
		Stock:        fields.Stock,
		Active:       true,
		Location:     strings.TrimSpace(fields.Location),
		Unit:         strings.TrimSpace(fields.Unit),
		CategoryID:   copyID(fields.CategoryID),
		BrandID:      copyID(fields.BrandID),
	}
	if fields.Active != nil {
		item.Active = *fields.Active
	}
	return item, nil
}

// Apply writes the fields that differ from the current state and returns their names.
// Amounts are fitted before comparison; an amount out of range leaves the item untouched.
// The version is bumped only when something changed.
func (i *Item) Apply(fields ItemFields) ([]string, error) {
	fields, err := fields.Fit()
	if err != nil {
		return nil, err
	}

	var changed []string

	if desc := strings.TrimSpace(fields.Description); desc != i.Description {
		i.Description = desc
		changed = append(changed, FieldDescription)
	}
	if !fields.CostPrice.Equal(i.CostPrice) {
		i.CostPrice = fields.CostPrice
		changed = append(changed, FieldCostPrice)
	}
	if !fields.SalePrice.Equal(i.SalePrice) {
		i.SalePrice = fields.SalePrice
		changed = append(changed, FieldSalePrice)
	}
	if !fields.Stock.Equal(i.Stock) {
		i.Stock = fields.Stock
		changed = append(changed, FieldStock)
	}
	if fields.Active != nil && *fields.Active != i.Active {
		i.Active = *fields.Active
		changed = append(changed, FieldActive)
	}
	if loc := strings.TrimSpace(fields.Location); loc != i.Location {
		i.Location = loc
		changed = append(changed, FieldLocation)
	}
	if unit := strings.TrimSpace(fields.Unit); unit != i.Unit {
		i.Unit = unit
		changed = append(changed, FieldUnit)
	}
	if !sameID(fields.CategoryID, i.CategoryID) {
		i.CategoryID = copyID(fields.CategoryID)
		changed = append(changed, FieldCategory)
	}
	if !sameID(fields.BrandID, i.BrandID) {
		i.BrandID = copyID(fields.BrandID)
		changed = append(changed, FieldBrand)
	}

	if len(changed) > 0 {
		i.IncrementVersion()
	}
	return changed, nil
}

// Clone returns a deep copy of the item
func (i *Item) Clone() *Item {
	c := *i
	c.CategoryID = copyID(i.CategoryID)
	c.BrandID = copyID(i.BrandID)
	return &c
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
