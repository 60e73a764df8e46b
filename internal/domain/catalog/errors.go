package catalog

import "github.com/erp/catalogsync/internal/domain/shared"

// Catalog domain errors
var (
	ErrBlankCode     = shared.NewDomainError("ROW_SKIPPED", "Business code cannot be empty")
	ErrBarcodeTaken  = shared.NewDomainError("BARCODE_CONFLICT", "Barcode is owned by another tenant")
	ErrItemHasOrders = shared.NewDomainError("REFERENTIAL_PROTECTION", "Item is referenced by sale or purchase history")

	ErrAmountOutOfRange = shared.NewDomainError("ROW_SKIPPED", "Amount exceeds 14 integer digits")
)
