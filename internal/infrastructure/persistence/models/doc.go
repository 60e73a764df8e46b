// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities; ToDomain/FromDomain convert between the two.
//
//   - base.go: shared columns (BaseModel, TenantModel)
//   - catalog.go: catalog items, dimensions and the global barcode registry
//   - partner.go: clients and providers
//   - trade.go: the read-only order tables the deletion guard inspects
//   - sync_run.go: sync run audit records
package models
