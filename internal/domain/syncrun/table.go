package syncrun

import (
	"strings"

	"github.com/erp/catalogsync/internal/domain/shared"
)

// LogicalTable names a tab of the tenant's source spreadsheet
type LogicalTable string

const (
	TableArticles  LogicalTable = "articles"
	TableClients   LogicalTable = "clients"
	TableProviders LogicalTable = "providers"
)

// ErrUnknownTable is returned for tables no engine handles
var ErrUnknownTable = shared.NewDomainError("UNKNOWN_TABLE", "Unknown logical table")

// Tables lists every logical table in sync order
func Tables() []LogicalTable {
	return []LogicalTable{TableArticles, TableClients, TableProviders}
}

// ParseTable resolves a table name, case-insensitively
func ParseTable(name string) (LogicalTable, error) {
	t := LogicalTable(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Tables() {
		if t == known {
			return t, nil
		}
	}
	return "", ErrUnknownTable
}

// String returns the table name
func (t LogicalTable) String() string {
	return string(t)
}
