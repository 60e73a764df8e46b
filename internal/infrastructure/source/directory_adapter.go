package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DirectoryAdapter reads tenant exports from a local directory tree
type DirectoryAdapter struct {
	root   string
	opts   []ParserOption
	logger *zap.Logger
}

// NewDirectoryAdapter creates an adapter rooted at root
func NewDirectoryAdapter(root string, logger *zap.Logger, opts ...ParserOption) *DirectoryAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryAdapter{root: root, opts: opts, logger: logger}
}

// Path returns the file a tenant's table is read from
func (a *DirectoryAdapter) Path(tenantID uuid.UUID, table syncrun.LogicalTable) string {
	return filepath.Join(a.root, tenantID.String(), table.String()+".csv")
}

// LoadRows implements syncrun.SourceAdapter
func (a *DirectoryAdapter) LoadRows(ctx context.Context, tenantID uuid.UUID, table syncrun.LogicalTable) ([]syncrun.Row, error) {
	if a.root == "" {
		return nil, syncrun.ErrSourceNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := a.Path(tenantID, table)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		a.logger.Debug("Source table absent",
			zap.String("tenant_id", tenantID.String()),
			zap.String("table", table.String()),
			zap.String("path", path),
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ParseRows(f, a.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return rows, nil
}

// Ensure DirectoryAdapter implements syncrun.SourceAdapter
var _ syncrun.SourceAdapter = (*DirectoryAdapter)(nil)
