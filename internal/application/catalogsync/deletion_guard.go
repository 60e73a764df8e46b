package catalogsync

import (
	"context"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/partner"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"go.uber.org/zap"
)

// SweepResult is the outcome of a deletion pass
type SweepResult struct {
	Deleted   int
	Protected int
	Issues    []syncrun.Issue
}

func (s *SweepResult) protect(code, format string, args ...any) {
	s.Protected++
	s.Issues = append(s.Issues, syncrun.Issue{
		Code:    code,
		Kind:    syncrun.IssueReferentialProtection,
		Message: fmt.Sprintf(format, args...),
	})
}

// DeletionGuard removes records that vanished from the source unless trade
// history still references them
type DeletionGuard struct {
	logger *zap.Logger
}

// NewDeletionGuard creates a new DeletionGuard
func NewDeletionGuard(logger *zap.Logger) *DeletionGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeletionGuard{logger: logger}
}

// SweepItems deletes the items whose code is not in surviving. An item with
// sale or purchase lines is kept and counted as protected. Deleting an item
// also removes its barcode from the registry.
func (g *DeletionGuard) SweepItems(ctx context.Context, tx syncrun.Store, items []*catalog.Item, surviving map[string]struct{}) (SweepResult, error) {
	var res SweepResult
	for _, item := range items {
		if _, ok := surviving[item.Code]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		referenced, err := tx.ItemHistory().HasItemHistory(ctx, item.ID)
		if err != nil {
			return res, fmt.Errorf("failed to check history of item %q: %w", item.Code, err)
		}
		if referenced {
			res.protect(item.Code, "item '%s' is missing from the source but has order history", item.Code)
			continue
		}

		if err := tx.SecondaryCodes().ReleaseItem(ctx, item.ID); err != nil {
			return res, fmt.Errorf("failed to release barcode of item %q: %w", item.Code, err)
		}
		if err := tx.Items().DeleteForTenant(ctx, item.TenantID, item.ID); err != nil {
			return res, fmt.Errorf("failed to delete item %q: %w", item.Code, err)
		}
		res.Deleted++
		g.logger.Debug("Item deleted",
			zap.String("tenant_id", item.TenantID.String()),
			zap.String("code", item.Code),
		)
	}
	return res, nil
}

// SweepPartners deletes the partners whose code is not in surviving, keeping
// those referenced by orders
func (g *DeletionGuard) SweepPartners(ctx context.Context, tx syncrun.Store, partners []*partner.Partner, surviving map[string]struct{}) (SweepResult, error) {
	var res SweepResult
	for _, p := range partners {
		if _, ok := surviving[p.Code]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		referenced, err := tx.PartnerHistory().HasPartnerHistory(ctx, p.Kind, p.ID)
		if err != nil {
			return res, fmt.Errorf("failed to check history of %s %q: %w", p.Kind, p.Code, err)
		}
		if referenced {
			res.protect(p.Code, "%s '%s' is missing from the source but has order history", p.Kind, p.Code)
			continue
		}

		if err := tx.Partners().DeleteForTenant(ctx, p.TenantID, p.ID); err != nil {
			return res, fmt.Errorf("failed to delete %s %q: %w", p.Kind, p.Code, err)
		}
		res.Deleted++
		g.logger.Debug("Partner deleted",
			zap.String("tenant_id", p.TenantID.String()),
			zap.String("kind", string(p.Kind)),
			zap.String("code", p.Code),
		)
	}
	return res, nil
}
