package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/partner"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/google/uuid"
)

// rowResult is what applying one row did. Issues are recorded only once the
// row's savepoint commits.
type rowResult struct {
	created  bool
	updated  bool
	skipped  bool
	conflict bool
	flagged  bool
	issues   []syncrun.Issue
}

func (r *rowResult) issue(line int, code, kind, format string, args ...any) {
	r.issues = append(r.issues, syncrun.Issue{
		Line:    line,
		Code:    code,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
}

// tableEngine reconciles one logical table. Every method runs on the
// orchestrator's goroutine; commit and rollback close the row in flight.
type tableEngine interface {
	key(row syncrun.Row) string
	load(ctx context.Context, store syncrun.Store) error
	apply(ctx context.Context, tx syncrun.Store, row syncrun.Row) (rowResult, error)
	commit()
	rollback()
	sweep(ctx context.Context, tx syncrun.Store, guard *DeletionGuard, surviving map[string]struct{}) (SweepResult, error)
}

func newTableEngine(tenantID uuid.UUID, table syncrun.LogicalTable) (tableEngine, error) {
	switch table {
	case syncrun.TableArticles:
		return &articleEngine{tenantID: tenantID}, nil
	case syncrun.TableClients:
		return newPartnerEngine(tenantID, partner.KindClient), nil
	case syncrun.TableProviders:
		return newPartnerEngine(tenantID, partner.KindProvider), nil
	default:
		return nil, ErrUnknownTable
	}
}

// articleEngine runs the upsert engine and the barcode resolver over articles rows
type articleEngine struct {
	tenantID uuid.UUID
	upserts  *UpsertEngine
	barcodes *BarcodeResolver
}

func (e *articleEngine) key(row syncrun.Row) string {
	return parseArticleRow(row).code
}

func (e *articleEngine) load(ctx context.Context, store syncrun.Store) error {
	items, err := store.Items().FindAllForTenant(ctx, e.tenantID)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	registry, err := store.SecondaryCodes().FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load barcode registry: %w", err)
	}
	e.upserts = NewUpsertEngine(e.tenantID, items, NewDimensionResolver(e.tenantID))
	e.barcodes = NewBarcodeResolver(e.tenantID, registry)
	return nil
}

func (e *articleEngine) apply(ctx context.Context, tx syncrun.Store, row syncrun.Row) (rowResult, error) {
	r := parseArticleRow(row)
	fields := catalog.ItemFields{
		Description: r.description,
		CostPrice:   ParseTolerantDecimal(r.costPrice),
		SalePrice:   ParseTolerantDecimal(r.salePrice),
		Stock:       ParseTolerantDecimal(r.stock),
		Active:      r.active,
		Location:    r.location,
		Unit:        r.unit,
	}

	var res rowResult
	change, err := e.upserts.Upsert(ctx, tx, r.code, fields, r.category, r.brand)
	if errors.Is(err, catalog.ErrAmountOutOfRange) {
		res.skipped = true
		res.issue(r.line, r.code, syncrun.IssueRowSkipped, "%v", err)
		return res, nil
	}
	if err != nil {
		return res, err
	}
	res.created = change.Created
	res.updated = len(change.Changed) > 0

	barcode, multi := SplitBarcode(r.barcode)
	if multi {
		res.flagged = true
		res.issue(r.line, r.code, syncrun.IssueMultiValueBarcode,
			"barcode cell '%s' holds several values, using '%s'", r.barcode, barcode)
	}

	outcome, err := e.barcodes.Reconcile(ctx, tx, change.Item, barcode)
	if err != nil {
		return res, err
	}
	switch {
	case outcome == BarcodeConflict:
		res.conflict = true
		res.issue(r.line, r.code, syncrun.IssueBarcodeConflict,
			"barcode '%s' belongs to another tenant", barcode)
	case outcome.Changed() && !res.created:
		res.updated = true
	}
	return res, nil
}

func (e *articleEngine) commit() {
	e.upserts.Commit()
	e.barcodes.Commit()
}

func (e *articleEngine) rollback() {
	e.upserts.Rollback()
	e.barcodes.Rollback()
}

func (e *articleEngine) sweep(ctx context.Context, tx syncrun.Store, guard *DeletionGuard, surviving map[string]struct{}) (SweepResult, error) {
	return guard.SweepItems(ctx, tx, e.upserts.Snapshot(), surviving)
}

// partnerEngine upserts clients or providers
type partnerEngine struct {
	tenantID uuid.UUID
	kind     partner.Kind
	partners map[string]*partner.Partner
	staged   map[string]*partner.Partner
}

func newPartnerEngine(tenantID uuid.UUID, kind partner.Kind) *partnerEngine {
	return &partnerEngine{
		tenantID: tenantID,
		kind:     kind,
		partners: make(map[string]*partner.Partner),
		staged:   make(map[string]*partner.Partner),
	}
}

func (e *partnerEngine) key(row syncrun.Row) string {
	return parsePartnerRow(row).code
}

func (e *partnerEngine) load(ctx context.Context, store syncrun.Store) error {
	existing, err := store.Partners().FindAllForTenant(ctx, e.tenantID, e.kind)
	if err != nil {
		return fmt.Errorf("failed to load %ss: %w", e.kind, err)
	}
	for i := range existing {
		e.partners[existing[i].Code] = &existing[i]
	}
	return nil
}

func (e *partnerEngine) apply(ctx context.Context, tx syncrun.Store, row syncrun.Row) (rowResult, error) {
	r := parsePartnerRow(row)
	fields := partner.Fields{
		Name:    r.name,
		TaxID:   r.taxID,
		Email:   r.email,
		Phone:   r.phone,
		Address: r.address,
		Active:  r.active,
	}

	var res rowResult
	current, ok := e.partners[r.code]
	if !ok {
		p, err := partner.NewPartner(e.tenantID, e.kind, r.code, fields)
		if err != nil {
			return res, err
		}
		if err := tx.Partners().Create(ctx, p); err != nil {
			return res, fmt.Errorf("failed to create %s: %w", e.kind, err)
		}
		e.staged[p.Code] = p
		res.created = true
		return res, nil
	}

	next := current.Clone()
	if changed := next.Apply(fields); len(changed) > 0 {
		if err := tx.Partners().Update(ctx, next); err != nil {
			return res, fmt.Errorf("failed to update %s: %w", e.kind, err)
		}
		res.updated = true
	}
	e.staged[next.Code] = next
	return res, nil
}

func (e *partnerEngine) commit() {
	for code, p := range e.staged {
		e.partners[code] = p
	}
	clear(e.staged)
}

func (e *partnerEngine) rollback() {
	clear(e.staged)
}

func (e *partnerEngine) sweep(ctx context.Context, tx syncrun.Store, guard *DeletionGuard, surviving map[string]struct{}) (SweepResult, error) {
	list := make([]*partner.Partner, 0, len(e.partners))
	for _, p := range e.partners {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return guard.SweepPartners(ctx, tx, list, surviving)
}
