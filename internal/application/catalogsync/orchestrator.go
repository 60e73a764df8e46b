package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSourceTimeout bounds a source read when no timeout is configured
const DefaultSourceTimeout = 30 * time.Second

// Orchestrator runs one reconciliation pass of a tenant's logical table:
// read, dedupe, upsert in TX1, then the guarded deletion in TX2.
// It does not serialize runs; callers hold the tenant's lock.
type Orchestrator struct {
	source        syncrun.SourceAdapter
	store         syncrun.Store
	guard         *DeletionGuard
	logger        *zap.Logger
	sourceTimeout time.Duration
	maxIssues     int
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithSourceTimeout bounds the source read
func WithSourceTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.sourceTimeout = d
		}
	}
}

// WithMaxIssues caps the issues kept in a report
func WithMaxIssues(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.maxIssues = n
	}
}

// WithOrchestratorLogger sets the logger
func WithOrchestratorLogger(logger *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(source syncrun.SourceAdapter, store syncrun.Store, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		source:        source,
		store:         store,
		logger:        zap.NewNop(),
		sourceTimeout: DefaultSourceTimeout,
		maxIssues:     syncrun.DefaultMaxIssues,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.guard = NewDeletionGuard(o.logger)
	return o
}

// Run reconciles one logical table and returns its report. It never returns
// an error: fatal failures produce an aborted report.
func (o *Orchestrator) Run(ctx context.Context, tenantID uuid.UUID, table syncrun.LogicalTable) syncrun.Report {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog_sync", "run",
		telemetry.WithAttribute("tenant_id", tenantID.String()),
		telemetry.WithAttribute("table", table.String()),
	)
	defer span.End()

	b := syncrun.NewBuilder(tenantID, table, o.maxIssues)
	report := o.run(ctx, tenantID, table, b)

	telemetry.SetAttributes(span,
		"run_id", report.RunID.String(),
		"status", string(report.Status),
		"read", report.Read,
		"created", report.Created,
		"updated", report.Updated,
		"deleted", report.Deleted,
		"errors", report.Errors,
	)
	if report.Aborted() {
		telemetry.RecordError(span, errors.New(report.Error))
	} else {
		telemetry.SetOK(span)
	}
	return report
}

func (o *Orchestrator) run(ctx context.Context, tenantID uuid.UUID, table syncrun.LogicalTable, b *syncrun.Builder) syncrun.Report {
	log := o.logger.With(
		zap.String("tenant_id", tenantID.String()),
		zap.String("table", table.String()),
		zap.String("run_id", b.RunID().String()),
	)

	engine, err := newTableEngine(tenantID, table)
	if err != nil {
		return b.Finish(CodeUnknownTable, err)
	}

	rows, err := o.readSource(ctx, tenantID, table)
	if err != nil {
		log.Error("Source read failed", zap.Error(err))
		return b.Finish(CodeSourceUnavailable, fmt.Errorf("source unavailable: %w", err))
	}
	b.Read = len(rows)

	unique := o.dedupe(engine, rows, b)
	if len(unique) == 0 {
		// an empty read is indistinguishable from a wiped sheet; never sweep on it
		log.Info("Source returned no rows, nothing to sync", zap.Int("read", b.Read))
		return b.Finish("", nil)
	}

	if err := engine.load(ctx, o.store); err != nil {
		log.Error("Snapshot load failed", zap.Error(err))
		return b.Finish(CodeStoreUnavailable, err)
	}

	// TX1: creates and updates
	beforeUpserts := b.Checkpoint()
	err = o.store.Transaction(ctx, func(tx syncrun.Store) error {
		for _, row := range unique {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := o.processRow(ctx, tx, engine, row, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Upsert transaction failed, nothing committed", zap.Error(err))
		b.Restore(beforeUpserts)
		return b.Finish(CodeStoreCommitFailure, fmt.Errorf("upsert phase failed: %w", err))
	}

	surviving := make(map[string]struct{}, len(unique))
	for _, row := range unique {
		surviving[engine.key(row)] = struct{}{}
	}

	// TX2: guarded deletion
	var swept SweepResult
	err = o.store.Transaction(ctx, func(tx syncrun.Store) error {
		var err error
		swept, err = engine.sweep(ctx, tx, o.guard, surviving)
		return err
	})
	if err != nil {
		log.Error("Deletion transaction failed, upserts kept", zap.Error(err))
		return b.Finish(CodeStoreCommitFailure, fmt.Errorf("deletion phase failed: %w", err))
	}
	b.Deleted = swept.Deleted
	b.Protected = swept.Protected
	for _, issue := range swept.Issues {
		b.Issue(issue.Line, issue.Code, issue.Kind, "%s", issue.Message)
	}

	return b.Finish("", nil)
}

// readSource bounds the read even when the adapter ignores its context: the
// run stops waiting at the timeout and a late result is dropped.
func (o *Orchestrator) readSource(ctx context.Context, tenantID uuid.UUID, table syncrun.LogicalTable) ([]syncrun.Row, error) {
	readCtx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()

	type result struct {
		rows []syncrun.Row
		err  error
	}
	done := make(chan result, 1)
	go func() {
		rows, err := o.source.LoadRows(readCtx, tenantID, table)
		done <- result{rows: rows, err: err}
	}()

	select {
	case <-readCtx.Done():
		return nil, fmt.Errorf("read not finished: %w", readCtx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		// a late success is still a timeout: the read may be partial
		if err := readCtx.Err(); err != nil {
			return nil, err
		}
		return res.rows, nil
	}
}

// dedupe keeps the last occurrence of every business code, in order of that
// occurrence. Rows without a code are counted as skipped.
func (o *Orchestrator) dedupe(engine tableEngine, rows []syncrun.Row, b *syncrun.Builder) []syncrun.Row {
	type keyed struct {
		code string
		row  syncrun.Row
	}
	last := make(map[string]int, len(rows))
	candidates := make([]keyed, 0, len(rows))
	for _, row := range rows {
		code := engine.key(row)
		if code == "" {
			b.Skipped++
			b.Issue(row.Line, "", syncrun.IssueRowSkipped, "row has no business code")
			continue
		}
		if prev, seen := last[code]; seen {
			b.Duplicates++
			b.Issue(candidates[prev].row.Line, code, syncrun.IssueDuplicateRow,
				"code '%s' appears again on line %d, the later row wins", code, row.Line)
		}
		last[code] = len(candidates)
		candidates = append(candidates, keyed{code: code, row: row})
	}

	unique := make([]syncrun.Row, 0, len(last))
	for i, c := range candidates {
		if last[c.code] == i {
			unique = append(unique, c.row)
		}
	}
	return unique
}

// processRow applies one row inside its own savepoint. A store error rolls
// back that row only; the returned error aborts TX1 and is reserved for
// cancellation.
func (o *Orchestrator) processRow(ctx context.Context, tx syncrun.Store, engine tableEngine, row syncrun.Row, b *syncrun.Builder) error {
	code := engine.key(row)

	var res rowResult
	err := tx.Transaction(ctx, func(sp syncrun.Store) error {
		var err error
		res, err = engine.apply(ctx, sp, row)
		return err
	})
	if err != nil {
		engine.rollback()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		b.Errors++
		b.Issue(row.Line, code, syncrun.IssueRowError, "%v", err)
		o.logger.Warn("Row failed, rolled back",
			zap.Int("line", row.Line),
			zap.String("code", code),
			zap.Error(err),
		)
		return nil
	}
	engine.commit()

	switch {
	case res.skipped:
		b.Skipped++
	case res.created:
		b.Created++
	case res.updated:
		b.Updated++
	default:
		b.Unchanged++
	}
	if res.conflict {
		b.Errors++
	}
	if res.flagged {
		b.Flagged++
	}
	for _, issue := range res.issues {
		b.Issue(issue.Line, issue.Code, issue.Kind, "%s", issue.Message)
	}
	return nil
}
