package catalogsync_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/catalogsync/internal/application/catalogsync"
	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/persistence"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"github.com/erp/catalogsync/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memorySource serves rows per tenant and table. A set error is returned instead.
type memorySource struct {
	mu    sync.Mutex
	rows  map[string][]syncrun.Row
	err   error
	calls int
}

func newMemorySource() *memorySource {
	return &memorySource{rows: make(map[string][]syncrun.Row)}
}

func sourceKey(tenantID uuid.UUID, table syncrun.LogicalTable) string {
	return tenantID.String() + "/" + table.String()
}

func (s *memorySource) Set(tenantID uuid.UUID, table syncrun.LogicalTable, rows ...syncrun.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[sourceKey(tenantID, table)] = rows
}

func (s *memorySource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *memorySource) LoadRows(_ context.Context, tenantID uuid.UUID, table syncrun.LogicalTable) ([]syncrun.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	rows := s.rows[sourceKey(tenantID, table)]
	out := make([]syncrun.Row, len(rows))
	copy(out, rows)
	return out, nil
}

type fixture struct {
	db     *gorm.DB
	store  *persistence.GormStore
	source *memorySource
	orch   *catalogsync.Orchestrator
}

func newFixture(t *testing.T, opts ...catalogsync.OrchestratorOption) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	store := persistence.NewGormStore(db)
	source := newMemorySource()
	return &fixture{
		db:     db,
		store:  store,
		source: source,
		orch:   catalogsync.NewOrchestrator(source, store, opts...),
	}
}

func (f *fixture) run(t *testing.T, tenantID uuid.UUID, table syncrun.LogicalTable) syncrun.Report {
	t.Helper()
	return f.orch.Run(context.Background(), tenantID, table)
}

func (f *fixture) items(t *testing.T, tenantID uuid.UUID) map[string]catalog.Item {
	t.Helper()
	list, err := f.store.Items().FindAllForTenant(context.Background(), tenantID)
	require.NoError(t, err)
	out := make(map[string]catalog.Item, len(list))
	for _, item := range list {
		out[item.Code] = item
	}
	return out
}

// barcodeOwner returns the item owning code, uuid.Nil for an orphan and false when absent
func (f *fixture) barcodeOwner(t *testing.T, code string) (uuid.UUID, bool) {
	t.Helper()
	var m models.SecondaryCodeModel
	err := f.db.Where("code = ?", code).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false
	}
	require.NoError(t, err)
	if m.ItemID == nil {
		return uuid.Nil, true
	}
	return *m.ItemID, true
}

func (f *fixture) dimensionExists(t *testing.T, tenantID uuid.UUID, name string) bool {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.DimensionModel{}).
		Where("tenant_id = ? AND name = ?", tenantID, name).Count(&count).Error)
	return count > 0
}

// addSaleLine records a sales order line referencing the item
func (f *fixture) addSaleLine(t *testing.T, tenantID, itemID uuid.UUID) {
	t.Helper()
	order := models.SalesOrderModel{ID: uuid.New(), TenantID: tenantID, CustomerID: uuid.New(), CreatedAt: time.Now()}
	require.NoError(t, f.db.Create(&order).Error)
	line := models.SalesOrderItemModel{ID: uuid.New(), OrderID: order.ID, ProductID: itemID, Quantity: decimal.NewFromInt(1)}
	require.NoError(t, f.db.Create(&line).Error)
}

// seedForeignBarcode registers code as owned by an item of another tenant
func (f *fixture) seedForeignBarcode(t *testing.T, tenantID uuid.UUID, itemCode, code string) *catalog.Item {
	t.Helper()
	ctx := context.Background()
	item, err := catalog.NewItem(tenantID, itemCode, catalog.ItemFields{Description: "foreign"})
	require.NoError(t, err)
	require.NoError(t, f.store.Items().Create(ctx, item))
	sc, err := catalog.NewSecondaryCode(code, item.ID, tenantID)
	require.NoError(t, err)
	require.NoError(t, f.store.SecondaryCodes().Insert(ctx, sc))
	return item
}

// seedOrphanBarcode registers code with no owning item
func (f *fixture) seedOrphanBarcode(t *testing.T, code string) {
	t.Helper()
	orphan := &catalog.SecondaryCode{BaseEntity: shared.NewBaseEntity(), Code: code}
	require.NoError(t, f.db.Create(models.SecondaryCodeModelFromDomain(orphan)).Error)
}

// article builds an articles row with Spanish headers, the way tenant sheets arrive
func article(line int, code, description, price, barcode string) syncrun.Row {
	return syncrun.Row{
		Line: line,
		Fields: map[string]string{
			"Código":           code,
			"Descripción":      description,
			"Precio":           price,
			"Código de barras": barcode,
		},
	}
}

func withField(row syncrun.Row, header, value string) syncrun.Row {
	row.Fields[header] = value
	return row
}

func issueKinds(r syncrun.Report) []string {
	kinds := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		kinds = append(kinds, issue.Kind)
	}
	return kinds
}

// failingStore wraps a store and fails item writes for one code. Transactions
// hand the wrapper down so savepoints see it too.
type failingStore struct {
	syncrun.Store
	failCode    string
	failHistory bool
}

func (s *failingStore) Items() catalog.ItemRepository {
	return &failingItems{ItemRepository: s.Store.Items(), failCode: s.failCode}
}

func (s *failingStore) ItemHistory() catalog.HistoryChecker {
	if s.failHistory {
		return failingHistory{}
	}
	return s.Store.ItemHistory()
}

func (s *failingStore) Transaction(ctx context.Context, fn func(tx syncrun.Store) error) error {
	return s.Store.Transaction(ctx, func(tx syncrun.Store) error {
		return fn(&failingStore{Store: tx, failCode: s.failCode, failHistory: s.failHistory})
	})
}

var errInjected = errors.New("injected store failure")

type failingItems struct {
	catalog.ItemRepository
	failCode string
}

func (r *failingItems) Create(ctx context.Context, item *catalog.Item) error {
	if item.Code == r.failCode {
		return errInjected
	}
	return r.ItemRepository.Create(ctx, item)
}

func (r *failingItems) Update(ctx context.Context, item *catalog.Item) error {
	if item.Code == r.failCode {
		return errInjected
	}
	return r.ItemRepository.Update(ctx, item)
}

// cancellingStore cancels the run when the item with code is written
type cancellingStore struct {
	syncrun.Store
	code   string
	cancel context.CancelFunc
}

func (s *cancellingStore) Items() catalog.ItemRepository {
	return &cancellingItems{ItemRepository: s.Store.Items(), code: s.code, cancel: s.cancel}
}

func (s *cancellingStore) Transaction(ctx context.Context, fn func(tx syncrun.Store) error) error {
	return s.Store.Transaction(ctx, func(tx syncrun.Store) error {
		return fn(&cancellingStore{Store: tx, code: s.code, cancel: s.cancel})
	})
}

type cancellingItems struct {
	catalog.ItemRepository
	code   string
	cancel context.CancelFunc
}

func (r *cancellingItems) Create(ctx context.Context, item *catalog.Item) error {
	if item.Code == r.code {
		r.cancel()
		return context.Canceled
	}
	return r.ItemRepository.Create(ctx, item)
}

type failingHistory struct{}

func (failingHistory) HasItemHistory(context.Context, uuid.UUID) (bool, error) {
	return false, errInjected
}
