package purchaseorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mgaraycochea/tradeflow-backend/internal/history"
	"github.com/mgaraycochea/tradeflow-backend/internal/salesorders"
	"github.com/mgaraycochea/tradeflow-backend/internal/stock"
	"github.com/mgaraycochea/tradeflow-backend/pkg/db/models"
	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/mgaraycochea/tradeflow-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// failingSalesRepo injects a fault into sales order creation to prove the
// finalization transaction rolls back as a unit.
type failingSalesRepo struct {
	salesorders.Repository
}

func (f *failingSalesRepo) WithTx(tx *gorm.DB) salesorders.Repository {
	return &failingSalesRepo{Repository: f.Repository.WithTx(tx)}
}

func (f *failingSalesRepo) Create(ctx context.Context, order *models.SalesOrder) (*models.SalesOrder, error) {
	return nil, errors.New("simulated write failure")
}

func setupWorkflowTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// a named in-memory DB keeps the pool's connections on the same database
	// while isolating tests from each other
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  po_number INTEGER NOT NULL,
  buyer_org_id TEXT NOT NULL,
  supplier_org_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  currency TEXT NOT NULL DEFAULT 'USD',
  subtotal NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL DEFAULT 0,
  shipping NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  notes TEXT,
  cancel_reason TEXT,
  submitted_at DATETIME,
  approved_at DATETIME,
  ordered_at DATETIME,
  received_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS purchase_order_lines (
  id TEXT PRIMARY KEY,
  purchase_order_id TEXT NOT NULL,
  line_no INTEGER NOT NULL,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  requested_qty INTEGER NOT NULL,
  approved_qty INTEGER NOT NULL DEFAULT 0,
  backorder_qty INTEGER NOT NULL DEFAULT 0,
  rejected_qty INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  override_applied INTEGER NOT NULL DEFAULT 0,
  override_reason TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS sales_orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL,
  purchase_order_id TEXT NOT NULL,
  buyer_org_id TEXT NOT NULL,
  supplier_org_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  currency TEXT NOT NULL DEFAULT 'USD',
  subtotal NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL DEFAULT 0,
  shipping NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS sales_order_lines (
  id TEXT PRIMARY KEY,
  sales_order_id TEXT NOT NULL,
  purchase_order_line_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  qty INTEGER NOT NULL,
  total NUMERIC NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS backorders (
  id TEXT PRIMARY KEY,
  purchase_order_id TEXT NOT NULL,
  purchase_order_line_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  qty INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS approval_history_entries (
  id TEXT PRIMARY KEY,
  purchase_order_id TEXT NOT NULL,
  purchase_order_line_id TEXT,
  action TEXT NOT NULL,
  actor_user_id TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  comment TEXT,
  metadata TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
  product_id TEXT PRIMARY KEY,
  available_qty INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
	}
	for _, ddl := range statements {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

type workflowFixture struct {
	db       *gorm.DB
	svc      Service
	buyer    Actor
	supplier Actor
	productA uuid.UUID
	productB uuid.UUID
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	return newWorkflowFixtureWithSales(t, nil)
}

func newWorkflowFixtureWithSales(t *testing.T, salesOverride salesorders.Repository) *workflowFixture {
	t.Helper()

	db := setupWorkflowTestDB(t)

	inventory := stock.NewRepository(db)
	validator, err := stock.NewValidator(inventory)
	require.NoError(t, err)

	ledger, err := history.NewService(history.NewRepository(db))
	require.NoError(t, err)

	sales := salesOverride
	if sales == nil {
		sales = salesorders.NewRepository(db)
	}

	svc, err := NewService(
		NewRepository(db),
		sales,
		gormTxRunner{db: db},
		ledger,
		validator,
		inventory,
		nil,
	)
	require.NoError(t, err)

	buyerOrg := uuid.New()
	supplierOrg := uuid.New()

	f := &workflowFixture{
		db:       db,
		svc:      svc,
		buyer:    Actor{UserID: uuid.New(), OrgID: buyerOrg, Role: "buyer_admin"},
		supplier: Actor{UserID: uuid.New(), OrgID: supplierOrg, Role: "supplier_ops"},
		productA: uuid.New(),
		productB: uuid.New(),
	}

	require.NoError(t, db.Create(&models.InventoryItem{ProductID: f.productA, AvailableQty: 100}).Error)
	require.NoError(t, db.Create(&models.InventoryItem{ProductID: f.productB, AvailableQty: 30}).Error)
	return f
}

func (f *workflowFixture) createSubmitted(t *testing.T) *models.PurchaseOrder {
	t.Helper()
	ctx := context.Background()

	order, err := f.svc.Create(ctx, CreateInput{
		BuyerOrgID:    f.buyer.OrgID,
		SupplierOrgID: f.supplier.OrgID,
		Currency:      enums.CurrencyUSD,
		Lines: []CreateLineInput{
			{ProductID: f.productA, SKU: "SKU-A", UnitPrice: decimal.NewFromInt(10), RequestedQty: 50},
			{ProductID: f.productB, SKU: "SKU-B", UnitPrice: decimal.NewFromInt(4), RequestedQty: 80},
		},
		Actor: f.buyer,
	})
	require.NoError(t, err)

	order, err = f.svc.Submit(ctx, SubmitInput{OrderID: order.ID, Actor: f.buyer})
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseOrderStatusSubmitted, order.Status)
	return order
}

func TestCreateComputesTotals(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, CreateInput{
		BuyerOrgID:    f.buyer.OrgID,
		SupplierOrgID: f.supplier.OrgID,
		Tax:           decimal.NewFromFloat(12.50),
		Shipping:      decimal.NewFromInt(20),
		Lines: []CreateLineInput{
			{ProductID: f.productA, SKU: "SKU-A", UnitPrice: decimal.NewFromFloat(9.99), RequestedQty: 10},
		},
		Actor: f.buyer,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.PurchaseOrderStatusDraft, order.Status)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromFloat(99.90)), "subtotal was %s", order.Subtotal)
	assert.True(t, order.Total.Equal(decimal.NewFromFloat(132.40)), "total was %s", order.Total)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 1, order.Lines[0].LineNo)
	assert.Equal(t, enums.PurchaseOrderLineStatusPending, order.Lines[0].Status)
}

func TestCreateRequiresBuyerActor(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		BuyerOrgID:    f.buyer.OrgID,
		SupplierOrgID: f.supplier.OrgID,
		Lines: []CreateLineInput{
			{ProductID: f.productA, SKU: "SKU-A", UnitPrice: decimal.NewFromInt(1), RequestedQty: 1},
		},
		Actor: f.supplier,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestValidateStockReportsSplitSuggestions(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)

	report, err := f.svc.ValidateStock(context.Background(), order.ID, f.supplier)
	require.NoError(t, err)
	require.Len(t, report.Lines, 2)
	assert.False(t, report.AllSufficient)

	assert.Equal(t, enums.StockStatusSufficient, report.Lines[0].Status)
	assert.Equal(t, 50, report.Lines[0].SuggestedApproveQty)

	assert.Equal(t, enums.StockStatusPartial, report.Lines[1].Status)
	assert.Equal(t, 30, report.Lines[1].SuggestedApproveQty)
	assert.Equal(t, 50, report.Lines[1].SuggestedBackorderQty)
}

func TestDecideLineRecordsAllocationAndHistory(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)
	ctx := context.Background()

	line, err := f.svc.DecideLine(ctx, LineDecisionInput{
		OrderID:      order.ID,
		LineID:       order.Lines[1].ID,
		ApproveQty:   30,
		BackorderQty: 50,
		Actor:        f.supplier,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderLineStatusPartiallyApproved, line.Status)
	assert.Equal(t, line.RequestedQty, line.ApprovedQty+line.BackorderQty+line.RejectedQty)

	entries, err := f.svc.History(ctx, order.ID, f.supplier)
	require.NoError(t, err)
	require.Len(t, entries, 2) // line_decided, then the earlier submitted
	assert.Equal(t, enums.ApprovalActionLineDecided, entries[0].Action)
	require.NotNil(t, entries[0].PurchaseOrderLineID)
	assert.Equal(t, line.ID, *entries[0].PurchaseOrderLineID)
}

func TestDecideLineDerivesRejectedRemainder(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)

	// the unallocated remainder is rejected without being spelled out
	line, err := f.svc.DecideLine(context.Background(), LineDecisionInput{
		OrderID:    order.ID,
		LineID:     order.Lines[1].ID, // 80 requested, 30 available
		ApproveQty: 30,
		Actor:      f.supplier,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderLineStatusPartiallyApproved, line.Status)
	assert.Equal(t, 30, line.ApprovedQty)
	assert.Equal(t, 50, line.RejectedQty)
}

func TestDecideLineAllowsRevision(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)
	ctx := context.Background()

	_, err := f.svc.DecideLine(ctx, LineDecisionInput{
		OrderID: order.ID,
		LineID:  order.Lines[0].ID,
		RejectQty: 50,
		Actor:   f.supplier,
	})
	require.NoError(t, err)

	line, err := f.svc.DecideLine(ctx, LineDecisionInput{
		OrderID:    order.ID,
		LineID:     order.Lines[0].ID,
		ApproveQty: 50,
		Actor:      f.supplier,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderLineStatusApproved, line.Status)
	assert.Equal(t, 0, line.RejectedQty)
}

func TestDecideLinePolicyWithoutOverride(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)

	_, err := f.svc.DecideLine(context.Background(), LineDecisionInput{
		OrderID:    order.ID,
		LineID:     order.Lines[1].ID, // only 30 available
		ApproveQty: 80,
		Actor:      f.supplier,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePolicy, pkgerrors.As(err).Code())
}

func TestDecideLineOverrideWithReason(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)

	line, err := f.svc.DecideLine(context.Background(), LineDecisionInput{
		OrderID:        order.ID,
		LineID:         order.Lines[1].ID,
		ApproveQty:     80,
		Override:       true,
		OverrideReason: strPtr("replenishment truck arriving tomorrow"),
		Actor:          f.supplier,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderLineStatusApproved, line.Status)
	assert.True(t, line.OverrideApplied)
}

func TestDecideLineGuards(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, CreateInput{
		BuyerOrgID:    f.buyer.OrgID,
		SupplierOrgID: f.supplier.OrgID,
		Lines: []CreateLineInput{
			{ProductID: f.productA, SKU: "SKU-A", UnitPrice: decimal.NewFromInt(1), RequestedQty: 5},
		},
		Actor: f.buyer,
	})
	require.NoError(t, err)

	_, err = f.svc.DecideLine(ctx, LineDecisionInput{
		OrderID:    draft.ID,
		LineID:     draft.Lines[0].ID,
		ApproveQty: 5,
		Actor:      f.supplier,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	submitted := f.createSubmitted(t)
	_, err = f.svc.DecideLine(ctx, LineDecisionInput{
		OrderID:    submitted.ID,
		LineID:     submitted.Lines[0].ID,
		ApproveQty: 50,
		Actor:      f.buyer,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestBulkDecideIsBestEffort(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)

	result, err := f.svc.BulkDecide(context.Background(), BulkDecisionInput{
		OrderID: order.ID,
		Decisions: []BulkLineDecision{
			{LineID: order.Lines[0].ID, ApproveQty: 50},
			{LineID: order.Lines[1].ID, ApproveQty: 80}, // exceeds the 30 available
		},
		Actor: f.supplier,
	})
	require.NoError(t, err)

	require.Len(t, result.Processed, 1)
	assert.Equal(t, order.Lines[0].ID, result.Processed[0])
	require.Len(t, result.Failed, 1)
	assert.Equal(t, order.Lines[1].ID, result.Failed[0].LineID)
	assert.Equal(t, pkgerrors.CodePolicy, result.Failed[0].Code)

	// the successful decision survived the failed one
	reloaded, err := f.svc.Get(context.Background(), order.ID, f.supplier)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderLineStatusApproved, reloaded.Lines[0].Status)
	assert.Equal(t, enums.PurchaseOrderLineStatusPending, reloaded.Lines[1].Status)
}

func TestBulkDecideWithoutDecisionsApprovesFullyStockedLines(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)
	ctx := context.Background()

	result, err := f.svc.BulkDecide(ctx, BulkDecisionInput{OrderID: order.ID, Actor: f.supplier})
	require.NoError(t, err)
	require.Len(t, result.Processed, 1)
	assert.Equal(t, order.Lines[0].ID, result.Processed[0])
	assert.Empty(t, result.Failed)

	reloaded, err := f.svc.Get(ctx, order.ID, f.supplier)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderLineStatusApproved, reloaded.Lines[0].Status)
	assert.Equal(t, 50, reloaded.Lines[0].ApprovedQty)
	assert.Zero(t, reloaded.Lines[0].BackorderQty)
	require.NotNil(t, reloaded.Lines[0].Notes)
	assert.Equal(t, "auto-approved", *reloaded.Lines[0].Notes)

	// the short line is untouched and waits for a manual split
	assert.Equal(t, enums.PurchaseOrderLineStatusPending, reloaded.Lines[1].Status)
	assert.Zero(t, reloaded.Lines[1].ApprovedQty)

	// a second run finds nothing stock can fully cover
	_, err = f.svc.BulkDecide(ctx, BulkDecisionInput{OrderID: order.ID, Actor: f.supplier})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestBulkDecideEmptyBodyRequiresSupplier(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)

	_, err := f.svc.BulkDecide(context.Background(), BulkDecisionInput{OrderID: order.ID, Actor: f.buyer})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestFinalizeRequiresAllLinesDecided(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)
	ctx := context.Background()

	_, err := f.svc.DecideLine(ctx, LineDecisionInput{
		OrderID:    order.ID,
		LineID:     order.Lines[0].ID,
		ApproveQty: 50,
		Actor:      f.supplier,
	})
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, FinalizeInput{OrderID: order.ID, Actor: f.supplier})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeIncompleteReview, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	pendingIDs, ok := details["pending_line_ids"].([]uuid.UUID)
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{order.Lines[1].ID}, pendingIDs)
}

func TestFinalizeSpawnsSalesOrderAndBackorders(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)
	ctx := context.Background()

	_, err := f.svc.BulkDecide(ctx, BulkDecisionInput{
		OrderID: order.ID,
		Decisions: []BulkLineDecision{
			{LineID: order.Lines[0].ID, ApproveQty: 50},
			{LineID: order.Lines[1].ID, ApproveQty: 30, BackorderQty: 50},
		},
		Actor: f.supplier,
	})
	require.NoError(t, err)

	result, err := f.svc.Finalize(ctx, FinalizeInput{OrderID: order.ID, Actor: f.supplier})
	require.NoError(t, err)

	assert.Equal(t, enums.PurchaseOrderStatusOrdered, result.Order.Status)
	require.NotNil(t, result.SalesOrder)
	assert.Equal(t, enums.SalesOrderStatusPending, result.SalesOrder.Status)
	require.Len(t, result.SalesOrder.Lines, 2)

	// 50*10 + 30*4 = 620
	assert.True(t, result.SalesOrder.Subtotal.Equal(decimal.NewFromInt(620)),
		"subtotal was %s", result.SalesOrder.Subtotal)

	assert.Equal(t, 1, result.BackordersCreated)
	var backorders []models.Backorder
	require.NoError(t, f.db.Where("purchase_order_id = ?", order.ID).Find(&backorders).Error)
	require.Len(t, backorders, 1)
	assert.Equal(t, 50, backorders[0].Qty)
	assert.Equal(t, enums.BackorderStatusOpen, backorders[0].Status)

	entries, err := f.svc.History(ctx, order.ID, f.supplier)
	require.NoError(t, err)
	actions := make([]enums.ApprovalAction, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	assert.Contains(t, actions, enums.ApprovalActionApproved)
	assert.Contains(t, actions, enums.ApprovalActionOrdered)
}

func TestFinalizeWithNothingApprovedStaysApproved(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)
	ctx := context.Background()

	_, err := f.svc.BulkDecide(ctx, BulkDecisionInput{
		OrderID: order.ID,
		Decisions: []BulkLineDecision{
			{LineID: order.Lines[0].ID, RejectQty: 50},
			{LineID: order.Lines[1].ID, BackorderQty: 80},
		},
		Actor: f.supplier,
	})
	require.NoError(t, err)

	result, err := f.svc.Finalize(ctx, FinalizeInput{OrderID: order.ID, Actor: f.supplier})
	require.NoError(t, err)

	assert.Equal(t, enums.PurchaseOrderStatusApproved, result.Order.Status)
	assert.Nil(t, result.SalesOrder)
	assert.Equal(t, 1, result.BackordersCreated)

	var count int64
	require.NoError(t, f.db.Model(&models.SalesOrder{}).Count(&count).Error)
	assert.Zero(t, count)

	// the approved entry still summarizes what the finalization produced
	entries, err := f.svc.History(ctx, order.ID, f.supplier)
	require.NoError(t, err)
	var approved *models.ApprovalHistoryEntry
	for i := range entries {
		if entries[i].Action == enums.ApprovalActionApproved {
			approved = &entries[i]
			break
		}
	}
	require.NotNil(t, approved)
	assert.JSONEq(t, `{"orders_created":0,"backorders_created":1}`, string(approved.Metadata))
}

func TestFinalizeRollsBackAsAUnit(t *testing.T) {
	f := newWorkflowFixtureWithSales(t, nil)

	// rebuild the service with a sales repo that fails on Create
	failing := &failingSalesRepo{Repository: salesorders.NewRepository(f.db)}
	inventory := stock.NewRepository(f.db)
	validator, err := stock.NewValidator(inventory)
	require.NoError(t, err)
	ledger, err := history.NewService(history.NewRepository(f.db))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(f.db), failing, gormTxRunner{db: f.db}, ledger, validator, inventory, nil)
	require.NoError(t, err)
	f.svc = svc

	order := f.createSubmitted(t)
	ctx := context.Background()

	_, err = f.svc.BulkDecide(ctx, BulkDecisionInput{
		OrderID: order.ID,
		Decisions: []BulkLineDecision{
			{LineID: order.Lines[0].ID, ApproveQty: 50},
			{LineID: order.Lines[1].ID, ApproveQty: 30, BackorderQty: 50},
		},
		Actor: f.supplier,
	})
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, FinalizeInput{OrderID: order.ID, Actor: f.supplier})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())

	// nothing from the failed transaction is visible
	reloaded, err := f.svc.Get(ctx, order.ID, f.supplier)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusSubmitted, reloaded.Status)

	var backorderCount int64
	require.NoError(t, f.db.Model(&models.Backorder{}).Count(&backorderCount).Error)
	assert.Zero(t, backorderCount)

	entries, err := f.svc.History(ctx, order.ID, f.supplier)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotEqual(t, enums.ApprovalActionApproved, entry.Action)
	}
}

func TestFinalizeDetectsConcurrentTransition(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)
	ctx := context.Background()

	_, err := f.svc.DecideLine(ctx, LineDecisionInput{
		OrderID: order.ID, LineID: order.Lines[0].ID, ApproveQty: 50, Actor: f.supplier,
	})
	require.NoError(t, err)
	_, err = f.svc.DecideLine(ctx, LineDecisionInput{
		OrderID: order.ID, LineID: order.Lines[1].ID, BackorderQty: 80, Actor: f.supplier,
	})
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, FinalizeInput{OrderID: order.ID, Actor: f.supplier})
	require.NoError(t, err)

	// second finalization finds the order past submitted
	_, err = f.svc.Finalize(ctx, FinalizeInput{OrderID: order.ID, Actor: f.supplier})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestRejectFromSubmitted(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)

	rejected, err := f.svc.Reject(context.Background(), RejectInput{
		OrderID: order.ID,
		Reason:  strPtr("pricing out of date"),
		Actor:   f.supplier,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusRejected, rejected.Status)
}

func TestCancelLifecycleRules(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)
	ctx := context.Background()

	// a reason is mandatory
	_, err := f.svc.Cancel(ctx, CancelInput{OrderID: order.ID, Actor: f.buyer})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	blank := "   "
	_, err = f.svc.Cancel(ctx, CancelInput{OrderID: order.ID, Reason: &blank, Actor: f.buyer})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	cancelled, err := f.svc.Cancel(ctx, CancelInput{
		OrderID: order.ID,
		Reason:  strPtr("duplicate order"),
		Actor:   f.buyer,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)

	// cancellation is terminal
	_, err = f.svc.Cancel(ctx, CancelInput{OrderID: order.ID, Reason: strPtr("changed my mind"), Actor: f.buyer})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestReceiveCompletesLifecycle(t *testing.T) {
	f := newWorkflowFixture(t)
	order := f.createSubmitted(t)
	ctx := context.Background()

	_, err := f.svc.BulkDecide(ctx, BulkDecisionInput{
		OrderID: order.ID,
		Decisions: []BulkLineDecision{
			{LineID: order.Lines[0].ID, ApproveQty: 50},
			{LineID: order.Lines[1].ID, ApproveQty: 30, RejectQty: 50},
		},
		Actor: f.supplier,
	})
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, FinalizeInput{OrderID: order.ID, Actor: f.supplier})
	require.NoError(t, err)

	received, err := f.svc.Receive(ctx, ReceiveInput{OrderID: order.ID, Actor: f.buyer})
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusReceived, received.Status)
	require.NotNil(t, received.ReceivedAt)

	// received orders cannot be cancelled
	_, err = f.svc.Cancel(ctx, CancelInput{OrderID: order.ID, Reason: strPtr("too late"), Actor: f.buyer})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestSubmitGuards(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, CreateInput{
		BuyerOrgID:    f.buyer.OrgID,
		SupplierOrgID: f.supplier.OrgID,
		Lines: []CreateLineInput{
			{ProductID: f.productA, SKU: "SKU-A", UnitPrice: decimal.NewFromInt(2), RequestedQty: 3},
		},
		Actor: f.buyer,
	})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, SubmitInput{OrderID: order.ID, Actor: f.supplier})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = f.svc.Submit(ctx, SubmitInput{OrderID: order.ID, Actor: f.buyer})
	require.NoError(t, err)

	// double submission hits the lifecycle guard
	_, err = f.svc.Submit(ctx, SubmitInput{OrderID: order.ID, Actor: f.buyer})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}
