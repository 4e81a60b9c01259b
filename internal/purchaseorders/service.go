package purchaseorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mgaraycochea/tradeflow-backend/internal/history"
	"github.com/mgaraycochea/tradeflow-backend/internal/salesorders"
	"github.com/mgaraycochea/tradeflow-backend/internal/stock"
	"github.com/mgaraycochea/tradeflow-backend/pkg/db"
	"github.com/mgaraycochea/tradeflow-backend/pkg/db/models"
	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/mgaraycochea/tradeflow-backend/pkg/errors"
	"github.com/mgaraycochea/tradeflow-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the purchase order workflow surface.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error)
	Get(ctx context.Context, id uuid.UUID, actor Actor) (*models.PurchaseOrder, error)
	List(ctx context.Context, filter ListFilter) ([]models.PurchaseOrder, error)
	Submit(ctx context.Context, input SubmitInput) (*models.PurchaseOrder, error)
	ValidateStock(ctx context.Context, id uuid.UUID, actor Actor) (*stock.Report, error)
	DecideLine(ctx context.Context, input LineDecisionInput) (*models.PurchaseOrderLine, error)
	BulkDecide(ctx context.Context, input BulkDecisionInput) (*BulkDecisionResult, error)
	Finalize(ctx context.Context, input FinalizeInput) (*FinalizeResult, error)
	Reject(ctx context.Context, input RejectInput) (*models.PurchaseOrder, error)
	Cancel(ctx context.Context, input CancelInput) (*models.PurchaseOrder, error)
	Receive(ctx context.Context, input ReceiveInput) (*models.PurchaseOrder, error)
	History(ctx context.Context, id uuid.UUID, actor Actor) ([]models.ApprovalHistoryEntry, error)
}

type service struct {
	repo      Repository
	sales     salesorders.Repository
	tx        txRunner
	ledger    history.Service
	validator *stock.Validator
	inventory stock.Inventory
	metrics   *metrics.ApprovalMetrics
}

// NewService wires the purchase order workflow with its collaborators.
func NewService(
	repo Repository,
	sales salesorders.Repository,
	tx txRunner,
	ledger history.Service,
	validator *stock.Validator,
	inventory stock.Inventory,
	workflowMetrics *metrics.ApprovalMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase order repository required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sales order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("history service required")
	}
	if validator == nil {
		return nil, fmt.Errorf("stock validator required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory reader required")
	}
	return &service{
		repo:      repo,
		sales:     sales,
		tx:        tx,
		ledger:    ledger,
		validator: validator,
		inventory: inventory,
		metrics:   workflowMetrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error) {
	if input.BuyerOrgID == uuid.Nil || input.SupplierOrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer and supplier organizations required")
	}
	if input.BuyerOrgID == input.SupplierOrgID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer and supplier must differ")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Actor.OrgID != input.BuyerOrgID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase orders are opened by the buyer organization")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line product id required")
		}
		if line.RequestedQty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line unit price must not be negative")
		}
	}

	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if input.Tax.IsNegative() || input.Shipping.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax and shipping must not be negative")
	}

	subtotal := decimal.Zero
	for _, line := range input.Lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.RequestedQty))))
	}
	total := subtotal.Add(input.Tax).Add(input.Shipping)

	var created *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		number, err := repo.NextPONumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate po number")
		}

		order := &models.PurchaseOrder{
			ID:            uuid.New(),
			PONumber:      number,
			BuyerOrgID:    input.BuyerOrgID,
			SupplierOrgID: input.SupplierOrgID,
			Status:        enums.PurchaseOrderStatusDraft,
			Currency:      currency,
			Subtotal:      subtotal,
			Tax:           input.Tax,
			Shipping:      input.Shipping,
			Total:         total,
			Notes:         input.Notes,
		}
		if _, err := repo.Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "po number already allocated")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
		}

		lines := make([]models.PurchaseOrderLine, 0, len(input.Lines))
		for i, line := range input.Lines {
			lines = append(lines, models.PurchaseOrderLine{
				ID:              uuid.New(),
				PurchaseOrderID: order.ID,
				LineNo:          i + 1,
				ProductID:       line.ProductID,
				SKU:             line.SKU,
				UnitPrice:       line.UnitPrice,
				RequestedQty:    line.RequestedQty,
				Status:          enums.PurchaseOrderLineStatusPending,
			})
		}
		if err := repo.CreateLines(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order lines")
		}

		order.Lines = lines
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, actor Actor) (*models.PurchaseOrder, error) {
	order, err := s.loadOrder(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := requireParty(order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.PurchaseOrder, error) {
	if filter.OrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}
	return orders, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.PurchaseOrder, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}

	var submitted *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.BuyerOrgID != input.Actor.OrgID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer organization can submit")
		}
		if len(order.Lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot submit an order without lines")
		}

		now := time.Now().UTC()
		if err := s.transition(ctx, repo, order, enums.PurchaseOrderStatusSubmitted, map[string]any{"submitted_at": now}); err != nil {
			return err
		}
		order.SubmittedAt = &now

		if err := s.ledger.Append(ctx, tx, history.Entry{
			PurchaseOrderID: order.ID,
			Action:          enums.ApprovalActionSubmitted,
			ActorUserID:     input.Actor.UserID,
			ActorRole:       input.Actor.Role,
		}); err != nil {
			return err
		}
		submitted = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(enums.PurchaseOrderStatusSubmitted.String())
	return submitted, nil
}

func (s *service) ValidateStock(ctx context.Context, id uuid.UUID, actor Actor) (*stock.Report, error) {
	order, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.PurchaseOrderStatusSubmitted && order.Status != enums.PurchaseOrderStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "stock validation only applies before approval")
	}

	requests := make([]stock.LineRequest, 0, len(order.Lines))
	for _, line := range order.Lines {
		requests = append(requests, stock.LineRequest{
			LineID:       line.ID,
			ProductID:    line.ProductID,
			SKU:          line.SKU,
			RequestedQty: line.RequestedQty,
		})
	}
	return s.validator.ValidateLines(ctx, requests)
}

func (s *service) DecideLine(ctx context.Context, input LineDecisionInput) (*models.PurchaseOrderLine, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}
	if input.LineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}

	var decided *models.PurchaseOrderLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.SupplierOrgID != input.Actor.OrgID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the supplier organization can review lines")
		}
		if order.Status != enums.PurchaseOrderStatusSubmitted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "line decisions only apply to submitted orders")
		}

		line, err := repo.FindLine(ctx, input.LineID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line")
		}
		if line.PurchaseOrderID != order.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "line does not belong to order")
		}

		alloc := allocation{
			approveQty:     input.ApproveQty,
			backorderQty:   input.BackorderQty,
			rejectQty:      input.RejectQty,
			override:       input.Override,
			overrideReason: input.OverrideReason,
		}

		// The stock snapshot is only consulted when the policy applies.
		available := 0
		if !input.Override && input.ApproveQty > 0 {
			available, err = s.inventory.Available(ctx, line.ProductID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock snapshot")
			}
		}

		resolved, status, err := resolveAllocation(line.RequestedQty, available, alloc)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"approved_qty":     resolved.approveQty,
			"backorder_qty":    resolved.backorderQty,
			"rejected_qty":     resolved.rejectQty,
			"status":           status,
			"override_applied": input.Override,
			"override_reason":  input.OverrideReason,
			"notes":            input.Comment,
			"updated_at":       time.Now().UTC(),
		}
		if err := repo.UpdateLine(ctx, line.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line decision")
		}

		lineID := line.ID
		if err := s.ledger.Append(ctx, tx, history.Entry{
			PurchaseOrderID:     order.ID,
			PurchaseOrderLineID: &lineID,
			Action:              enums.ApprovalActionLineDecided,
			ActorUserID:         input.Actor.UserID,
			ActorRole:           input.Actor.Role,
			Comment:             input.Comment,
			Metadata: map[string]any{
				"approved_qty":  resolved.approveQty,
				"backorder_qty": resolved.backorderQty,
				"rejected_qty":  resolved.rejectQty,
				"override":      input.Override,
				"status":        status,
			},
		}); err != nil {
			return err
		}

		line.ApprovedQty = resolved.approveQty
		line.BackorderQty = resolved.backorderQty
		line.RejectedQty = resolved.rejectQty
		line.Status = status
		line.OverrideApplied = input.Override
		line.OverrideReason = input.OverrideReason
		line.Notes = input.Comment
		decided = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncLineDecision(decided.Status.String())
	return decided, nil
}

// BulkDecide applies each decision independently so one bad line never blocks
// the rest. Every line lands in exactly one of Processed or Failed. With no
// explicit decisions, every pending line fully covered by current stock is
// approved in full; short lines stay pending for a manual decision.
func (s *service) BulkDecide(ctx context.Context, input BulkDecisionInput) (*BulkDecisionResult, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}
	if len(input.Decisions) == 0 {
		suggested, err := s.suggestDecisions(ctx, input.OrderID, input.Actor)
		if err != nil {
			return nil, err
		}
		input.Decisions = suggested
	}

	result := &BulkDecisionResult{
		Processed: make([]uuid.UUID, 0, len(input.Decisions)),
		Failed:    make([]BulkFailure, 0),
	}

	for _, decision := range input.Decisions {
		_, err := s.DecideLine(ctx, LineDecisionInput{
			OrderID:        input.OrderID,
			LineID:         decision.LineID,
			ApproveQty:     decision.ApproveQty,
			BackorderQty:   decision.BackorderQty,
			RejectQty:      decision.RejectQty,
			Override:       decision.Override,
			OverrideReason: decision.OverrideReason,
			Comment:        decision.Comment,
			Actor:          input.Actor,
		})
		if err != nil {
			failure := BulkFailure{LineID: decision.LineID, Code: pkgerrors.CodeInternal, Message: "line decision failed"}
			if typed := pkgerrors.As(err); typed != nil {
				failure.Code = typed.Code()
				failure.Message = typed.Message()
			}
			result.Failed = append(result.Failed, failure)
			continue
		}
		result.Processed = append(result.Processed, decision.LineID)
	}

	if len(result.Processed) > 0 {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.ledger.Append(ctx, tx, history.Entry{
				PurchaseOrderID: input.OrderID,
				Action:          enums.ApprovalActionBulkApproved,
				ActorUserID:     input.Actor.UserID,
				ActorRole:       input.Actor.Role,
				Comment:         input.Comment,
				Metadata: map[string]any{
					"processed": len(result.Processed),
					"failed":    len(result.Failed),
				},
			})
		})
		if err != nil {
			return nil, err
		}
	}

	s.metrics.AddBulkOutcomes(len(result.Processed), len(result.Failed))
	return result, nil
}

// suggestDecisions selects the pending lines whose requested quantity is
// fully covered by the stock snapshot and approves them whole. Partially
// covered lines are left pending so a reviewer splits them deliberately.
func (s *service) suggestDecisions(ctx context.Context, orderID uuid.UUID, actor Actor) ([]BulkLineDecision, error) {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.SupplierOrgID != actor.OrgID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the supplier organization can review lines")
	}
	if order.Status != enums.PurchaseOrderStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "line decisions only apply to submitted orders")
	}

	requests := make([]stock.LineRequest, 0, len(order.Lines))
	for _, line := range order.Lines {
		if line.Status != enums.PurchaseOrderLineStatusPending {
			continue
		}
		requests = append(requests, stock.LineRequest{
			LineID:       line.ID,
			ProductID:    line.ProductID,
			SKU:          line.SKU,
			RequestedQty: line.RequestedQty,
		})
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no pending lines to decide")
	}

	report, err := s.validator.ValidateLines(ctx, requests)
	if err != nil {
		return nil, err
	}

	note := "auto-approved"
	decisions := make([]BulkLineDecision, 0, len(report.Lines))
	for _, line := range report.Lines {
		if line.Status != enums.StockStatusSufficient {
			continue
		}
		decisions = append(decisions, BulkLineDecision{
			LineID:     line.LineID,
			ApproveQty: line.RequestedQty,
			Comment:    &note,
		})
	}
	if len(decisions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no pending lines are fully covered by current stock")
	}
	return decisions, nil
}

func (s *service) Finalize(ctx context.Context, input FinalizeInput) (*FinalizeResult, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}

	started := time.Now()
	var result *FinalizeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sales := s.sales.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.SupplierOrgID != input.Actor.OrgID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the supplier organization can finalize")
		}

		pending := make([]uuid.UUID, 0)
		for _, line := range order.Lines {
			if line.Status == enums.PurchaseOrderLineStatusPending {
				pending = append(pending, line.ID)
			}
		}
		if len(pending) > 0 {
			return pkgerrors.New(pkgerrors.CodeIncompleteReview, "all lines must be decided before finalization").
				WithDetails(map[string]any{"pending_line_ids": pending})
		}

		backorders := buildBackorders(order)
		ordersCreated := 0
		for _, line := range order.Lines {
			if line.ApprovedQty > 0 {
				ordersCreated = 1
				break
			}
		}

		now := time.Now().UTC()
		if err := s.transition(ctx, repo, order, enums.PurchaseOrderStatusApproved, map[string]any{"approved_at": now}); err != nil {
			return err
		}
		order.Status = enums.PurchaseOrderStatusApproved
		order.ApprovedAt = &now

		if err := s.ledger.Append(ctx, tx, history.Entry{
			PurchaseOrderID: order.ID,
			Action:          enums.ApprovalActionApproved,
			ActorUserID:     input.Actor.UserID,
			ActorRole:       input.Actor.Role,
			Comment:         input.Comment,
			Metadata: map[string]any{
				"orders_created":     ordersCreated,
				"backorders_created": len(backorders),
			},
		}); err != nil {
			return err
		}

		salesOrder, err := s.spawnSalesOrder(ctx, sales, order)
		if err != nil {
			return err
		}

		if err := repo.CreateBackorders(ctx, backorders); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create backorders")
		}

		if salesOrder != nil {
			if err := s.transition(ctx, repo, order, enums.PurchaseOrderStatusOrdered, map[string]any{"ordered_at": now}); err != nil {
				return err
			}
			order.Status = enums.PurchaseOrderStatusOrdered
			order.OrderedAt = &now

			if err := s.ledger.Append(ctx, tx, history.Entry{
				PurchaseOrderID: order.ID,
				Action:          enums.ApprovalActionOrdered,
				ActorUserID:     input.Actor.UserID,
				ActorRole:       input.Actor.Role,
				Metadata: map[string]any{
					"sales_order_id":     salesOrder.ID,
					"backorders_created": len(backorders),
				},
			}); err != nil {
				return err
			}
		}

		result = &FinalizeResult{
			Order:             order,
			SalesOrder:        salesOrder,
			BackordersCreated: len(backorders),
		}
		return nil
	})
	if err != nil {
		s.metrics.IncFinalizeFailure()
		return nil, err
	}

	s.metrics.ObserveFinalize(time.Since(started))
	s.metrics.IncTransition(result.Order.Status.String())
	return result, nil
}

func (s *service) Reject(ctx context.Context, input RejectInput) (*models.PurchaseOrder, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}

	var rejected *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.SupplierOrgID != input.Actor.OrgID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the supplier organization can reject")
		}

		if err := s.transition(ctx, repo, order, enums.PurchaseOrderStatusRejected, nil); err != nil {
			return err
		}
		order.Status = enums.PurchaseOrderStatusRejected

		if err := s.ledger.Append(ctx, tx, history.Entry{
			PurchaseOrderID: order.ID,
			Action:          enums.ApprovalActionRejected,
			ActorUserID:     input.Actor.UserID,
			ActorRole:       input.Actor.Role,
			Comment:         input.Reason,
		}); err != nil {
			return err
		}
		rejected = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(enums.PurchaseOrderStatusRejected.String())
	return rejected, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.PurchaseOrder, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}
	if input.Reason == nil || strings.TrimSpace(*input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}

	var cancelled *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.BuyerOrgID != input.Actor.OrgID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer organization can cancel")
		}

		now := time.Now().UTC()
		extra := map[string]any{
			"cancelled_at":  now,
			"cancel_reason": *input.Reason,
		}
		if err := s.transition(ctx, repo, order, enums.PurchaseOrderStatusCancelled, extra); err != nil {
			return err
		}
		order.Status = enums.PurchaseOrderStatusCancelled
		order.CancelledAt = &now
		order.CancelReason = input.Reason

		if err := s.ledger.Append(ctx, tx, history.Entry{
			PurchaseOrderID: order.ID,
			Action:          enums.ApprovalActionCancelled,
			ActorUserID:     input.Actor.UserID,
			ActorRole:       input.Actor.Role,
			Comment:         input.Reason,
		}); err != nil {
			return err
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(enums.PurchaseOrderStatusCancelled.String())
	return cancelled, nil
}

func (s *service) Receive(ctx context.Context, input ReceiveInput) (*models.PurchaseOrder, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}

	var received *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.BuyerOrgID != input.Actor.OrgID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer organization can confirm receipt")
		}

		now := time.Now().UTC()
		if err := s.transition(ctx, repo, order, enums.PurchaseOrderStatusReceived, map[string]any{"received_at": now}); err != nil {
			return err
		}
		order.Status = enums.PurchaseOrderStatusReceived
		order.ReceivedAt = &now

		if err := s.ledger.Append(ctx, tx, history.Entry{
			PurchaseOrderID: order.ID,
			Action:          enums.ApprovalActionReceived,
			ActorUserID:     input.Actor.UserID,
			ActorRole:       input.Actor.Role,
		}); err != nil {
			return err
		}
		received = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(enums.PurchaseOrderStatusReceived.String())
	return received, nil
}

func (s *service) History(ctx context.Context, id uuid.UUID, actor Actor) ([]models.ApprovalHistoryEntry, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.ledger.List(ctx, id)
}

func (s *service) loadOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.PurchaseOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	return order, nil
}

// transition applies a guarded status change. A CAS miss means a concurrent
// writer moved the order first, or the move is not in the lifecycle graph.
func (s *service) transition(ctx context.Context, repo Repository, order *models.PurchaseOrder, to enums.PurchaseOrderStatus, extra map[string]any) error {
	if !CanTransition(order.Status, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order status transition disallowed").
			WithDetails(map[string]any{
				"from": order.Status,
				"to":   to,
			})
	}
	moved, err := repo.TransitionStatus(ctx, order.ID, order.Status, to, extra)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order status")
	}
	if !moved {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order changed concurrently").
			WithDetails(map[string]any{"expected_status": order.Status})
	}
	order.Status = to
	return nil
}

// spawnSalesOrder builds one sales order from the approved quantities. Orders
// where nothing was approved produce no sales order and stay in approved.
func (s *service) spawnSalesOrder(ctx context.Context, sales salesorders.Repository, order *models.PurchaseOrder) (*models.SalesOrder, error) {
	type approvedLine struct {
		line models.PurchaseOrderLine
		qty  int
	}
	approved := make([]approvedLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		if line.ApprovedQty > 0 {
			approved = append(approved, approvedLine{line: line, qty: line.ApprovedQty})
		}
	}
	if len(approved) == 0 {
		return nil, nil
	}

	number, err := sales.NextOrderNumber(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate sales order number")
	}

	subtotal := decimal.Zero
	lines := make([]models.SalesOrderLine, 0, len(approved))
	salesOrderID := uuid.New()
	for _, entry := range approved {
		lineTotal := entry.line.UnitPrice.Mul(decimal.NewFromInt(int64(entry.qty)))
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, models.SalesOrderLine{
			ID:                  uuid.New(),
			SalesOrderID:        salesOrderID,
			PurchaseOrderLineID: entry.line.ID,
			ProductID:           entry.line.ProductID,
			SKU:                 entry.line.SKU,
			UnitPrice:           entry.line.UnitPrice,
			Qty:                 entry.qty,
			Total:               lineTotal,
		})
	}

	salesOrder := &models.SalesOrder{
		ID:              salesOrderID,
		OrderNumber:     number,
		PurchaseOrderID: order.ID,
		BuyerOrgID:      order.BuyerOrgID,
		SupplierOrgID:   order.SupplierOrgID,
		Status:          enums.SalesOrderStatusPending,
		Currency:        order.Currency,
		Subtotal:        subtotal,
		Tax:             order.Tax,
		Shipping:        order.Shipping,
		Total:           subtotal.Add(order.Tax).Add(order.Shipping),
	}
	if _, err := sales.Create(ctx, salesOrder); err != nil {
		if db.IsUniqueViolation(err, "idx_sales_orders_purchase_order") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "purchase order already finalized")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sales order")
	}
	if err := sales.CreateLines(ctx, lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sales order lines")
	}
	salesOrder.Lines = lines
	return salesOrder, nil
}

func buildBackorders(order *models.PurchaseOrder) []models.Backorder {
	backorders := make([]models.Backorder, 0)
	for _, line := range order.Lines {
		if line.BackorderQty <= 0 {
			continue
		}
		backorders = append(backorders, models.Backorder{
			ID:                  uuid.New(),
			PurchaseOrderID:     order.ID,
			PurchaseOrderLineID: line.ID,
			ProductID:           line.ProductID,
			SKU:                 line.SKU,
			Qty:                 line.BackorderQty,
			Status:              enums.BackorderStatusOpen,
		})
	}
	return backorders
}

func requireActor(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if actor.OrgID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	return nil
}

func requireParty(order *models.PurchaseOrder, actor Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if order.BuyerOrgID != actor.OrgID && order.SupplierOrgID != actor.OrgID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "purchase order does not belong to organization")
	}
	return nil
}
