package purchaseorders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mgaraycochea/tradeflow-backend/pkg/db/models"
	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/mgaraycochea/tradeflow-backend/pkg/errors"
)

// Actor identifies who performs a workflow operation and on behalf of which
// organization.
type Actor struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   string
}

// CreateLineInput is one requested SKU on a new purchase order.
type CreateLineInput struct {
	ProductID    uuid.UUID
	SKU          string
	UnitPrice    decimal.Decimal
	RequestedQty int
}

// CreateInput carries the data required to open a draft purchase order.
type CreateInput struct {
	BuyerOrgID    uuid.UUID
	SupplierOrgID uuid.UUID
	Currency      enums.Currency
	Tax           decimal.Decimal
	Shipping      decimal.Decimal
	Notes         *string
	Lines         []CreateLineInput
	Actor         Actor
}

// SubmitInput moves a draft order into review.
type SubmitInput struct {
	OrderID uuid.UUID
	Actor   Actor
}

// LineDecisionInput records the reviewer's allocation for a single line.
type LineDecisionInput struct {
	OrderID        uuid.UUID
	LineID         uuid.UUID
	ApproveQty     int
	BackorderQty   int
	RejectQty      int
	Override       bool
	OverrideReason *string
	Comment        *string
	Actor          Actor
}

// BulkLineDecision is one line's allocation within a bulk request.
type BulkLineDecision struct {
	LineID         uuid.UUID
	ApproveQty     int
	BackorderQty   int
	RejectQty      int
	Override       bool
	OverrideReason *string
	Comment        *string
}

// BulkDecisionInput applies many line decisions in one call. An empty
// Decisions slice asks the service to fully approve every pending line that
// current stock covers. Comment lands on the bulk ledger entry.
type BulkDecisionInput struct {
	OrderID   uuid.UUID
	Decisions []BulkLineDecision
	Comment   *string
	Actor     Actor
}

// BulkFailure reports one line that could not be decided.
type BulkFailure struct {
	LineID  uuid.UUID      `json:"line_id"`
	Code    pkgerrors.Code `json:"code"`
	Message string         `json:"message"`
}

// BulkDecisionResult summarizes a best-effort bulk run. Processed and Failed
// together cover every requested line exactly once.
type BulkDecisionResult struct {
	Processed []uuid.UUID   `json:"processed"`
	Failed    []BulkFailure `json:"failed"`
}

// FinalizeInput completes the review and spawns downstream records.
type FinalizeInput struct {
	OrderID uuid.UUID
	Comment *string
	Actor   Actor
}

// FinalizeResult reports what finalization produced. SalesOrder is nil when
// no line had an approved quantity.
type FinalizeResult struct {
	Order             *models.PurchaseOrder `json:"order"`
	SalesOrder        *models.SalesOrder    `json:"sales_order,omitempty"`
	BackordersCreated int                   `json:"backorders_created"`
}

// RejectInput declines a submitted order outright.
type RejectInput struct {
	OrderID uuid.UUID
	Reason  *string
	Actor   Actor
}

// CancelInput withdraws an active order.
type CancelInput struct {
	OrderID uuid.UUID
	Reason  *string
	Actor   Actor
}

// ReceiveInput acknowledges physical receipt of an ordered purchase order.
type ReceiveInput struct {
	OrderID uuid.UUID
	Actor   Actor
}
