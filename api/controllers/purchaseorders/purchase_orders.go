package purchaseorders

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mgaraycochea/tradeflow-backend/api/middleware"
	"github.com/mgaraycochea/tradeflow-backend/api/responses"
	"github.com/mgaraycochea/tradeflow-backend/api/validators"
	workflow "github.com/mgaraycochea/tradeflow-backend/internal/purchaseorders"
	"github.com/mgaraycochea/tradeflow-backend/pkg/db/models"
	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/mgaraycochea/tradeflow-backend/pkg/errors"
	"github.com/mgaraycochea/tradeflow-backend/pkg/logger"
	"github.com/mgaraycochea/tradeflow-backend/pkg/pagination"
)

type createLineRequest struct {
	ProductID    string `json:"product_id" validate:"required,uuid4"`
	SKU          string `json:"sku" validate:"required"`
	UnitPrice    string `json:"unit_price" validate:"required"`
	RequestedQty int    `json:"requested_qty" validate:"required,min=1"`
}

type createRequest struct {
	SupplierOrgID string              `json:"supplier_org_id" validate:"required,uuid4"`
	Currency      string              `json:"currency,omitempty"`
	Tax           string              `json:"tax,omitempty"`
	Shipping      string              `json:"shipping,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	Lines         []createLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type lineDecisionRequest struct {
	ApproveQty     int     `json:"approve_qty" validate:"gte=0"`
	BackorderQty   int     `json:"backorder_qty" validate:"gte=0"`
	RejectQty      int     `json:"reject_qty" validate:"gte=0"`
	Override       bool    `json:"override,omitempty"`
	OverrideReason *string `json:"override_reason,omitempty"`
	Comment        *string `json:"comment,omitempty"`
}

type bulkLineDecisionRequest struct {
	LineID         string  `json:"line_id" validate:"required,uuid4"`
	ApproveQty     int     `json:"approve_qty" validate:"gte=0"`
	BackorderQty   int     `json:"backorder_qty" validate:"gte=0"`
	RejectQty      int     `json:"reject_qty" validate:"gte=0"`
	Override       bool    `json:"override,omitempty"`
	OverrideReason *string `json:"override_reason,omitempty"`
	Comment        *string `json:"comment,omitempty"`
}

type bulkDecisionRequest struct {
	LineDecisions []bulkLineDecisionRequest `json:"line_decisions" validate:"omitempty,dive"`
	Comments      *string                   `json:"comments,omitempty"`
}

type finalizeRequest struct {
	Comment *string `json:"comment,omitempty"`
}

type reasonRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type listResponse struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type detailResponse struct {
	Order   *models.PurchaseOrder         `json:"order"`
	History []models.ApprovalHistoryEntry `json:"history"`
}

// Create opens a draft purchase order for the actor's buyer organization.
func Create(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierOrgID, err := uuid.Parse(payload.SupplierOrgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier org id"))
			return
		}

		tax, err := parseMoney(payload.Tax, "tax")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipping, err := parseMoney(payload.Shipping, "shipping")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]workflow.CreateLineInput, 0, len(payload.Lines))
		for i, line := range payload.Lines {
			productID, err := uuid.Parse(line.ProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid product id on line %d", i+1)))
				return
			}
			unitPrice, err := decimal.NewFromString(strings.TrimSpace(line.UnitPrice))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid unit price on line %d", i+1)))
				return
			}
			lines = append(lines, workflow.CreateLineInput{
				ProductID:    productID,
				SKU:          strings.TrimSpace(line.SKU),
				UnitPrice:    unitPrice,
				RequestedQty: line.RequestedQty,
			})
		}

		input := workflow.CreateInput{
			BuyerOrgID:    actor.OrgID,
			SupplierOrgID: supplierOrgID,
			Currency:      enums.Currency(strings.ToUpper(strings.TrimSpace(payload.Currency))),
			Tax:           tax,
			Shipping:      shipping,
			Notes:         payload.Notes,
			Lines:         lines,
			Actor:         actor,
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// List pages purchase orders visible to the actor's organization, newest first.
func List(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := workflow.ListFilter{
			OrgID: actor.OrgID,
			Query: strings.TrimSpace(r.URL.Query().Get("q")),
			Page: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePurchaseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid status %q", raw)))
				return
			}
			filter.Status = &status
		}

		orders, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := listResponse{Items: orders}
		if len(orders) > limit {
			orders = orders[:limit]
			last := orders[len(orders)-1]
			page.Items = orders
			page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		}
		responses.WriteSuccess(w, page)
	}
}

// Detail returns one purchase order with its lines and approval history.
func Detail(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.History(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detailResponse{Order: order, History: entries})
	}
}

// Submit moves a draft order into supplier review.
func Submit(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Submit(r.Context(), workflow.SubmitInput{OrderID: orderID, Actor: actor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ValidateStock reports per-line availability and split suggestions without
// changing any state.
func ValidateStock(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.ValidateStock(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// DecideLine records the supplier's allocation for a single line.
func DecideLine(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := parseLineID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload lineDecisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.DecideLine(r.Context(), workflow.LineDecisionInput{
			OrderID:        orderID,
			LineID:         lineID,
			ApproveQty:     payload.ApproveQty,
			BackorderQty:   payload.BackorderQty,
			RejectQty:      payload.RejectQty,
			Override:       payload.Override,
			OverrideReason: payload.OverrideReason,
			Comment:        payload.Comment,
			Actor:          actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	}
}

// BulkDecide applies many line decisions best-effort and reports per-line
// outcomes.
func BulkDecide(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// An empty body means "fully approve every pending line that stock
		// covers"; the service resolves the eligible lines.
		var payload bulkDecisionRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decisions := make([]workflow.BulkLineDecision, 0, len(payload.LineDecisions))
		for i, decision := range payload.LineDecisions {
			lineID, err := uuid.Parse(decision.LineID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid line id on decision %d", i+1)))
				return
			}
			decisions = append(decisions, workflow.BulkLineDecision{
				LineID:         lineID,
				ApproveQty:     decision.ApproveQty,
				BackorderQty:   decision.BackorderQty,
				RejectQty:      decision.RejectQty,
				Override:       decision.Override,
				OverrideReason: decision.OverrideReason,
				Comment:        decision.Comment,
			})
		}

		result, err := svc.BulkDecide(r.Context(), workflow.BulkDecisionInput{
			OrderID:   orderID,
			Decisions: decisions,
			Comment:   payload.Comments,
			Actor:     actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Finalize completes the review, spawning the sales order and backorders in
// one transaction.
func Finalize(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload finalizeRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Finalize(r.Context(), workflow.FinalizeInput{
			OrderID: orderID,
			Comment: payload.Comment,
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Reject declines a submitted order outright.
func Reject(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reasonRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Reject(r.Context(), workflow.RejectInput{
			OrderID: orderID,
			Reason:  payload.Reason,
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Cancel withdraws an active order on behalf of the buyer.
func Cancel(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reasonRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), workflow.CancelInput{
			OrderID: orderID,
			Reason:  payload.Reason,
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Receive acknowledges physical receipt of an ordered purchase order.
func Receive(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Receive(r.Context(), workflow.ReceiveInput{OrderID: orderID, Actor: actor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// History returns the order's append-only approval trail, newest first.
func History(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.History(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func actorFromRequest(r *http.Request) (workflow.Actor, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return workflow.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	parsedUser, err := uuid.Parse(userID)
	if err != nil {
		return workflow.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}

	orgID := middleware.OrgIDFromContext(r.Context())
	if orgID == "" {
		return workflow.Actor{}, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	parsedOrg, err := uuid.Parse(orgID)
	if err != nil {
		return workflow.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid org id")
	}

	return workflow.Actor{
		UserID: parsedUser,
		OrgID:  parsedOrg,
		Role:   middleware.RoleFromContext(r.Context()),
	}, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "poID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase order id")
	}
	return parsed, nil
}

func parseLineID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "lineID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line id")
	}
	return parsed, nil
}

func parseMoney(raw, field string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid %s", field))
	}
	return value, nil
}
