package stock

import (
	"context"

	"github.com/google/uuid"

	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/mgaraycochea/tradeflow-backend/pkg/errors"
)

// Inventory exposes the read surface the validator needs. Lookups are
// point-in-time snapshots; no reservation happens here.
type Inventory interface {
	Available(ctx context.Context, productID uuid.UUID) (int, error)
}

// LineRequest is one line to check against current stock.
type LineRequest struct {
	LineID       uuid.UUID
	ProductID    uuid.UUID
	SKU          string
	RequestedQty int
}

// LineResult is the advisory outcome for a single line. SuggestedApproveQty
// plus SuggestedBackorderQty always equals the requested quantity.
type LineResult struct {
	LineID                uuid.UUID         `json:"line_id"`
	ProductID             uuid.UUID         `json:"product_id"`
	SKU                   string            `json:"sku"`
	RequestedQty          int               `json:"requested_qty"`
	AvailableQty          int               `json:"available_qty"`
	Status                enums.StockStatus `json:"status"`
	SuggestedApproveQty   int               `json:"suggested_approve_qty"`
	SuggestedBackorderQty int               `json:"suggested_backorder_qty"`
	Warning               string            `json:"warning,omitempty"`
}

// Report aggregates per-line results for a whole purchase order.
type Report struct {
	Lines         []LineResult `json:"lines"`
	AllSufficient bool         `json:"all_sufficient"`
}

// Validator checks requested quantities against the inventory snapshot.
type Validator struct {
	inventory Inventory
}

// NewValidator builds a stock validator over the provided inventory reads.
func NewValidator(inventory Inventory) (*Validator, error) {
	if inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory reader required")
	}
	return &Validator{inventory: inventory}, nil
}

// ValidateLines produces an advisory stock report for the given lines. A
// failed lookup never fails the whole report: the affected line is marked
// insufficient with a warning and zero availability, and the rest of the
// lines are still checked.
func (v *Validator) ValidateLines(ctx context.Context, lines []LineRequest) (*Report, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}

	report := &Report{
		Lines:         make([]LineResult, 0, len(lines)),
		AllSufficient: true,
	}

	for _, line := range lines {
		result := LineResult{
			LineID:       line.LineID,
			ProductID:    line.ProductID,
			SKU:          line.SKU,
			RequestedQty: line.RequestedQty,
		}

		available, err := v.inventory.Available(ctx, line.ProductID)
		if err != nil {
			result.Status = enums.StockStatusInsufficient
			result.SuggestedBackorderQty = line.RequestedQty
			result.Warning = "stock lookup failed; treating availability as zero"
			report.Lines = append(report.Lines, result)
			report.AllSufficient = false
			continue
		}

		result.AvailableQty = available
		result.Status = classify(available, line.RequestedQty)
		result.SuggestedApproveQty = minInt(available, line.RequestedQty)
		result.SuggestedBackorderQty = line.RequestedQty - result.SuggestedApproveQty

		if result.Status != enums.StockStatusSufficient {
			report.AllSufficient = false
		}
		report.Lines = append(report.Lines, result)
	}

	return report, nil
}

func classify(available, requested int) enums.StockStatus {
	switch {
	case available >= requested:
		return enums.StockStatusSufficient
	case available > 0:
		return enums.StockStatusPartial
	default:
		return enums.StockStatusInsufficient
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
