package purchaseorders

import (
	"strings"

	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/mgaraycochea/tradeflow-backend/pkg/errors"
)

// allocation is a reviewer's split of a requested quantity.
type allocation struct {
	approveQty     int
	backorderQty   int
	rejectQty      int
	override       bool
	overrideReason *string
}

// resolveAllocation validates the split against the requested quantity and the
// stock snapshot, and derives the resulting line status. The rejected quantity
// defaults to the unallocated remainder; a caller supplying one explicitly
// must match that remainder. Approving more than is available requires an
// explicit override with a reason. The returned allocation carries the
// resolved quantities.
func resolveAllocation(requested, available int, alloc allocation) (allocation, enums.PurchaseOrderLineStatus, error) {
	if alloc.approveQty < 0 || alloc.backorderQty < 0 || alloc.rejectQty < 0 {
		return alloc, "", pkgerrors.New(pkgerrors.CodeValidation, "allocation quantities must be non-negative")
	}

	remainder := requested - alloc.approveQty - alloc.backorderQty
	if remainder < 0 {
		return alloc, "", pkgerrors.New(pkgerrors.CodeValidation, "allocation exceeds the requested quantity").
			WithDetails(map[string]any{
				"requested_qty": requested,
				"allocated_qty": alloc.approveQty + alloc.backorderQty,
			})
	}
	if alloc.rejectQty != 0 && alloc.rejectQty != remainder {
		return alloc, "", pkgerrors.New(pkgerrors.CodeValidation, "rejected quantity must equal the unallocated remainder").
			WithDetails(map[string]any{
				"requested_qty":       requested,
				"reject_qty":          alloc.rejectQty,
				"expected_reject_qty": remainder,
			})
	}
	alloc.rejectQty = remainder

	if alloc.override {
		if alloc.overrideReason == nil || strings.TrimSpace(*alloc.overrideReason) == "" {
			return alloc, "", pkgerrors.New(pkgerrors.CodeValidation, "override requires a reason")
		}
	} else if alloc.approveQty > available {
		return alloc, "", pkgerrors.New(pkgerrors.CodePolicy, "approved quantity exceeds available stock").
			WithDetails(map[string]any{
				"approve_qty":   alloc.approveQty,
				"available_qty": available,
			})
	}

	return alloc, deriveLineStatus(requested, alloc), nil
}

func deriveLineStatus(requested int, alloc allocation) enums.PurchaseOrderLineStatus {
	switch {
	case alloc.approveQty == requested:
		return enums.PurchaseOrderLineStatusApproved
	case alloc.approveQty > 0:
		return enums.PurchaseOrderLineStatusPartiallyApproved
	case alloc.backorderQty > 0:
		return enums.PurchaseOrderLineStatusBackordered
	default:
		return enums.PurchaseOrderLineStatusRejected
	}
}
