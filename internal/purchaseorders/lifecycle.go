package purchaseorders

import "github.com/mgaraycochea/tradeflow-backend/pkg/enums"

// lifecycleTransitions is the purchase order state graph. Received, rejected,
// and cancelled are terminal; cancellation is reachable from every active
// status but never from received.
var lifecycleTransitions = map[enums.PurchaseOrderStatus][]enums.PurchaseOrderStatus{
	enums.PurchaseOrderStatusDraft: {
		enums.PurchaseOrderStatusSubmitted,
		enums.PurchaseOrderStatusCancelled,
	},
	enums.PurchaseOrderStatusSubmitted: {
		enums.PurchaseOrderStatusApproved,
		enums.PurchaseOrderStatusRejected,
		enums.PurchaseOrderStatusCancelled,
	},
	enums.PurchaseOrderStatusApproved: {
		enums.PurchaseOrderStatusOrdered,
		enums.PurchaseOrderStatusCancelled,
	},
	enums.PurchaseOrderStatusOrdered: {
		enums.PurchaseOrderStatusReceived,
		enums.PurchaseOrderStatusCancelled,
	},
	enums.PurchaseOrderStatusReceived:  {},
	enums.PurchaseOrderStatusRejected:  {},
	enums.PurchaseOrderStatusCancelled: {},
}

// CanTransition reports whether a purchase order may move between the two
// lifecycle statuses. It is a pure lookup with no side effects.
func CanTransition(from, to enums.PurchaseOrderStatus) bool {
	targets, ok := lifecycleTransitions[from]
	if !ok {
		return false
	}
	for _, target := range targets {
		if target == to {
			return true
		}
	}
	return false
}
