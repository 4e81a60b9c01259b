package salesorders

import "github.com/mgaraycochea/tradeflow-backend/pkg/enums"

// statusTransitions is the full sales order status graph. Delivered and
// cancelled are terminal; every other status can still be cancelled.
var statusTransitions = map[enums.SalesOrderStatus][]enums.SalesOrderStatus{
	enums.SalesOrderStatusPending: {
		enums.SalesOrderStatusProcessing,
		enums.SalesOrderStatusCancelled,
	},
	enums.SalesOrderStatusProcessing: {
		enums.SalesOrderStatusShipped,
		enums.SalesOrderStatusCancelled,
	},
	enums.SalesOrderStatusShipped: {
		enums.SalesOrderStatusDelivered,
		enums.SalesOrderStatusCancelled,
	},
	enums.SalesOrderStatusDelivered: {},
	enums.SalesOrderStatusCancelled: {},
}

// IsValidStatusTransition reports whether a sales order may move from one
// status to another. It is a pure lookup with no side effects.
func IsValidStatusTransition(from, to enums.SalesOrderStatus) bool {
	targets, ok := statusTransitions[from]
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
