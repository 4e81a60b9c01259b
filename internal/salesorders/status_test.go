package salesorders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
)

func TestIsValidStatusTransition(t *testing.T) {
	cases := []struct {
		name string
		from enums.SalesOrderStatus
		to   enums.SalesOrderStatus
		want bool
	}{
		{"pending to processing", enums.SalesOrderStatusPending, enums.SalesOrderStatusProcessing, true},
		{"pending to cancelled", enums.SalesOrderStatusPending, enums.SalesOrderStatusCancelled, true},
		{"pending to shipped skips processing", enums.SalesOrderStatusPending, enums.SalesOrderStatusShipped, false},
		{"processing to shipped", enums.SalesOrderStatusProcessing, enums.SalesOrderStatusShipped, true},
		{"processing to cancelled", enums.SalesOrderStatusProcessing, enums.SalesOrderStatusCancelled, true},
		{"shipped to delivered", enums.SalesOrderStatusShipped, enums.SalesOrderStatusDelivered, true},
		{"shipped to cancelled", enums.SalesOrderStatusShipped, enums.SalesOrderStatusCancelled, true},
		{"delivered is terminal", enums.SalesOrderStatusDelivered, enums.SalesOrderStatusProcessing, false},
		{"delivered cannot cancel", enums.SalesOrderStatusDelivered, enums.SalesOrderStatusCancelled, false},
		{"cancelled is terminal", enums.SalesOrderStatusCancelled, enums.SalesOrderStatusPending, false},
		{"no self transition", enums.SalesOrderStatusProcessing, enums.SalesOrderStatusProcessing, false},
		{"unknown source", enums.SalesOrderStatus("bogus"), enums.SalesOrderStatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidStatusTransition(tc.from, tc.to))
		})
	}
}

func TestEveryStatusHasTransitionEntry(t *testing.T) {
	for _, status := range []enums.SalesOrderStatus{
		enums.SalesOrderStatusPending,
		enums.SalesOrderStatusProcessing,
		enums.SalesOrderStatusShipped,
		enums.SalesOrderStatusDelivered,
		enums.SalesOrderStatusCancelled,
	} {
		_, ok := statusTransitions[status]
		assert.True(t, ok, "missing transition entry for %s", status)
	}
}
