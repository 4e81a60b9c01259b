package purchaseorders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from enums.PurchaseOrderStatus
		to   enums.PurchaseOrderStatus
		want bool
	}{
		{"draft to submitted", enums.PurchaseOrderStatusDraft, enums.PurchaseOrderStatusSubmitted, true},
		{"draft to cancelled", enums.PurchaseOrderStatusDraft, enums.PurchaseOrderStatusCancelled, true},
		{"draft cannot approve", enums.PurchaseOrderStatusDraft, enums.PurchaseOrderStatusApproved, false},
		{"submitted to approved", enums.PurchaseOrderStatusSubmitted, enums.PurchaseOrderStatusApproved, true},
		{"submitted to rejected", enums.PurchaseOrderStatusSubmitted, enums.PurchaseOrderStatusRejected, true},
		{"submitted to cancelled", enums.PurchaseOrderStatusSubmitted, enums.PurchaseOrderStatusCancelled, true},
		{"submitted cannot order", enums.PurchaseOrderStatusSubmitted, enums.PurchaseOrderStatusOrdered, false},
		{"approved to ordered", enums.PurchaseOrderStatusApproved, enums.PurchaseOrderStatusOrdered, true},
		{"approved to cancelled", enums.PurchaseOrderStatusApproved, enums.PurchaseOrderStatusCancelled, true},
		{"ordered to received", enums.PurchaseOrderStatusOrdered, enums.PurchaseOrderStatusReceived, true},
		{"ordered to cancelled", enums.PurchaseOrderStatusOrdered, enums.PurchaseOrderStatusCancelled, true},
		{"received is terminal", enums.PurchaseOrderStatusReceived, enums.PurchaseOrderStatusCancelled, false},
		{"rejected is terminal", enums.PurchaseOrderStatusRejected, enums.PurchaseOrderStatusSubmitted, false},
		{"cancelled is terminal", enums.PurchaseOrderStatusCancelled, enums.PurchaseOrderStatusDraft, false},
		{"no self transition", enums.PurchaseOrderStatusSubmitted, enums.PurchaseOrderStatusSubmitted, false},
		{"unknown source", enums.PurchaseOrderStatus("bogus"), enums.PurchaseOrderStatusDraft, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestTerminalStatusesHaveNoTargets(t *testing.T) {
	for _, status := range []enums.PurchaseOrderStatus{
		enums.PurchaseOrderStatusReceived,
		enums.PurchaseOrderStatusRejected,
		enums.PurchaseOrderStatusCancelled,
	} {
		assert.Empty(t, lifecycleTransitions[status], "terminal status %s must have no outgoing transitions", status)
		assert.True(t, status.IsTerminal())
	}
}
