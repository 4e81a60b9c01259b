package enums

import "fmt"

// PurchaseOrderLineStatus captures the allocation decision recorded on a line.
type PurchaseOrderLineStatus string

const (
	PurchaseOrderLineStatusPending           PurchaseOrderLineStatus = "pending"
	PurchaseOrderLineStatusApproved          PurchaseOrderLineStatus = "approved"
	PurchaseOrderLineStatusPartiallyApproved PurchaseOrderLineStatus = "partially_approved"
	PurchaseOrderLineStatusBackordered       PurchaseOrderLineStatus = "backordered"
	PurchaseOrderLineStatusRejected          PurchaseOrderLineStatus = "rejected"
	PurchaseOrderLineStatusCancelled         PurchaseOrderLineStatus = "cancelled"
)

var validPurchaseOrderLineStatuses = []PurchaseOrderLineStatus{
	PurchaseOrderLineStatusPending,
	PurchaseOrderLineStatusApproved,
	PurchaseOrderLineStatusPartiallyApproved,
	PurchaseOrderLineStatusBackordered,
	PurchaseOrderLineStatusRejected,
	PurchaseOrderLineStatusCancelled,
}

// String implements fmt.Stringer.
func (p PurchaseOrderLineStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseOrderLineStatus.
func (p PurchaseOrderLineStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderLineStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePurchaseOrderLineStatus converts raw input into a PurchaseOrderLineStatus.
func ParsePurchaseOrderLineStatus(value string) (PurchaseOrderLineStatus, error) {
	for _, candidate := range validPurchaseOrderLineStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order line status %q", value)
}
