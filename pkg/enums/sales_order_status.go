package enums

import "fmt"

// SalesOrderStatus tracks the downstream fulfillment progression of a sales order.
type SalesOrderStatus string

const (
	SalesOrderStatusPending    SalesOrderStatus = "pending"
	SalesOrderStatusProcessing SalesOrderStatus = "processing"
	SalesOrderStatusShipped    SalesOrderStatus = "shipped"
	SalesOrderStatusDelivered  SalesOrderStatus = "delivered"
	SalesOrderStatusCancelled  SalesOrderStatus = "cancelled"
)

var validSalesOrderStatuses = []SalesOrderStatus{
	SalesOrderStatusPending,
	SalesOrderStatusProcessing,
	SalesOrderStatusShipped,
	SalesOrderStatusDelivered,
	SalesOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s SalesOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SalesOrderStatus.
func (s SalesOrderStatus) IsValid() bool {
	for _, candidate := range validSalesOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSalesOrderStatus converts raw input into a SalesOrderStatus.
func ParseSalesOrderStatus(value string) (SalesOrderStatus, error) {
	for _, candidate := range validSalesOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sales order status %q", value)
}
