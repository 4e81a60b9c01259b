package enums

import "fmt"

// ApprovalAction names an auditable action recorded in the approval history ledger.
type ApprovalAction string

const (
	ApprovalActionSubmitted    ApprovalAction = "submitted"
	ApprovalActionLineDecided  ApprovalAction = "line_decided"
	ApprovalActionBulkApproved ApprovalAction = "bulk_approved"
	ApprovalActionApproved     ApprovalAction = "approved"
	ApprovalActionRejected     ApprovalAction = "rejected"
	ApprovalActionOrdered      ApprovalAction = "ordered"
	ApprovalActionReceived     ApprovalAction = "received"
	ApprovalActionCancelled    ApprovalAction = "cancelled"
)

var validApprovalActions = []ApprovalAction{
	ApprovalActionSubmitted,
	ApprovalActionLineDecided,
	ApprovalActionBulkApproved,
	ApprovalActionApproved,
	ApprovalActionRejected,
	ApprovalActionOrdered,
	ApprovalActionReceived,
	ApprovalActionCancelled,
}

// String implements fmt.Stringer.
func (a ApprovalAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ApprovalAction.
func (a ApprovalAction) IsValid() bool {
	for _, candidate := range validApprovalActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseApprovalAction converts raw input into an ApprovalAction.
func ParseApprovalAction(value string) (ApprovalAction, error) {
	for _, candidate := range validApprovalActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval action %q", value)
}
