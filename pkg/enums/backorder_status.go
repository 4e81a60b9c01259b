package enums

// BackorderStatus tracks whether a recorded backorder is still open.
type BackorderStatus string

const (
	BackorderStatusOpen      BackorderStatus = "open"
	BackorderStatusFulfilled BackorderStatus = "fulfilled"
	BackorderStatusCancelled BackorderStatus = "cancelled"
)

// String implements fmt.Stringer.
func (b BackorderStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BackorderStatus.
func (b BackorderStatus) IsValid() bool {
	switch b {
	case BackorderStatusOpen, BackorderStatusFulfilled, BackorderStatusCancelled:
		return true
	default:
		return false
	}
}
