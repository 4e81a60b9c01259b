package enums

// StockStatus classifies a line's requested quantity against the stock snapshot.
type StockStatus string

const (
	StockStatusSufficient   StockStatus = "sufficient"
	StockStatusPartial      StockStatus = "partial"
	StockStatusInsufficient StockStatus = "insufficient"
)

// String implements fmt.Stringer.
func (s StockStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockStatus.
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusSufficient, StockStatusPartial, StockStatusInsufficient:
		return true
	default:
		return false
	}
}
