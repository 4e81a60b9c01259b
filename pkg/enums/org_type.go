package enums

import "fmt"

// OrgType distinguishes the kinds of organizations on the platform.
type OrgType string

const (
	OrgTypeBrand        OrgType = "brand"
	OrgTypeDistributor  OrgType = "distributor"
	OrgTypeManufacturer OrgType = "manufacturer"
)

var validOrgTypes = []OrgType{
	OrgTypeBrand,
	OrgTypeDistributor,
	OrgTypeManufacturer,
}

// String implements fmt.Stringer.
func (o OrgType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrgType.
func (o OrgType) IsValid() bool {
	for _, candidate := range validOrgTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrgType converts raw input into an OrgType.
func ParseOrgType(value string) (OrgType, error) {
	for _, candidate := range validOrgTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid organization type %q", value)
}
