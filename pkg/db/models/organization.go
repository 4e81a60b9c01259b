package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
)

// Organization is a tenant on the platform: a brand, distributor, or
// manufacturer. Purchase orders are owned by the buyer organization.
type Organization struct {
	ID           uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type         enums.OrgType `gorm:"column:type;type:org_type;not null"`
	Name         string        `gorm:"column:name;not null"`
	ContactEmail *string       `gorm:"column:contact_email"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
