package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
)

// Backorder records the portion of a requested quantity that could not be
// fulfilled at finalization time and is held for later fulfillment.
type Backorder struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID     uuid.UUID             `gorm:"column:purchase_order_id;type:uuid;not null"`
	PurchaseOrderLineID uuid.UUID             `gorm:"column:purchase_order_line_id;type:uuid;not null"`
	ProductID           uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	SKU                 string                `gorm:"column:sku;not null"`
	Qty                 int                   `gorm:"column:qty;not null"`
	Status              enums.BackorderStatus `gorm:"column:status;type:backorder_status;not null;default:'open'"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
