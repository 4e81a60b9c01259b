package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
)

// PurchaseOrderLine is one SKU/quantity request within a purchase order.
// RequestedQty is immutable once the parent order is submitted; the three
// allocation quantities must sum to it for every decided line.
type PurchaseOrderLine struct {
	ID              uuid.UUID                     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID uuid.UUID                     `gorm:"column:purchase_order_id;type:uuid;not null"`
	LineNo          int                           `gorm:"column:line_no;not null"`
	ProductID       uuid.UUID                     `gorm:"column:product_id;type:uuid;not null"`
	SKU             string                        `gorm:"column:sku;not null"`
	UnitPrice       decimal.Decimal               `gorm:"column:unit_price;type:numeric(12,2);not null"`
	RequestedQty    int                           `gorm:"column:requested_qty;not null"`
	ApprovedQty     int                           `gorm:"column:approved_qty;not null;default:0"`
	BackorderQty    int                           `gorm:"column:backorder_qty;not null;default:0"`
	RejectedQty     int                           `gorm:"column:rejected_qty;not null;default:0"`
	Status          enums.PurchaseOrderLineStatus `gorm:"column:status;type:purchase_order_line_status;not null;default:'pending'"`
	OverrideApplied bool                          `gorm:"column:override_applied;not null;default:false"`
	OverrideReason  *string                       `gorm:"column:override_reason"`
	Notes           *string                       `gorm:"column:notes"`
	CreatedAt       time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                     `gorm:"column:updated_at;autoUpdateTime"`
}
