package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderLine snapshots one approved purchase order line on a sales order.
type SalesOrderLine struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SalesOrderID        uuid.UUID       `gorm:"column:sales_order_id;type:uuid;not null"`
	PurchaseOrderLineID uuid.UUID       `gorm:"column:purchase_order_line_id;type:uuid;not null"`
	ProductID           uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	SKU                 string          `gorm:"column:sku;not null"`
	UnitPrice           decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Qty                 int             `gorm:"column:qty;not null"`
	Total               decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}
