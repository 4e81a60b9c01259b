package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
)

// SalesOrder is the downstream order spawned from a finalized purchase order,
// carrying the approved quantities at their original unit prices.
type SalesOrder struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     int64                  `gorm:"column:order_number;not null;uniqueIndex"`
	PurchaseOrderID uuid.UUID              `gorm:"column:purchase_order_id;type:uuid;not null"`
	BuyerOrgID      uuid.UUID              `gorm:"column:buyer_org_id;type:uuid;not null"`
	SupplierOrgID   uuid.UUID              `gorm:"column:supplier_org_id;type:uuid;not null"`
	Status          enums.SalesOrderStatus `gorm:"column:status;type:sales_order_status;not null;default:'pending'"`
	Currency        enums.Currency         `gorm:"column:currency;type:text;not null;default:'USD'"`
	Subtotal        decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax             decimal.Decimal        `gorm:"column:tax;type:numeric(12,2);not null"`
	Shipping        decimal.Decimal        `gorm:"column:shipping;type:numeric(12,2);not null"`
	Total           decimal.Decimal        `gorm:"column:total;type:numeric(12,2);not null"`
	Lines           []SalesOrderLine       `gorm:"foreignKey:SalesOrderID;constraint:OnDelete:CASCADE"`
	CancelledAt     *time.Time             `gorm:"column:cancelled_at"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
