package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
)

// PurchaseOrder is a replenishment request from a buyer organization to a
// supplier, reviewed line by line before it turns into downstream sales orders.
// Totals are derived from the lines and never edited directly once lines exist.
type PurchaseOrder struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PONumber      int64                     `gorm:"column:po_number;not null;uniqueIndex"`
	BuyerOrgID    uuid.UUID                 `gorm:"column:buyer_org_id;type:uuid;not null"`
	SupplierOrgID uuid.UUID                 `gorm:"column:supplier_org_id;type:uuid;not null"`
	Status        enums.PurchaseOrderStatus `gorm:"column:status;type:purchase_order_status;not null;default:'draft'"`
	Currency      enums.Currency            `gorm:"column:currency;type:text;not null;default:'USD'"`
	Subtotal      decimal.Decimal           `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax           decimal.Decimal           `gorm:"column:tax;type:numeric(12,2);not null"`
	Shipping      decimal.Decimal           `gorm:"column:shipping;type:numeric(12,2);not null"`
	Total         decimal.Decimal           `gorm:"column:total;type:numeric(12,2);not null"`
	Notes         *string                   `gorm:"column:notes"`
	CancelReason  *string                   `gorm:"column:cancel_reason"`
	SubmittedAt   *time.Time                `gorm:"column:submitted_at"`
	ApprovedAt    *time.Time                `gorm:"column:approved_at"`
	OrderedAt     *time.Time                `gorm:"column:ordered_at"`
	ReceivedAt    *time.Time                `gorm:"column:received_at"`
	CancelledAt   *time.Time                `gorm:"column:cancelled_at"`
	Lines         []PurchaseOrderLine       `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
