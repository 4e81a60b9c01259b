package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
)

// ApprovalHistoryEntry records an immutable audit event for a purchase order.
// Entries are appended in the same transaction as the state change they
// describe and are never updated or deleted.
type ApprovalHistoryEntry struct {
	ID                  uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID     uuid.UUID            `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	PurchaseOrderLineID *uuid.UUID           `gorm:"column:purchase_order_line_id;type:uuid"`
	Action              enums.ApprovalAction `gorm:"column:action;type:approval_action;not null"`
	ActorUserID         uuid.UUID            `gorm:"column:actor_user_id;type:uuid;not null"`
	ActorRole           string               `gorm:"column:actor_role;not null"`
	Comment             *string              `gorm:"column:comment"`
	Metadata            json.RawMessage      `gorm:"column:metadata;type:jsonb"`
	CreatedAt           time.Time            `gorm:"column:created_at;autoCreateTime"`
}
