package history

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgaraycochea/tradeflow-backend/pkg/db/models"
)

// Repository persists and reads approval history entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.ApprovalHistoryEntry) error
	// ListByPurchaseOrder returns the order's entries newest first.
	ListByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.ApprovalHistoryEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a history repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.ApprovalHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.ApprovalHistoryEntry, error) {
	var entries []models.ApprovalHistoryEntry
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", purchaseOrderID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
