package salesorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgaraycochea/tradeflow-backend/pkg/db/models"
	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
)

// Repository persists sales orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.SalesOrder) (*models.SalesOrder, error)
	CreateLines(ctx context.Context, lines []models.SalesOrderLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SalesOrder, error)
	FindByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) (*models.SalesOrder, error)
	NextOrderNumber(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SalesOrderStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sales order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.SalesOrder) (*models.SalesOrder, error) {
	if err := r.db.WithContext(ctx).Omit("Lines").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateLines(ctx context.Context, lines []models.SalesOrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SalesOrder, error) {
	var order models.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) (*models.SalesOrder, error) {
	var order models.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("purchase_order_id = ?", purchaseOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// NextOrderNumber allocates the next sales order number. Callers run this
// inside the finalization transaction so concurrent allocations serialize on
// the unique index.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var current *int64
	err := r.db.WithContext(ctx).
		Model(&models.SalesOrder{}).
		Select("MAX(order_number)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	if current == nil {
		return 5000, nil
	}
	return *current + 1, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SalesOrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.SalesOrder{}).
		Where("id = ?", id).
		Update("status", status).Error
}
