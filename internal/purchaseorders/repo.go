package purchaseorders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgaraycochea/tradeflow-backend/pkg/db/models"
	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
	"github.com/mgaraycochea/tradeflow-backend/pkg/pagination"
)

// ListFilter narrows purchase order listings. Query matches the PO number or
// a substring of the notes, case-insensitive.
type ListFilter struct {
	OrgID  uuid.UUID
	Status *enums.PurchaseOrderStatus
	Query  string
	Page   pagination.Params
}

// Repository persists purchase orders, their lines, and backorder records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PurchaseOrder) (*models.PurchaseOrder, error)
	CreateLines(ctx context.Context, lines []models.PurchaseOrderLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, filter ListFilter) ([]models.PurchaseOrder, error)
	NextPONumber(ctx context.Context) (int64, error)
	// TransitionStatus performs a compare-and-set on the order status and
	// reports whether a row was updated. Extra column updates ride along only
	// when the guard matches.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.PurchaseOrderStatus, extra map[string]any) (bool, error)
	FindLine(ctx context.Context, lineID uuid.UUID) (*models.PurchaseOrderLine, error)
	FindLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PurchaseOrderLine, error)
	UpdateLine(ctx context.Context, lineID uuid.UUID, updates map[string]any) error
	CreateBackorders(ctx context.Context, backorders []models.Backorder) error
	FindBackordersByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Backorder, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchase order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	if err := r.db.WithContext(ctx).Omit("Lines").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateLines(ctx context.Context, lines []models.PurchaseOrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.PurchaseOrder, error) {
	query := r.db.WithContext(ctx).
		Where("buyer_org_id = ? OR supplier_org_id = ?", filter.OrgID, filter.OrgID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"CAST(po_number AS TEXT) LIKE ? OR LOWER(COALESCE(notes, '')) LIKE ?",
			like, like,
		)
	}

	cursor, err := pagination.ParseCursor(filter.Page.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var orders []models.PurchaseOrder
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filter.Page.Limit)).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// NextPONumber allocates the next order number. Callers run this inside the
// creating transaction so concurrent allocations serialize on the unique index.
func (r *repository) NextPONumber(ctx context.Context) (int64, error) {
	var current *int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Select("MAX(po_number)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	if current == nil {
		return 1000, nil
	}
	return *current + 1, nil
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.PurchaseOrderStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for column, value := range extra {
		updates[column] = value
	}

	res := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindLine(ctx context.Context, lineID uuid.UUID) (*models.PurchaseOrderLine, error) {
	var line models.PurchaseOrderLine
	err := r.db.WithContext(ctx).
		Where("id = ?", lineID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) FindLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PurchaseOrderLine, error) {
	var lines []models.PurchaseOrderLine
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Order("line_no ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) UpdateLine(ctx context.Context, lineID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrderLine{}).
		Where("id = ?", lineID).
		Updates(updates).Error
}

func (r *repository) CreateBackorders(ctx context.Context, backorders []models.Backorder) error {
	if len(backorders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&backorders).Error
}

func (r *repository) FindBackordersByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Backorder, error) {
	var backorders []models.Backorder
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&backorders).Error
	if err != nil {
		return nil, err
	}
	return backorders, nil
}
