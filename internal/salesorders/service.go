package salesorders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgaraycochea/tradeflow-backend/pkg/db/models"
	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/mgaraycochea/tradeflow-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines sales order operations beyond repository reads.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.SalesOrder, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.SalesOrder, error)
}

// UpdateStatusInput carries the data required to advance a sales order.
type UpdateStatusInput struct {
	OrderID     uuid.UUID
	Target      enums.SalesOrderStatus
	ActorUserID uuid.UUID
	ActorOrgID  uuid.UUID
	ActorRole   string
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a sales order service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.SalesOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sales order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sales order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales order")
	}
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.SalesOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sales order id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sales order status")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ActorOrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}

	var updated *models.SalesOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sales order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales order")
		}
		if order.SupplierOrgID != input.ActorOrgID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "sales order does not belong to organization")
		}
		if order.Status == input.Target {
			updated = order
			return nil
		}
		if !IsValidStatusTransition(order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sales order status transition disallowed").
				WithDetails(map[string]any{
					"from": order.Status,
					"to":   input.Target,
				})
		}

		if err := repo.UpdateStatus(ctx, order.ID, input.Target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sales order status")
		}

		order.Status = input.Target
		if input.Target == enums.SalesOrderStatusCancelled {
			now := time.Now().UTC()
			order.CancelledAt = &now
			if err := tx.WithContext(ctx).
				Model(&models.SalesOrder{}).
				Where("id = ?", order.ID).
				Update("cancelled_at", now).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp cancellation time")
			}
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
