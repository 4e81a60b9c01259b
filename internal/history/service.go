package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgaraycochea/tradeflow-backend/pkg/db/models"
	"github.com/mgaraycochea/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/mgaraycochea/tradeflow-backend/pkg/errors"
)

// Entry captures one auditable workflow action before persistence.
type Entry struct {
	PurchaseOrderID     uuid.UUID
	PurchaseOrderLineID *uuid.UUID
	Action              enums.ApprovalAction
	ActorUserID         uuid.UUID
	ActorRole           string
	Comment             *string
	Metadata            any
}

// Service is the append-only ledger for purchase order workflow actions.
// Append is designed to run inside the caller's transaction so the audit row
// commits or rolls back with the state change it describes.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.ApprovalHistoryEntry, error)
}

type service struct {
	repo Repository
}

// NewService builds the ledger service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("history repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Append(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.PurchaseOrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	if !entry.Action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid approval action")
	}
	if entry.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var metadata json.RawMessage
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode history metadata")
		}
		metadata = encoded
	}

	record := &models.ApprovalHistoryEntry{
		ID:                  uuid.New(),
		PurchaseOrderID:     entry.PurchaseOrderID,
		PurchaseOrderLineID: entry.PurchaseOrderLineID,
		Action:              entry.Action,
		ActorUserID:         entry.ActorUserID,
		ActorRole:           entry.ActorRole,
		Comment:             entry.Comment,
		Metadata:            metadata,
	}

	if err := s.repo.WithTx(tx).Create(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append history entry")
	}
	return nil
}

func (s *service) List(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.ApprovalHistoryEntry, error) {
	if purchaseOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	entries, err := s.repo.ListByPurchaseOrder(ctx, purchaseOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history entries")
	}
	return entries, nil
}
