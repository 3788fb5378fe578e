package cash

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qanzmarket/qanz-backend/internal/events"
	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
)

// DeliveryStore is the slice of the deliveries repository reconciliation
// needs: resolving ownership and mirroring the collected amount.
type DeliveryStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	SetCashCollected(ctx context.Context, id uuid.UUID, amountCents int64) error
}

// Service tracks physical cash from driver hand-off to back-office
// confirmation. Reconciliation never touches the wallet ledger.
type Service interface {
	// OpenForDelivery creates the pending record when a delivery
	// completes; repeat calls return the stored record unchanged.
	OpenForDelivery(ctx context.Context, delivery *models.Delivery, order *models.Order) (*models.CashCollection, error)
	Get(ctx context.Context, collectionID uuid.UUID) (*models.CashCollection, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.CashCollection, error)
	ListByStatus(ctx context.Context, status enums.CashCollectionStatus, limit int) ([]models.CashCollection, error)
	// ReportCollected records the amount the assigned driver actually
	// received. A mismatch against the expected amount is stored as-is
	// and flagged in the response; the transition still happens.
	ReportCollected(ctx context.Context, collectionID, driverID uuid.UUID, amountCents int64) (*ReportOutput, error)
	// Confirm closes the loop once the back office counts the cash.
	Confirm(ctx context.Context, collectionID uuid.UUID) (*models.CashCollection, error)
}

// ReportOutput carries the updated record plus the discrepancy, positive
// when the driver collected more than expected.
type ReportOutput struct {
	Collection       models.CashCollection `json:"collection"`
	DiscrepancyCents int64                 `json:"discrepancy_cents"`
}

type service struct {
	repo       Repository
	deliveries DeliveryStore
	notifier   events.Notifier
	logg       *logger.Logger
}

// NewService wires the cash reconciliation service.
func NewService(repo Repository, deliveries DeliveryStore, notifier events.Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cash repository required")
	}
	if deliveries == nil {
		return nil, fmt.Errorf("delivery store required")
	}
	if notifier == nil {
		notifier = events.NewNoop()
	}
	return &service{repo: repo, deliveries: deliveries, notifier: notifier, logg: logg}, nil
}

func (s *service) OpenForDelivery(ctx context.Context, delivery *models.Delivery, order *models.Order) (*models.CashCollection, error) {
	if delivery == nil || delivery.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery required")
	}
	if order == nil || order.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	collection := &models.CashCollection{
		OrderID:             order.ID,
		DeliveryID:          delivery.ID,
		AmountExpectedCents: order.TotalCents,
		Status:              enums.CashCollectionStatusPending,
	}
	affected, err := s.repo.Create(ctx, collection)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cash collection")
	}
	if affected == 0 {
		existing, err := s.repo.FindByOrderID(ctx, order.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing cash collection")
		}
		return existing, nil
	}

	s.notifier.Changed(ctx, "cash_collections", collection.ID, "opened")
	return collection, nil
}

func (s *service) Get(ctx context.Context, collectionID uuid.UUID) (*models.CashCollection, error) {
	return s.findCollection(ctx, collectionID)
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.CashCollection, error) {
	collection, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cash collection not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cash collection")
	}
	return collection, nil
}

func (s *service) ListByStatus(ctx context.Context, status enums.CashCollectionStatus, limit int) ([]models.CashCollection, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid cash collection status %q", status))
	}
	list, err := s.repo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cash collections")
	}
	return list, nil
}

func (s *service) ReportCollected(ctx context.Context, collectionID, driverID uuid.UUID, amountCents int64) (*ReportOutput, error) {
	if amountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collected amount cannot be negative")
	}

	collection, err := s.findCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	delivery, err := s.deliveries.FindByID(ctx, collection.DeliveryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	if delivery.DriverID == nil || *delivery.DriverID != driverID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "delivery belongs to another driver")
	}

	affected, err := s.repo.MarkCollectedIf(ctx, collectionID, amountCents)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark collected")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("cash collection is %s, not pending", collection.Status))
	}

	if err := s.deliveries.SetCashCollected(ctx, delivery.ID, amountCents); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, collection.OrderID.String()), "cash.delivery_amount_mirror_failed")
	}

	collection, err = s.findCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	discrepancy := amountCents - collection.AmountExpectedCents
	if discrepancy != 0 && s.logg != nil {
		ctx := s.logg.WithFields(ctx, map[string]any{
			"order_id":          collection.OrderID.String(),
			"expected_cents":    collection.AmountExpectedCents,
			"collected_cents":   amountCents,
			"discrepancy_cents": discrepancy,
		})
		s.logg.Warn(ctx, "cash.discrepancy_reported")
	}

	s.notifier.Changed(ctx, "cash_collections", collection.ID, "collected")
	return &ReportOutput{Collection: *collection, DiscrepancyCents: discrepancy}, nil
}

func (s *service) Confirm(ctx context.Context, collectionID uuid.UUID) (*models.CashCollection, error) {
	now := time.Now().UTC()
	affected, err := s.repo.MarkConfirmedIf(ctx, collectionID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark confirmed")
	}
	if affected == 0 {
		collection, err := s.findCollection(ctx, collectionID)
		if err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("cash collection is %s, not collected", collection.Status))
	}

	collection, err := s.findCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	s.notifier.Changed(ctx, "cash_collections", collection.ID, "confirmed")
	return collection, nil
}

func (s *service) findCollection(ctx context.Context, collectionID uuid.UUID) (*models.CashCollection, error) {
	collection, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cash collection not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cash collection")
	}
	return collection, nil
}
