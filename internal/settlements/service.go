package settlements

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
)

// Service computes and tracks the revenue split for delivered orders.
type Service interface {
	// CreateForOrder computes the split once per order; repeat calls
	// return the already-stored settlement unchanged.
	CreateForOrder(ctx context.Context, order *models.Order, driverID uuid.UUID) (*models.Settlement, error)
	Get(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Settlement, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Settlement, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]models.Settlement, error)
	ListPending(ctx context.Context, limit int) ([]models.Settlement, error)
	// MarkPaid records the payout. Paying twice is rejected, not repeated.
	MarkPaid(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error)
}

type service struct {
	repo     Repository
	fees     Fees
	notifier events.Notifier
}

// NewService wires the settlement engine with the configured fee policy.
func NewService(repo Repository, fees Fees, notifier events.Notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlements repository required")
	}
	if fees.PlatformRate.IsNegative() {
		return nil, fmt.Errorf("platform rate cannot be negative")
	}
	if notifier == nil {
		notifier = events.NewNoop()
	}
	return &service{repo: repo, fees: fees, notifier: notifier}, nil
}

func (s *service) CreateForOrder(ctx context.Context, order *models.Order, driverID uuid.UUID) (*models.Settlement, error) {
	if order == nil || order.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}

	split := ComputeSplit(order.TotalCents, s.fees)
	settlement := &models.Settlement{
		OrderID:           order.ID,
		SellerID:          order.SellerID,
		DriverID:          driverID,
		OrderAmountCents:  order.TotalCents,
		PlatformFeeCents:  split.PlatformFeeCents,
		DriverFeeCents:    split.DriverFeeCents,
		SellerAmountCents: split.SellerAmountCents,
		Status:            enums.SettlementStatusPending,
	}

	affected, err := s.repo.Create(ctx, settlement)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create settlement")
	}
	if affected == 0 {
		existing, err := s.repo.FindByOrderID(ctx, order.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing settlement")
		}
		return existing, nil
	}

	s.notifier.Changed(ctx, "settlements", settlement.ID, "created")
	return settlement, nil
}

func (s *service) Get(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error) {
	settlement, err := s.repo.FindByID(ctx, settlementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settlement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
	}
	return settlement, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Settlement, error) {
	settlement, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settlement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
	}
	return settlement, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Settlement, error) {
	list, err := s.repo.ListBySeller(ctx, sellerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller settlements")
	}
	return list, nil
}

func (s *service) ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]models.Settlement, error) {
	list, err := s.repo.ListByDriver(ctx, driverID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list driver settlements")
	}
	return list, nil
}

func (s *service) ListPending(ctx context.Context, limit int) ([]models.Settlement, error) {
	list, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending settlements")
	}
	return list, nil
}

func (s *service) MarkPaid(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error) {
	now := time.Now().UTC()
	affected, err := s.repo.MarkPaidIf(ctx, settlementID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark settlement paid")
	}
	if affected == 0 {
		settlement, err := s.repo.FindByID(ctx, settlementID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settlement not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
		}
		if settlement.Status == enums.SettlementStatusPaid {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyPaid, "settlement already paid")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "settlement state changed concurrently")
	}

	settlement, err := s.repo.FindByID(ctx, settlementID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload settlement")
	}
	s.notifier.Changed(ctx, "settlements", settlement.ID, "paid")
	return settlement, nil
}
