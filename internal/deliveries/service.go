package deliveries

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

// OrderStore is the slice of the orders repository the delivery pipeline
// needs: loading the order behind a delivery and mirroring its status.
type OrderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error)
}

// SettlementOpener computes and stores the revenue split once a delivery
// completes.
type SettlementOpener interface {
	CreateForOrder(ctx context.Context, order *models.Order, driverID uuid.UUID) (*models.Settlement, error)
}

// CashOpener opens the cash reconciliation record for a completed
// delivery.
type CashOpener interface {
	OpenForDelivery(ctx context.Context, delivery *models.Delivery, order *models.Order) (*models.CashCollection, error)
}

// RewardIssuer grants QANZ rewards keyed by rule.
type RewardIssuer interface {
	IssueIfEligible(ctx context.Context, ruleKey string, userID uuid.UUID, referenceType string, referenceID uuid.UUID) (bool, error)
}

// Rule keys fired when a delivery completes.
const (
	rewardOrderDelivered    = "order_delivered"
	rewardDeliveryCompleted = "delivery_completed"
)

// Service owns the delivery job lifecycle: one job per order, claimed by
// exactly one driver, advancing linearly to delivered.
type Service interface {
	CreateForOrder(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error)
	ListAvailable(ctx context.Context, limit int) ([]models.Delivery, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]models.Delivery, error)
	// Claim assigns the delivery to the calling driver. Of N concurrent
	// claims exactly one succeeds; the rest see an already-claimed error.
	Claim(ctx context.Context, deliveryID, driverID uuid.UUID) (*models.Delivery, error)
	Advance(ctx context.Context, deliveryID, driverID uuid.UUID, target enums.DeliveryStatus) (*models.Delivery, error)
}

type service struct {
	repo        Repository
	orders      OrderStore
	settlements SettlementOpener
	cash        CashOpener
	rewards     RewardIssuer
	notifier    events.Notifier
	logg        *logger.Logger
}

// NewService wires the delivery service. settlements, cash and rewards
// are optional completion collaborators; nil disables the hook.
func NewService(repo Repository, orders OrderStore, settlements SettlementOpener, cash CashOpener, rewards RewardIssuer, notifier events.Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if notifier == nil {
		notifier = events.NewNoop()
	}
	return &service{
		repo:        repo,
		orders:      orders,
		settlements: settlements,
		cash:        cash,
		rewards:     rewards,
		notifier:    notifier,
		logg:        logg,
	}, nil
}

// CreateForOrder opens the delivery job for an order that just became
// ready for pickup. Calling it twice for the same order is a no-op.
func (s *service) CreateForOrder(ctx context.Context, order *models.Order) error {
	if order == nil || order.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	delivery := &models.Delivery{
		OrderID: order.ID,
		Status:  enums.DeliveryStatusAvailable,
	}
	affected, err := s.repo.CreateForOrder(ctx, delivery)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery")
	}
	if affected > 0 {
		s.notifier.Changed(ctx, "deliveries", delivery.ID, "created")
	}
	return nil
}

func (s *service) Get(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error) {
	return s.findDelivery(ctx, deliveryID)
}

func (s *service) ListAvailable(ctx context.Context, limit int) ([]models.Delivery, error) {
	list, err := s.repo.ListAvailable(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available deliveries")
	}
	return list, nil
}

func (s *service) ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]models.Delivery, error) {
	list, err := s.repo.ListByDriver(ctx, driverID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list driver deliveries")
	}
	return list, nil
}

func (s *service) Claim(ctx context.Context, deliveryID, driverID uuid.UUID) (*models.Delivery, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "driver identity missing")
	}

	now := time.Now().UTC()
	affected, err := s.repo.Claim(ctx, deliveryID, driverID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim delivery")
	}
	if affected == 0 {
		if _, err := s.findDelivery(ctx, deliveryID); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "delivery no longer available")
	}

	delivery, err := s.findDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	s.mirrorOrder(ctx, delivery.OrderID, enums.OrderStatusReadyForPickup, enums.OrderStatusAssigned)
	s.notifier.Changed(ctx, "deliveries", delivery.ID, "claimed")
	return delivery, nil
}

func (s *service) Advance(ctx context.Context, deliveryID, driverID uuid.UUID, target enums.DeliveryStatus) (*models.Delivery, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid delivery status %q", target))
	}

	delivery, err := s.findDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery.DriverID == nil || *delivery.DriverID != driverID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "delivery belongs to another driver")
	}
	if !delivery.Status.CanTransition(target) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move delivery from %s to %s", delivery.Status, target))
	}

	now := time.Now().UTC()
	affected, err := s.repo.UpdateStatusIf(ctx, deliveryID, driverID, delivery.Status, target, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "delivery status changed concurrently")
	}

	delivery, err = s.findDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	switch target {
	case enums.DeliveryStatusPickedUp:
		s.mirrorOrder(ctx, delivery.OrderID, enums.OrderStatusAssigned, enums.OrderStatusPickedUp)
	case enums.DeliveryStatusDelivered:
		s.mirrorOrder(ctx, delivery.OrderID, enums.OrderStatusPickedUp, enums.OrderStatusDelivered)
		s.completeDelivery(ctx, delivery)
	}

	s.notifier.Changed(ctx, "deliveries", delivery.ID, string(target))
	return delivery, nil
}

// mirrorOrder keeps the buyer-facing order status in step with the
// delivery. Best effort: a lost race here means the order already moved.
func (s *service) mirrorOrder(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) {
	affected, err := s.orders.UpdateStatusIf(ctx, orderID, from, to)
	if err != nil || affected == 0 {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "deliveries.order_mirror_skipped")
		}
	}
}

// completeDelivery fans out the post-delivery side effects: settlement,
// cash reconciliation and rewards. Each is best-effort and idempotent,
// so support tooling can re-trigger any that failed.
func (s *service) completeDelivery(ctx context.Context, delivery *models.Delivery) {
	order, err := s.orders.FindByID(ctx, delivery.OrderID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, delivery.OrderID.String()), "deliveries.completion_order_load_failed")
		}
		return
	}

	if s.settlements != nil {
		if _, err := s.settlements.CreateForOrder(ctx, order, *delivery.DriverID); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "deliveries.settlement_create_failed")
		}
	}
	if s.cash != nil {
		if _, err := s.cash.OpenForDelivery(ctx, delivery, order); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "deliveries.cash_open_failed")
		}
	}
	if s.rewards != nil {
		if _, err := s.rewards.IssueIfEligible(ctx, rewardOrderDelivered, order.BuyerID, "order", order.ID); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "deliveries.buyer_reward_failed")
		}
		if _, err := s.rewards.IssueIfEligible(ctx, rewardDeliveryCompleted, *delivery.DriverID, "delivery", delivery.ID); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "deliveries.driver_reward_failed")
		}
	}
}

func (s *service) findDelivery(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error) {
	delivery, err := s.repo.FindByID(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	return delivery, nil
}
