package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qanzmarket/qanz-backend/internal/events"
	"github.com/qanzmarket/qanz-backend/internal/products"
	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DeliveryCreator opens the delivery job once an order is ready for
// pickup. Implemented by the deliveries service; wired in main.
type DeliveryCreator interface {
	CreateForOrder(ctx context.Context, order *models.Order) error
}

// Service owns the order lifecycle from placement to hand-off.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Order, error)
	// AdvanceStatus moves an order along its lifecycle on behalf of the
	// acting user. The transition itself is a compare-and-set on the
	// status the caller observed.
	AdvanceStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID uuid.UUID, role enums.UserRole) (*models.Order, error)
}

// CreateInput is a buyer's cart at checkout.
type CreateInput struct {
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress string      `json:"delivery_address" validate:"required"`
	DeliveryPhone   string      `json:"delivery_phone" validate:"required"`
	DeliveryNotes   *string     `json:"delivery_notes"`
}

// ItemInput references a catalog product and a quantity.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type service struct {
	repo        Repository
	productRepo products.Repository
	tx          txRunner
	deliveries  DeliveryCreator
	notifier    events.Notifier
	logg        *logger.Logger
}

// NewService wires the order service. deliveries may be nil until the
// delivery module is attached.
func NewService(repo Repository, productRepo products.Repository, tx txRunner, deliveries DeliveryCreator, notifier events.Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		notifier = events.NewNoop()
	}
	return &service{
		repo:        repo,
		productRepo: productRepo,
		tx:          tx,
		deliveries:  deliveries,
		notifier:    notifier,
		logg:        logg,
	}, nil
}

// Create snapshots the cart against the catalog: item names, unit prices
// and line totals are copied onto the order so later catalog edits never
// change what was sold. All lines must belong to a single seller.
func (s *service) Create(ctx context.Context, buyerID uuid.UUID, input CreateInput) (*models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if input.DeliveryAddress == "" || input.DeliveryPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address and phone are required")
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	seen := make(map[uuid.UUID]bool, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if seen[item.ProductID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in cart")
		}
		seen[item.ProductID] = true
		ids = append(ids, item.ProductID)
	}

	catalog, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	var sellerID uuid.UUID
	items := make([]models.OrderItem, 0, len(input.Items))
	total := int64(0)
	for _, line := range input.Items {
		product, ok := byID[line.ProductID]
		if !ok || !product.Active {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is not available", line.ProductID))
		}
		if product.StockQty < line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("insufficient stock for %s", product.Name))
		}
		if sellerID == uuid.Nil {
			sellerID = product.SellerID
		} else if sellerID != product.SellerID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "all items must belong to a single seller")
		}
		lineTotal := product.PriceCents * int64(line.Quantity)
		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: lineTotal,
		})
		total += lineTotal
	}

	order := &models.Order{
		BuyerID:         buyerID,
		SellerID:        sellerID,
		Status:          enums.OrderStatusPlaced,
		TotalCents:      total,
		DeliveryAddress: input.DeliveryAddress,
		DeliveryPhone:   input.DeliveryPhone,
		DeliveryNotes:   input.DeliveryNotes,
		PaymentMethod:   "cash_on_delivery",
		Items:           items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for _, line := range input.Items {
			if err := productRepo.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Changed(ctx, "orders", order.ID, "created")
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !mayView(order, actorID, role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
	}
	return order, nil
}

func (s *service) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.Order, error) {
	list, err := s.repo.ListByBuyer(ctx, buyerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return list, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Order, error) {
	list, err := s.repo.ListBySeller(ctx, sellerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller orders")
	}
	return list, nil
}

func (s *service) AdvanceStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID uuid.UUID, role enums.UserRole) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", target))
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch role {
	case enums.UserRoleSeller:
		if order.SellerID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another seller")
		}
		if !target.SellerMayTarget() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("sellers cannot move orders to %s", target))
		}
	case enums.UserRoleBuyer:
		if order.BuyerID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
		}
		if target != enums.OrderStatusCancelled || order.Status != enums.OrderStatusPlaced {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "buyers may only cancel orders that are still placed")
		}
	case enums.UserRoleAdmin:
		// admins may drive any legal transition
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot change order status")
	}

	if !order.Status.CanTransition(target) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	affected, err := s.repo.UpdateStatusIf(ctx, order.ID, order.Status, target)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status changed concurrently")
	}
	order.Status = target

	if target == enums.OrderStatusReadyForPickup && s.deliveries != nil {
		// Best effort: a failed delivery creation is logged, never rolled
		// back, and can be retried by support tooling.
		if err := s.deliveries.CreateForOrder(ctx, order); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "orders.delivery_create_failed")
		}
	}

	s.notifier.Changed(ctx, "orders", order.ID, string(target))
	return order, nil
}

func (s *service) findOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func mayView(order *models.Order, actorID uuid.UUID, role enums.UserRole) bool {
	switch role {
	case enums.UserRoleAdmin, enums.UserRoleDriver:
		return true
	case enums.UserRoleBuyer:
		return order.BuyerID == actorID
	case enums.UserRoleSeller:
		return order.SellerID == actorID
	}
	return false
}
