package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qanzmarket/qanz-backend/internal/products"
	"github.com/qanzmarket/qanz-backend/pkg/db"
	"github.com/qanzmarket/qanz-backend/pkg/db/dbtest"
	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
)

type fakeDeliveryCreator struct {
	created []uuid.UUID
	fail    bool
}

func (f *fakeDeliveryCreator) CreateForOrder(_ context.Context, order *models.Order) error {
	if f.fail {
		return fmt.Errorf("delivery backend down")
	}
	f.created = append(f.created, order.ID)
	return nil
}

type ordersFixture struct {
	svc         Service
	repo        Repository
	productRepo products.Repository
	deliveries  *fakeDeliveryCreator
	conn        *gorm.DB
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	productRepo := products.NewRepository(conn)
	deliveries := &fakeDeliveryCreator{}
	svc, err := NewService(repo, productRepo, db.FromGorm(conn), deliveries, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &ordersFixture{svc: svc, repo: repo, productRepo: productRepo, deliveries: deliveries, conn: conn}
}

func (f *ordersFixture) seedProduct(t *testing.T, sellerID uuid.UUID, name string, price int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{SellerID: sellerID, Name: name, PriceCents: price, StockQty: stock, Active: true}
	if err := f.productRepo.Create(context.Background(), product); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestCreateSnapshotsPricesAndDecrementsStock(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	seller := uuid.New()
	buyer := uuid.New()

	rice := f.seedProduct(t, seller, "Rice", 1000, 10)
	oil := f.seedProduct(t, seller, "Oil", 1750, 5)

	order, err := f.svc.Create(ctx, buyer, CreateInput{
		Items: []ItemInput{
			{ProductID: rice.ID, Quantity: 2},
			{ProductID: oil.ID, Quantity: 1},
		},
		DeliveryAddress: "12 Harbor Rd",
		DeliveryPhone:   "+15550100",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.TotalCents != 3750 {
		t.Fatalf("expected total 3750, got %d", order.TotalCents)
	}
	if order.Status != enums.OrderStatusPlaced {
		t.Fatalf("expected placed status, got %s", order.Status)
	}
	if order.SellerID != seller {
		t.Fatalf("seller not derived from items")
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 item snapshots, got %d", len(order.Items))
	}

	// Raising the catalog price later must not change the placed order.
	rice.PriceCents = 9999
	if err := f.productRepo.Update(ctx, rice); err != nil {
		t.Fatalf("update product: %v", err)
	}
	reloaded, err := f.repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.TotalCents != 3750 {
		t.Fatalf("total drifted after catalog edit: %d", reloaded.TotalCents)
	}
	for _, item := range reloaded.Items {
		if item.ProductID == rice.ID && item.UnitPriceCents != 1000 {
			t.Fatalf("item snapshot drifted: %d", item.UnitPriceCents)
		}
	}

	stocked, err := f.productRepo.FindByID(ctx, rice.ID)
	if err != nil {
		t.Fatalf("find product: %v", err)
	}
	if stocked.StockQty != 8 {
		t.Fatalf("expected stock 8 after ordering 2, got %d", stocked.StockQty)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	sellerA := uuid.New()
	sellerB := uuid.New()
	buyer := uuid.New()

	a := f.seedProduct(t, sellerA, "A", 100, 10)
	b := f.seedProduct(t, sellerB, "B", 100, 10)
	low := f.seedProduct(t, sellerA, "Low", 100, 1)

	inactive := f.seedProduct(t, sellerA, "Off", 100, 10)
	inactive.Active = false
	if err := f.productRepo.Update(ctx, inactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	base := CreateInput{DeliveryAddress: "addr", DeliveryPhone: "phone"}

	cases := []struct {
		name  string
		items []ItemInput
	}{
		{"empty cart", nil},
		{"zero quantity", []ItemInput{{ProductID: a.ID, Quantity: 0}}},
		{"duplicate product", []ItemInput{{ProductID: a.ID, Quantity: 1}, {ProductID: a.ID, Quantity: 1}}},
		{"mixed sellers", []ItemInput{{ProductID: a.ID, Quantity: 1}, {ProductID: b.ID, Quantity: 1}}},
		{"unknown product", []ItemInput{{ProductID: uuid.New(), Quantity: 1}}},
		{"inactive product", []ItemInput{{ProductID: inactive.ID, Quantity: 1}}},
		{"insufficient stock", []ItemInput{{ProductID: low.ID, Quantity: 3}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			input.Items = tc.items
			if _, err := f.svc.Create(ctx, buyer, input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSellerDrivesOrderToReadyForPickup(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	seller := uuid.New()
	buyer := uuid.New()

	product := f.seedProduct(t, seller, "Bread", 200, 10)
	order, err := f.svc.Create(ctx, buyer, CreateInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryAddress: "addr",
		DeliveryPhone:   "phone",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, target := range []enums.OrderStatus{
		enums.OrderStatusAccepted,
		enums.OrderStatusPreparing,
		enums.OrderStatusReadyForPickup,
	} {
		order, err = f.svc.AdvanceStatus(ctx, order.ID, target, seller, enums.UserRoleSeller)
		if err != nil {
			t.Fatalf("advance to %s: %v", target, err)
		}
		if order.Status != target {
			t.Fatalf("expected %s, got %s", target, order.Status)
		}
	}

	if len(f.deliveries.created) != 1 || f.deliveries.created[0] != order.ID {
		t.Fatalf("ready_for_pickup should open exactly one delivery, got %v", f.deliveries.created)
	}
}

func TestAdvanceStatusRejectsSkippedSteps(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	seller := uuid.New()
	buyer := uuid.New()

	product := f.seedProduct(t, seller, "Tea", 300, 5)
	order, err := f.svc.Create(ctx, buyer, CreateInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryAddress: "addr",
		DeliveryPhone:   "phone",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// placed -> delivered skips the whole pipeline, even for admins.
	_, err = f.svc.AdvanceStatus(ctx, order.ID, enums.OrderStatusDelivered, uuid.New(), enums.UserRoleAdmin)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	// Sellers may never target delivered.
	_, err = f.svc.AdvanceStatus(ctx, order.ID, enums.OrderStatusDelivered, seller, enums.UserRoleSeller)
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// Another seller may not touch the order at all.
	_, err = f.svc.AdvanceStatus(ctx, order.ID, enums.OrderStatusAccepted, uuid.New(), enums.UserRoleSeller)
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for foreign seller, got %v", err)
	}
}

func TestBuyerMayCancelOnlyWhilePlaced(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	seller := uuid.New()
	buyer := uuid.New()

	product := f.seedProduct(t, seller, "Milk", 150, 5)
	order, err := f.svc.Create(ctx, buyer, CreateInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryAddress: "addr",
		DeliveryPhone:   "phone",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled, err := f.svc.AdvanceStatus(ctx, order.ID, enums.OrderStatusCancelled, buyer, enums.UserRoleBuyer)
	if err != nil {
		t.Fatalf("buyer cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// Terminal orders cannot move again.
	_, err = f.svc.AdvanceStatus(ctx, order.ID, enums.OrderStatusAccepted, seller, enums.UserRoleSeller)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition from cancelled, got %v", err)
	}

	second, err := f.svc.Create(ctx, buyer, CreateInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryAddress: "addr",
		DeliveryPhone:   "phone",
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := f.svc.AdvanceStatus(ctx, second.ID, enums.OrderStatusAccepted, seller, enums.UserRoleSeller); err != nil {
		t.Fatalf("accept: %v", err)
	}
	_, err = f.svc.AdvanceStatus(ctx, second.ID, enums.OrderStatusCancelled, buyer, enums.UserRoleBuyer)
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden once accepted, got %v", err)
	}
}

func TestStaleCompareAndSetLosesQuietly(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	seller := uuid.New()
	buyer := uuid.New()

	product := f.seedProduct(t, seller, "Sugar", 120, 5)
	order, err := f.svc.Create(ctx, buyer, CreateInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryAddress: "addr",
		DeliveryPhone:   "phone",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	affected, err := f.repo.UpdateStatusIf(ctx, order.ID, enums.OrderStatusPlaced, enums.OrderStatusAccepted)
	if err != nil || affected != 1 {
		t.Fatalf("first transition: affected=%d err=%v", affected, err)
	}
	affected, err = f.repo.UpdateStatusIf(ctx, order.ID, enums.OrderStatusPlaced, enums.OrderStatusAccepted)
	if err != nil {
		t.Fatalf("stale transition errored: %v", err)
	}
	if affected != 0 {
		t.Fatalf("stale transition should touch zero rows, got %d", affected)
	}
}

func TestDeliveryCreationFailureDoesNotBlockOrder(t *testing.T) {
	f := newOrdersFixture(t)
	f.deliveries.fail = true
	ctx := context.Background()
	seller := uuid.New()
	buyer := uuid.New()

	product := f.seedProduct(t, seller, "Flour", 400, 5)
	order, err := f.svc.Create(ctx, buyer, CreateInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryAddress: "addr",
		DeliveryPhone:   "phone",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, target := range []enums.OrderStatus{
		enums.OrderStatusAccepted,
		enums.OrderStatusPreparing,
		enums.OrderStatusReadyForPickup,
	} {
		if order, err = f.svc.AdvanceStatus(ctx, order.ID, target, seller, enums.UserRoleSeller); err != nil {
			t.Fatalf("advance to %s: %v", target, err)
		}
	}
	if order.Status != enums.OrderStatusReadyForPickup {
		t.Fatalf("order should reach ready_for_pickup despite delivery failure, got %s", order.Status)
	}
}
