package settlements

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qanzmarket/qanz-backend/pkg/db/dbtest"
	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
)

func testFees(t *testing.T, rate string, driverFee int64) Fees {
	t.Helper()
	parsed, err := decimal.NewFromString(rate)
	if err != nil {
		t.Fatalf("parse rate: %v", err)
	}
	return Fees{PlatformRate: parsed, DriverFeeCents: driverFee}
}

func TestComputeSplitSumsExactly(t *testing.T) {
	cases := []struct {
		name      string
		amount    int64
		rate      string
		driverFee int64
		platform  int64
		driver    int64
		seller    int64
	}{
		{"even split", 10000, "0.10", 500, 1000, 500, 8500},
		{"rounding remainder to seller", 3333, "0.10", 500, 333, 500, 2500},
		{"half cent rounds up", 2525, "0.10", 500, 253, 500, 1772},
		{"driver fee clamped", 600, "0.10", 500, 60, 500, 40},
		{"driver fee exceeds remainder", 400, "0.10", 500, 40, 360, 0},
		{"zero amount", 0, "0.10", 500, 0, 0, 0},
		{"full platform rate", 1000, "1", 500, 1000, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			split := ComputeSplit(tc.amount, testFees(t, tc.rate, tc.driverFee))
			if split.PlatformFeeCents != tc.platform {
				t.Fatalf("platform fee = %d, want %d", split.PlatformFeeCents, tc.platform)
			}
			if split.DriverFeeCents != tc.driver {
				t.Fatalf("driver fee = %d, want %d", split.DriverFeeCents, tc.driver)
			}
			if split.SellerAmountCents != tc.seller {
				t.Fatalf("seller amount = %d, want %d", split.SellerAmountCents, tc.seller)
			}
			if sum := split.PlatformFeeCents + split.DriverFeeCents + split.SellerAmountCents; sum != tc.amount {
				t.Fatalf("components sum to %d, want %d", sum, tc.amount)
			}
		})
	}
}

func newSettlementsService(t *testing.T) (Service, Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo, testFees(t, "0.10", 500), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func deliveredOrder(total int64) *models.Order {
	return &models.Order{
		ID:         uuid.New(),
		BuyerID:    uuid.New(),
		SellerID:   uuid.New(),
		Status:     enums.OrderStatusDelivered,
		TotalCents: total,
	}
}

func TestCreateForOrderIsIdempotent(t *testing.T) {
	svc, _ := newSettlementsService(t)
	ctx := context.Background()
	order := deliveredOrder(10000)
	driver := uuid.New()

	first, err := svc.CreateForOrder(ctx, order, driver)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.PlatformFeeCents != 1000 || first.DriverFeeCents != 500 || first.SellerAmountCents != 8500 {
		t.Fatalf("unexpected split %+v", first)
	}
	if first.Status != enums.SettlementStatusPending {
		t.Fatalf("expected pending, got %s", first.Status)
	}

	second, err := svc.CreateForOrder(ctx, order, uuid.New())
	if err != nil {
		t.Fatalf("repeat create: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat create produced a second settlement: %s vs %s", second.ID, first.ID)
	}
	if second.DriverID != driver {
		t.Fatal("repeat create must not overwrite the stored settlement")
	}
}

func TestMarkPaidOnce(t *testing.T) {
	svc, _ := newSettlementsService(t)
	ctx := context.Background()

	settlement, err := svc.CreateForOrder(ctx, deliveredOrder(5000), uuid.New())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	paid, err := svc.MarkPaid(ctx, settlement.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != enums.SettlementStatusPaid || paid.PaidAt == nil {
		t.Fatalf("settlement not fully paid: %+v", paid)
	}

	_, err = svc.MarkPaid(ctx, settlement.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeAlreadyPaid) {
		t.Fatalf("expected already-paid error, got %v", err)
	}

	_, err = svc.MarkPaid(ctx, uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestListsScopeByParty(t *testing.T) {
	svc, _ := newSettlementsService(t)
	ctx := context.Background()
	driver := uuid.New()

	order := deliveredOrder(2000)
	if _, err := svc.CreateForOrder(ctx, order, driver); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateForOrder(ctx, deliveredOrder(3000), uuid.New()); err != nil {
		t.Fatalf("create second: %v", err)
	}

	mine, err := svc.ListByDriver(ctx, driver, 0)
	if err != nil {
		t.Fatalf("list by driver: %v", err)
	}
	if len(mine) != 1 || mine[0].OrderID != order.ID {
		t.Fatalf("driver listing wrong: %+v", mine)
	}

	sellers, err := svc.ListBySeller(ctx, order.SellerID, 0)
	if err != nil {
		t.Fatalf("list by seller: %v", err)
	}
	if len(sellers) != 1 {
		t.Fatalf("seller listing wrong: %+v", sellers)
	}

	pending, err := svc.ListPending(ctx, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending settlements, got %d", len(pending))
	}
}
