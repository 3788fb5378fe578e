package cash

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qanzmarket/qanz-backend/internal/deliveries"
	"github.com/qanzmarket/qanz-backend/pkg/db/dbtest"
	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
)

type cashFixture struct {
	svc          Service
	repo         Repository
	deliveryRepo deliveries.Repository
	conn         *gorm.DB
}

func newCashFixture(t *testing.T) *cashFixture {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	deliveryRepo := deliveries.NewRepository(conn)
	svc, err := NewService(repo, deliveryRepo, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &cashFixture{svc: svc, repo: repo, deliveryRepo: deliveryRepo, conn: conn}
}

// seedDelivered stores a delivered delivery owned by driver and returns it
// with the order it belongs to.
func (f *cashFixture) seedDelivered(t *testing.T, driver uuid.UUID, total int64) (*models.Delivery, *models.Order) {
	t.Helper()
	ctx := context.Background()
	order := &models.Order{
		ID:         uuid.New(),
		BuyerID:    uuid.New(),
		SellerID:   uuid.New(),
		Status:     enums.OrderStatusDelivered,
		TotalCents: total,
	}
	now := time.Now().UTC()
	delivery := &models.Delivery{
		OrderID:     order.ID,
		DriverID:    &driver,
		Status:      enums.DeliveryStatusDelivered,
		DeliveredAt: &now,
	}
	if _, err := f.deliveryRepo.CreateForOrder(ctx, delivery); err != nil {
		t.Fatalf("seed delivery: %v", err)
	}
	return delivery, order
}

func TestOpenForDeliveryIsIdempotent(t *testing.T) {
	f := newCashFixture(t)
	ctx := context.Background()
	delivery, order := f.seedDelivered(t, uuid.New(), 4200)

	first, err := f.svc.OpenForDelivery(ctx, delivery, order)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if first.AmountExpectedCents != 4200 || first.Status != enums.CashCollectionStatusPending {
		t.Fatalf("unexpected record %+v", first)
	}

	second, err := f.svc.OpenForDelivery(ctx, delivery, order)
	if err != nil {
		t.Fatalf("repeat open: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat open created a second record: %s vs %s", second.ID, first.ID)
	}
}

func TestReportCollectedRecordsDiscrepancy(t *testing.T) {
	f := newCashFixture(t)
	ctx := context.Background()
	driver := uuid.New()
	delivery, order := f.seedDelivered(t, driver, 5000)

	collection, err := f.svc.OpenForDelivery(ctx, delivery, order)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	out, err := f.svc.ReportCollected(ctx, collection.ID, driver, 4800)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if out.DiscrepancyCents != -200 {
		t.Fatalf("expected discrepancy -200, got %d", out.DiscrepancyCents)
	}
	if out.Collection.Status != enums.CashCollectionStatusCollected {
		t.Fatalf("expected collected, got %s", out.Collection.Status)
	}
	if out.Collection.AmountCollectedCents == nil || *out.Collection.AmountCollectedCents != 4800 {
		t.Fatalf("collected amount not stored: %+v", out.Collection)
	}

	// The delivery mirrors the collected amount for driver-side views.
	reloaded, err := f.deliveryRepo.FindByID(ctx, delivery.ID)
	if err != nil {
		t.Fatalf("reload delivery: %v", err)
	}
	if reloaded.CashCollectedCents == nil || *reloaded.CashCollectedCents != 4800 {
		t.Fatalf("delivery cash amount not mirrored: %+v", reloaded)
	}

	// Reporting twice is an invalid transition, not an overwrite.
	_, err = f.svc.ReportCollected(ctx, collection.ID, driver, 5000)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestReportCollectedRejectsForeignDriver(t *testing.T) {
	f := newCashFixture(t)
	ctx := context.Background()
	delivery, order := f.seedDelivered(t, uuid.New(), 3000)

	collection, err := f.svc.OpenForDelivery(ctx, delivery, order)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	_, err = f.svc.ReportCollected(ctx, collection.ID, uuid.New(), 3000)
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	_, err = f.svc.ReportCollected(ctx, collection.ID, *delivery.DriverID, -1)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative amount, got %v", err)
	}
}

func TestConfirmRequiresCollectedState(t *testing.T) {
	f := newCashFixture(t)
	ctx := context.Background()
	driver := uuid.New()
	delivery, order := f.seedDelivered(t, driver, 2000)

	collection, err := f.svc.OpenForDelivery(ctx, delivery, order)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// Confirming before the driver reports skips a step.
	_, err = f.svc.Confirm(ctx, collection.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	if _, err := f.svc.ReportCollected(ctx, collection.ID, driver, 2000); err != nil {
		t.Fatalf("report: %v", err)
	}

	confirmed, err := f.svc.Confirm(ctx, collection.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != enums.CashCollectionStatusConfirmed || confirmed.ConfirmedAt == nil {
		t.Fatalf("not fully confirmed: %+v", confirmed)
	}

	_, err = f.svc.Confirm(ctx, collection.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition on double confirm, got %v", err)
	}

	_, err = f.svc.Confirm(ctx, uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListByStatus(t *testing.T) {
	f := newCashFixture(t)
	ctx := context.Background()
	driver := uuid.New()

	d1, o1 := f.seedDelivered(t, driver, 1000)
	d2, o2 := f.seedDelivered(t, driver, 2000)

	c1, err := f.svc.OpenForDelivery(ctx, d1, o1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.svc.OpenForDelivery(ctx, d2, o2); err != nil {
		t.Fatalf("open second: %v", err)
	}
	if _, err := f.svc.ReportCollected(ctx, c1.ID, driver, 1000); err != nil {
		t.Fatalf("report: %v", err)
	}

	pending, err := f.svc.ListByStatus(ctx, enums.CashCollectionStatusPending, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].OrderID != o2.ID {
		t.Fatalf("pending listing wrong: %+v", pending)
	}

	collected, err := f.svc.ListByStatus(ctx, enums.CashCollectionStatusCollected, 0)
	if err != nil {
		t.Fatalf("list collected: %v", err)
	}
	if len(collected) != 1 || collected[0].OrderID != o1.ID {
		t.Fatalf("collected listing wrong: %+v", collected)
	}

	if _, err := f.svc.ListByStatus(ctx, "weird", 0); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
