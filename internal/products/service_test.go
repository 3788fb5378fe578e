package products

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/pkg/db/dbtest"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
)

func newProductsService(t *testing.T) (Service, Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestCreateAndGetProduct(t *testing.T) {
	svc, _ := newProductsService(t)
	ctx := context.Background()
	seller := uuid.New()

	created, err := svc.Create(ctx, seller, UpsertInput{Name: "Basmati Rice 5kg", PriceCents: 1250, StockQty: 40})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Active {
		t.Fatal("new products default to active")
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PriceCents != 1250 || got.StockQty != 40 {
		t.Fatalf("unexpected product %+v", got)
	}
}

func TestUpdateRejectsForeignSeller(t *testing.T) {
	svc, _ := newProductsService(t)
	ctx := context.Background()
	owner := uuid.New()

	product, err := svc.Create(ctx, owner, UpsertInput{Name: "Olive Oil", PriceCents: 900, StockQty: 10})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(ctx, uuid.New(), product.ID, UpsertInput{Name: "Olive Oil", PriceCents: 1, StockQty: 10})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}

	updated, err := svc.Update(ctx, owner, product.ID, UpsertInput{Name: "Olive Oil 1L", PriceCents: 950, StockQty: 8})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Name != "Olive Oil 1L" || updated.PriceCents != 950 {
		t.Fatalf("unexpected update result %+v", updated)
	}
}

func TestDecrementStockFloorsAtZero(t *testing.T) {
	svc, repo := newProductsService(t)
	ctx := context.Background()
	seller := uuid.New()

	product, err := svc.Create(ctx, seller, UpsertInput{Name: "Eggs", PriceCents: 300, StockQty: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.DecrementStock(ctx, product.ID, 2); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	got, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.StockQty != 1 {
		t.Fatalf("expected stock 1, got %d", got.StockQty)
	}

	// Overselling clamps to zero instead of going negative.
	if err := repo.DecrementStock(ctx, product.ID, 5); err != nil {
		t.Fatalf("decrement past zero: %v", err)
	}
	got, err = repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.StockQty != 0 {
		t.Fatalf("expected stock floored at 0, got %d", got.StockQty)
	}
}

func TestListActiveExcludesInactive(t *testing.T) {
	svc, _ := newProductsService(t)
	ctx := context.Background()
	seller := uuid.New()

	if _, err := svc.Create(ctx, seller, UpsertInput{Name: "Visible", PriceCents: 100, StockQty: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	inactive := false
	if _, err := svc.Create(ctx, seller, UpsertInput{Name: "Hidden", PriceCents: 100, StockQty: 1, Active: &inactive}); err != nil {
		t.Fatalf("create inactive: %v", err)
	}

	active, err := svc.ListActive(ctx, 0)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Visible" {
		t.Fatalf("expected only the active product, got %+v", active)
	}

	mine, err := svc.ListBySeller(ctx, seller)
	if err != nil {
		t.Fatalf("list by seller: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("seller listing should include inactive products, got %d", len(mine))
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newProductsService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input UpsertInput
	}{
		{"empty name", UpsertInput{PriceCents: 100, StockQty: 1}},
		{"zero price", UpsertInput{Name: "x", PriceCents: 0, StockQty: 1}},
		{"negative stock", UpsertInput{Name: "x", PriceCents: 100, StockQty: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, uuid.New(), tc.input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
