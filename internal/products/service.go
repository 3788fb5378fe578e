package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qanzmarket/qanz-backend/internal/events"
	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
)

// Service owns catalog price/stock bookkeeping for sellers.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, input UpsertInput) (*models.Product, error)
	Update(ctx context.Context, sellerID, productID uuid.UUID, input UpsertInput) (*models.Product, error)
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error)
	ListActive(ctx context.Context, limit int) ([]models.Product, error)
}

// UpsertInput carries the seller-editable product fields.
type UpsertInput struct {
	Name       string `json:"name" validate:"required"`
	PriceCents int64  `json:"price_cents" validate:"required,gt=0"`
	StockQty   int    `json:"stock_qty" validate:"gte=0"`
	Active     *bool  `json:"active"`
}

type service struct {
	repo     Repository
	notifier events.Notifier
}

// NewService wires the catalog service.
func NewService(repo Repository, notifier events.Notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if notifier == nil {
		notifier = events.NewNoop()
	}
	return &service{repo: repo, notifier: notifier}, nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input UpsertInput) (*models.Product, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		SellerID:   sellerID,
		Name:       input.Name,
		PriceCents: input.PriceCents,
		StockQty:   input.StockQty,
		Active:     true,
	}
	if input.Active != nil {
		product.Active = *input.Active
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	s.notifier.Changed(ctx, "products", product.ID, "created")
	return product, nil
}

func (s *service) Update(ctx context.Context, sellerID, productID uuid.UUID, input UpsertInput) (*models.Product, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}

	product.Name = input.Name
	product.PriceCents = input.PriceCents
	product.StockQty = input.StockQty
	if input.Active != nil {
		product.Active = *input.Active
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	s.notifier.Changed(ctx, "products", product.ID, "updated")
	return product, nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return s.findProduct(ctx, productID)
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	products, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller products")
	}
	return products, nil
}

func (s *service) ListActive(ctx context.Context, limit int) ([]models.Product, error) {
	products, err := s.repo.ListActive(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active products")
	}
	return products, nil
}

func (s *service) findProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func validateUpsert(input UpsertInput) error {
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.PriceCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.StockQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}
