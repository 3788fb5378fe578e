package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// Repository manages persistence for orders and their item snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Order, error)
	// UpdateStatusIf performs the compare-and-set transition and reports
	// how many rows changed; zero means the order moved on concurrently.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.Order, error) {
	return r.list(ctx, "buyer_id = ?", buyerID, limit)
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Order, error) {
	return r.list(ctx, "seller_id = ?", sellerID, limit)
}

func (r *repository) list(ctx context.Context, cond string, id uuid.UUID, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where(cond, id).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}
