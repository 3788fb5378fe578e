package deliveries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// Repository manages persistence for delivery jobs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// CreateForOrder inserts the delivery unless one already exists for the
	// order; the unique order_id index absorbs the duplicate. Zero rows
	// affected means the delivery was already there.
	CreateForOrder(ctx context.Context, delivery *models.Delivery) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
	ListAvailable(ctx context.Context, limit int) ([]models.Delivery, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]models.Delivery, error)
	// Claim assigns the delivery to the driver only while it is still
	// unclaimed. Zero rows affected means another driver won.
	Claim(ctx context.Context, id, driverID uuid.UUID, at time.Time) (int64, error)
	// UpdateStatusIf performs the driver-owned compare-and-set transition,
	// stamping the matching timestamp column.
	UpdateStatusIf(ctx context.Context, id, driverID uuid.UUID, from, to enums.DeliveryStatus, at time.Time) (int64, error)
	SetCashCollected(ctx context.Context, id uuid.UUID, amountCents int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a delivery repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateForOrder(ctx context.Context, delivery *models.Delivery) (int64, error) {
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(delivery)
	return res.RowsAffected, res.Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := r.db.WithContext(ctx).First(&delivery, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := r.db.WithContext(ctx).First(&delivery, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *repository) ListAvailable(ctx context.Context, limit int) ([]models.Delivery, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", enums.DeliveryStatusAvailable).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var deliveries []models.Delivery
	if err := q.Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *repository) ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]models.Delivery, error) {
	q := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var deliveries []models.Delivery
	if err := q.Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *repository) Claim(ctx context.Context, id, driverID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ? AND status = ? AND driver_id IS NULL", id, enums.DeliveryStatusAvailable).
		Updates(map[string]any{
			"status":      enums.DeliveryStatusAssigned,
			"driver_id":   driverID,
			"assigned_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateStatusIf(ctx context.Context, id, driverID uuid.UUID, from, to enums.DeliveryStatus, at time.Time) (int64, error) {
	updates := map[string]any{"status": to}
	switch to {
	case enums.DeliveryStatusPickedUp:
		updates["picked_up_at"] = at
	case enums.DeliveryStatusDelivered:
		updates["delivered_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ? AND driver_id = ? AND status = ?", id, driverID, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) SetCashCollected(ctx context.Context, id uuid.UUID, amountCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ?", id).
		Update("cash_collected_cents", amountCents).
		Error
}
