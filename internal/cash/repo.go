package cash

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// Repository manages persistence for cash reconciliation records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Create inserts the record unless one exists for the order; the
	// unique order_id index absorbs duplicates.
	Create(ctx context.Context, collection *models.CashCollection) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CashCollection, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.CashCollection, error)
	ListByStatus(ctx context.Context, status enums.CashCollectionStatus, limit int) ([]models.CashCollection, error)
	// MarkCollectedIf flips pending -> collected conditionally, recording
	// the amount the driver reports.
	MarkCollectedIf(ctx context.Context, id uuid.UUID, amountCents int64) (int64, error)
	// MarkConfirmedIf flips collected -> confirmed conditionally.
	MarkConfirmedIf(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cash collection repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, collection *models.CashCollection) (int64, error) {
	if collection.ID == uuid.Nil {
		collection.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(collection)
	return res.RowsAffected, res.Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CashCollection, error) {
	var collection models.CashCollection
	if err := r.db.WithContext(ctx).First(&collection, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &collection, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.CashCollection, error) {
	var collection models.CashCollection
	if err := r.db.WithContext(ctx).First(&collection, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &collection, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.CashCollectionStatus, limit int) ([]models.CashCollection, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var collections []models.CashCollection
	if err := q.Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

func (r *repository) MarkCollectedIf(ctx context.Context, id uuid.UUID, amountCents int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CashCollection{}).
		Where("id = ? AND status = ?", id, enums.CashCollectionStatusPending).
		Updates(map[string]any{
			"status":                 enums.CashCollectionStatusCollected,
			"amount_collected_cents": amountCents,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) MarkConfirmedIf(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CashCollection{}).
		Where("id = ? AND status = ?", id, enums.CashCollectionStatusCollected).
		Updates(map[string]any{
			"status":       enums.CashCollectionStatusConfirmed,
			"confirmed_at": at,
		})
	return res.RowsAffected, res.Error
}
