package settlements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// Repository manages persistence for settlements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Create inserts the settlement unless one exists for the order; the
	// unique order_id index absorbs duplicates. Zero rows affected means
	// the settlement was already computed.
	Create(ctx context.Context, settlement *models.Settlement) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Settlement, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Settlement, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]models.Settlement, error)
	ListPending(ctx context.Context, limit int) ([]models.Settlement, error)
	// MarkPaidIf flips pending -> paid conditionally.
	MarkPaidIf(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, settlement *models.Settlement) (int64, error) {
	if settlement.ID == uuid.Nil {
		settlement.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(settlement)
	return res.RowsAffected, res.Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	var settlement models.Settlement
	if err := r.db.WithContext(ctx).First(&settlement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Settlement, error) {
	var settlement models.Settlement
	if err := r.db.WithContext(ctx).First(&settlement, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Settlement, error) {
	return r.list(ctx, "seller_id = ?", sellerID, limit)
}

func (r *repository) ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]models.Settlement, error) {
	return r.list(ctx, "driver_id = ?", driverID, limit)
}

func (r *repository) list(ctx context.Context, cond string, id uuid.UUID, limit int) ([]models.Settlement, error) {
	q := r.db.WithContext(ctx).
		Where(cond, id).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var settlements []models.Settlement
	if err := q.Find(&settlements).Error; err != nil {
		return nil, err
	}
	return settlements, nil
}

func (r *repository) ListPending(ctx context.Context, limit int) ([]models.Settlement, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", enums.SettlementStatusPending).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var settlements []models.Settlement
	if err := q.Find(&settlements).Error; err != nil {
		return nil, err
	}
	return settlements, nil
}

func (r *repository) MarkPaidIf(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Settlement{}).
		Where("id = ? AND status = ?", id, enums.SettlementStatusPending).
		Updates(map[string]any{
			"status":  enums.SettlementStatusPaid,
			"paid_at": at,
		})
	return res.RowsAffected, res.Error
}
