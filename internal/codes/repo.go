package codes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// Repository manages persistence for topup codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, code *models.TopupCode) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.TopupCode, error)
	FindByCode(ctx context.Context, code string) (*models.TopupCode, error)
	List(ctx context.Context, limit int) ([]models.TopupCode, error)
	// MarkRedeemed flips active -> redeemed conditionally and reports how
	// many rows changed; zero means another redeemer won.
	MarkRedeemed(ctx context.Context, id, redeemerID uuid.UUID, at time.Time) (int64, error)
	// MarkVoided flips active -> voided conditionally.
	MarkVoided(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a topup code repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, code *models.TopupCode) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.TopupCode, error) {
	var code models.TopupCode
	if err := r.db.WithContext(ctx).First(&code, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *repository) FindByCode(ctx context.Context, canonical string) (*models.TopupCode, error) {
	var code models.TopupCode
	if err := r.db.WithContext(ctx).First(&code, "code = ?", canonical).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *repository) List(ctx context.Context, limit int) ([]models.TopupCode, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var codes []models.TopupCode
	if err := q.Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *repository) MarkRedeemed(ctx context.Context, id, redeemerID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TopupCode{}).
		Where("id = ? AND status = ?", id, enums.TopupCodeStatusActive).
		Updates(map[string]any{
			"status":      enums.TopupCodeStatusRedeemed,
			"redeemed_by": redeemerID,
			"redeemed_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) MarkVoided(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TopupCode{}).
		Where("id = ? AND status = ?", id, enums.TopupCodeStatusActive).
		Updates(map[string]any{
			"status":    enums.TopupCodeStatusVoided,
			"voided_at": at,
		})
	return res.RowsAffected, res.Error
}
