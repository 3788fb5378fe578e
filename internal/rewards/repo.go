package rewards

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qanzmarket/qanz-backend/pkg/db/models"
)

// Repository manages reward rules and issuance events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRuleByKey(ctx context.Context, key string) (*models.RewardRule, error)
	UpsertRule(ctx context.Context, rule *models.RewardRule) error
	ListRules(ctx context.Context) ([]models.RewardRule, error)
	// CreateEvent inserts an issuance record. The unique
	// (user_id, rule_key, reference_id) index turns duplicates into a
	// no-op insert; zero rows affected means the reward was already granted.
	CreateEvent(ctx context.Context, event *models.RewardEvent) (int64, error)
	ListEventsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.RewardEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a rewards repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindRuleByKey(ctx context.Context, key string) (*models.RewardRule, error) {
	var rule models.RewardRule
	if err := r.db.WithContext(ctx).First(&rule, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) UpsertRule(ctx context.Context, rule *models.RewardRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount_cents", "active", "updated_at"}),
		}).
		Create(rule).Error
}

func (r *repository) ListRules(ctx context.Context) ([]models.RewardRule, error) {
	var rules []models.RewardRule
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) CreateEvent(ctx context.Context, event *models.RewardEvent) (int64, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "rule_key"}, {Name: "reference_id"}},
			DoNothing: true,
		}).
		Create(event)
	return res.RowsAffected, res.Error
}

func (r *repository) ListEventsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.RewardEvent, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var events []models.RewardEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
