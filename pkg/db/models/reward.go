package models

import (
	"time"

	"github.com/google/uuid"
)

// RewardRule configures an automatic QANZ grant for a triggering event key.
type RewardRule struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Key         string    `gorm:"column:key;not null;uniqueIndex"`
	AmountCents int64     `gorm:"column:amount_cents;not null"`
	Active      bool      `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// RewardEvent is the issuance record and de-duplication anchor: the unique
// (user_id, rule_key, reference_id) index guarantees a reward is granted at
// most once per triggering fact.
type RewardEvent struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RuleKey       string     `gorm:"column:rule_key;not null;uniqueIndex:idx_reward_events_dedup,priority:2"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_reward_events_dedup,priority:1"`
	AmountCents   int64      `gorm:"column:amount_cents;not null"`
	ReferenceType string     `gorm:"column:reference_type;not null"`
	ReferenceID   uuid.UUID  `gorm:"column:reference_id;type:uuid;not null;uniqueIndex:idx_reward_events_dedup,priority:3"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
