package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// WalletEntry records one signed QANZ movement for a user. The table is
// append-only: a user's balance is the sum of their entries, and
// corrections are issued as new entries rather than updates.
type WalletEntry struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	AmountCents   int64                 `gorm:"column:amount_cents;not null"`
	Type          enums.WalletEntryType `gorm:"column:type;type:wallet_entry_type_enum;not null"`
	Description   *string               `gorm:"column:description"`
	ReferenceType *string               `gorm:"column:reference_type"`
	ReferenceID   *uuid.UUID            `gorm:"column:reference_id;type:uuid"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}
