package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// TopupCode is a redeemable QANZ voucher in canonical XXXX-XXXX-XXXX form.
// A code leaves the active state exactly once: to redeemed or to voided.
type TopupCode struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string                `gorm:"column:code;not null;uniqueIndex"`
	AmountCents int64                 `gorm:"column:amount_cents;not null"`
	Status      enums.TopupCodeStatus `gorm:"column:status;type:topup_code_status_enum;not null;default:'active'"`
	CreatedBy   uuid.UUID             `gorm:"column:created_by;type:uuid;not null"`
	RedeemedBy  *uuid.UUID            `gorm:"column:redeemed_by;type:uuid"`
	RedeemedAt  *time.Time            `gorm:"column:redeemed_at"`
	VoidedAt    *time.Time            `gorm:"column:voided_at"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
