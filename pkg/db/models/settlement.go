package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// Settlement is the revenue split for a delivered order. The three fee
// components always sum exactly to OrderAmountCents; the unique index on
// order_id makes creation idempotent.
type Settlement struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID              `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	SellerID          uuid.UUID              `gorm:"column:seller_id;type:uuid;not null"`
	DriverID          uuid.UUID              `gorm:"column:driver_id;type:uuid;not null"`
	OrderAmountCents  int64                  `gorm:"column:order_amount_cents;not null"`
	PlatformFeeCents  int64                  `gorm:"column:platform_fee_cents;not null"`
	DriverFeeCents    int64                  `gorm:"column:driver_fee_cents;not null"`
	SellerAmountCents int64                  `gorm:"column:seller_amount_cents;not null"`
	Status            enums.SettlementStatus `gorm:"column:status;type:settlement_status_enum;not null;default:'pending'"`
	PaidAt            *time.Time             `gorm:"column:paid_at"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
