package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// CashCollection tracks physical cash reported by the driver against the
// amount the order expects. It advances independently of the settlement's
// own pending/paid state and never feeds the wallet ledger.
type CashCollection struct {
	ID                   uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              uuid.UUID                  `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	DeliveryID           uuid.UUID                  `gorm:"column:delivery_id;type:uuid;not null"`
	AmountExpectedCents  int64                      `gorm:"column:amount_expected_cents;not null"`
	AmountCollectedCents *int64                     `gorm:"column:amount_collected_cents"`
	Status               enums.CashCollectionStatus `gorm:"column:status;type:cash_collection_status_enum;not null;default:'pending'"`
	ConfirmedAt          *time.Time                 `gorm:"column:confirmed_at"`
	CreatedAt            time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
