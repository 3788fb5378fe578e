package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// Delivery is created exactly once per order when the order becomes
// ready for pickup. DriverID stays nil until a driver wins the claim.
type Delivery struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	DriverID           *uuid.UUID           `gorm:"column:driver_id;type:uuid"`
	Status             enums.DeliveryStatus `gorm:"column:status;type:delivery_status_enum;not null;default:'available'"`
	AssignedAt         *time.Time           `gorm:"column:assigned_at"`
	PickedUpAt         *time.Time           `gorm:"column:picked_up_at"`
	DeliveredAt        *time.Time           `gorm:"column:delivered_at"`
	CashCollectedCents *int64               `gorm:"column:cash_collected_cents"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
