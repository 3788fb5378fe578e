package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// Order is the buyer-to-seller order aggregate. TotalCents is snapshotted
// at creation from the item lines and never recomputed afterwards.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID         uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID        uuid.UUID         `gorm:"column:seller_id;type:uuid;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status_enum;not null;default:'placed'"`
	TotalCents      int64             `gorm:"column:total_cents;not null"`
	DeliveryAddress string            `gorm:"column:delivery_address;not null"`
	DeliveryPhone   string            `gorm:"column:delivery_phone;not null"`
	DeliveryNotes   *string           `gorm:"column:delivery_notes"`
	PaymentMethod   string            `gorm:"column:payment_method;not null;default:'cash_on_delivery'"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is an immutable snapshot of a product line captured at
// order-creation time. Later catalog edits never alter a placed order.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName    string    `gorm:"column:product_name;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
