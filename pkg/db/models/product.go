package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog row order creation reads price and stock from.
// The core does not own catalog content beyond price/stock bookkeeping.
type Product struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID   uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
	StockQty   int       `gorm:"column:stock_qty;not null;default:0"`
	Active     bool      `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
