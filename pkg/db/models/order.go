package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is a purchaser's admitted stake in a lot. UnitPriceCents is snapshotted
// from the lot at admission time so later lot edits never reprice an order.
type Order struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LotID          uuid.UUID `gorm:"column:lot_id;type:uuid;not null;index;uniqueIndex:idx_orders_lot_purchaser_key,priority:1"`
	PurchaserID    uuid.UUID `gorm:"column:purchaser_id;type:uuid;not null;index;uniqueIndex:idx_orders_lot_purchaser_key,priority:2"`
	IdempotencyKey string    `gorm:"column:idempotency_key;not null;uniqueIndex:idx_orders_lot_purchaser_key,priority:3"`
	Quantity       int64     `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	TotalCents     int64     `gorm:"column:total_cents;not null"`

	DeliveryName         string `gorm:"column:delivery_name;not null"`
	DeliveryPhone        string `gorm:"column:delivery_phone;not null"`
	DeliveryAddress      string `gorm:"column:delivery_address;not null"`
	DeliveryNeighborhood string `gorm:"column:delivery_neighborhood;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Lot *PurchaseLot `gorm:"foreignKey:LotID"`
}
