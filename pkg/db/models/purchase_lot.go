package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grupobarca/barca-backend/pkg/enums"
)

// PurchaseLot is a group-buying lot that accumulates orders until its target
// quantity is reached. TotalOrderedQty is only ever mutated through guarded
// updates so it always equals the sum of admitted order quantities.
type PurchaseLot struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Title           string          `gorm:"column:title;not null"`
	Status          enums.LotStatus `gorm:"column:status;type:lot_status;not null;default:'open'"`
	TargetQty       int64           `gorm:"column:target_qty;not null"`
	TotalOrderedQty int64           `gorm:"column:total_ordered_qty;not null;default:0"`
	UnitPriceCents  int64           `gorm:"column:unit_price_cents;not null"`
	Deadline        *time.Time      `gorm:"column:deadline;type:timestamptz"`
	CompletedAt     *time.Time      `gorm:"column:completed_at;type:timestamptz"`
	CreatedBy       uuid.UUID       `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
