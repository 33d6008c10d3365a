package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grupobarca/barca-backend/pkg/enums"
)

// DispatchReceipt records a completed fan-out for a lot event so retried
// dispatch requests with the same token do not double-notify participants.
type DispatchReceipt struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LotID        uuid.UUID          `gorm:"column:lot_id;type:uuid;not null;uniqueIndex:idx_dispatch_lot_kind_token,priority:1"`
	Kind         enums.LotEventKind `gorm:"column:kind;not null;uniqueIndex:idx_dispatch_lot_kind_token,priority:2"`
	Token        string             `gorm:"column:token;not null;uniqueIndex:idx_dispatch_lot_kind_token,priority:3"`
	CreatedCount int                `gorm:"column:created_count;not null"`
	FailedCount  int                `gorm:"column:failed_count;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}
