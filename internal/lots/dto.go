package lots

import (
	"time"

	"github.com/google/uuid"

	"github.com/grupobarca/barca-backend/pkg/db/models"
)

// AdmitOrderInput carries an admission request into the service.
type AdmitOrderInput struct {
	LotID          uuid.UUID
	PurchaserID    uuid.UUID
	Quantity       int64
	IdempotencyKey string

	DeliveryName         string
	DeliveryPhone        string
	DeliveryAddress      string
	DeliveryNeighborhood string
}

// CreateLotInput captures the fields an admin supplies when opening a lot.
type CreateLotInput struct {
	ProductID      uuid.UUID
	Title          string
	TargetQty      int64
	UnitPriceCents int64
	Deadline       *time.Time
	CreatedBy      uuid.UUID
}

// ListParams configures lot listing.
type ListParams struct {
	Status string
	Limit  int
	Cursor string
}

// ListResult wraps returned lots and the cursor for the next page.
type ListResult struct {
	Items  []models.PurchaseLot `json:"items"`
	Cursor string               `json:"cursor"`
}

// LotCompletedEvent is emitted through the outbox when a lot reaches its target.
type LotCompletedEvent struct {
	LotID           uuid.UUID `json:"lot_id"`
	ProductID       uuid.UUID `json:"product_id"`
	Title           string    `json:"title"`
	TargetQty       int64     `json:"target_qty"`
	TotalOrderedQty int64     `json:"total_ordered_qty"`
	CompletedAt     time.Time `json:"completed_at"`
}
