package enums

// OutboxEventType identifies domain events recorded in the transactional outbox.
type OutboxEventType string

const (
	EventLotCompleted OutboxEventType = "lot.completed"
	EventLotCancelled OutboxEventType = "lot.cancelled"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregatePurchaseLot OutboxAggregateType = "purchase_lot"
)
