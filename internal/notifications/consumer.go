package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/grupobarca/barca-backend/pkg/enums"
	"github.com/grupobarca/barca-backend/pkg/logger"
	"github.com/grupobarca/barca-backend/pkg/metrics"
	"github.com/grupobarca/barca-backend/pkg/outbox"
)

// Consumer watches lot lifecycle events for operational visibility. It records
// completions in logs and metrics only; payment reminder fan-out stays a
// separate admin-triggered dispatch.
type Consumer struct {
	subscription *pubsub.Subscriber
	metrics      *metrics.LotMetrics
	logg         *logger.Logger
}

// NewConsumer builds a lot event consumer.
func NewConsumer(subscription *pubsub.Subscriber, lotMetrics *metrics.LotMetrics, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		metrics:      lotMetrics,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		c.process(ctx, msg)
		msg.Ack()
	})
}

// process records the event. Malformed messages are logged and dropped, there
// is no retryable work here.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventLotCompleted) {
		c.logg.Info(logCtx, "skipping unhandled event")
		return false
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return false
	}
	if _, err := uuid.Parse(envelope.EventID); err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return false
	}

	var payload lotCompletedPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return false
	}
	if payload.LotID == uuid.Nil {
		c.logg.Error(logCtx, "lot id missing", nil)
		return false
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"lot_id":   payload.LotID.String(),
		"event_id": envelope.EventID,
	})
	c.metrics.IncEventConsumed(eventType)
	c.logg.Info(logCtx, "lot completed")
	return true
}

type lotCompletedPayload struct {
	LotID uuid.UUID `json:"lot_id"`
}
