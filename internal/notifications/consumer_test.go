package notifications

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupobarca/barca-backend/pkg/logger"
	"github.com/grupobarca/barca-backend/pkg/metrics"
	"github.com/grupobarca/barca-backend/pkg/outbox"
)

func newTestConsumer(t *testing.T, lotMetrics *metrics.LotMetrics) *Consumer {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return &Consumer{metrics: lotMetrics, logg: logg}
}

func lotCompletedMessage(t *testing.T, lotID uuid.UUID) *pubsub.Message {
	t.Helper()

	data, err := json.Marshal(map[string]string{"lot_id": lotID.String()})
	require.NoError(t, err)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       data,
	})
	require.NoError(t, err)

	return &pubsub.Message{
		ID:         "msg-1",
		Data:       envelope,
		Attributes: map[string]string{"event_type": "lot.completed"},
	}
}

func TestConsumerRecordsLotCompletion(t *testing.T) {
	reg := prometheus.NewRegistry()
	consumer := newTestConsumer(t, metrics.NewLotMetrics(reg))

	observed := consumer.process(context.Background(), lotCompletedMessage(t, uuid.New()))
	assert.True(t, observed)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var counted float64
	for _, mf := range mfs {
		if mf.GetName() != "lot_events_consumed" {
			continue
		}
		for _, m := range mf.GetMetric() {
			counted += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), counted)
}

func TestConsumerDoesNotDispatchNotifications(t *testing.T) {
	db := setupNotificationsTestDB(t)
	consumer := newTestConsumer(t, nil)

	observed := consumer.process(context.Background(), lotCompletedMessage(t, uuid.New()))
	assert.True(t, observed)

	var count int64
	require.NoError(t, db.Table("notifications").Count(&count).Error)
	assert.Zero(t, count)
}

func TestConsumerSkipsUnhandledEventTypes(t *testing.T) {
	consumer := newTestConsumer(t, nil)

	msg := lotCompletedMessage(t, uuid.New())
	msg.Attributes["event_type"] = "lot.cancelled"
	assert.False(t, consumer.process(context.Background(), msg))
}

func TestConsumerDropsMalformedMessages(t *testing.T) {
	consumer := newTestConsumer(t, nil)
	ctx := context.Background()

	garbage := &pubsub.Message{
		ID:         "msg-2",
		Data:       []byte("not json"),
		Attributes: map[string]string{"event_type": "lot.completed"},
	}
	assert.False(t, consumer.process(ctx, garbage))

	noLot := lotCompletedMessage(t, uuid.Nil)
	assert.False(t, consumer.process(ctx, noLot))

	badEventID := lotCompletedMessage(t, uuid.New())
	envelope, err := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: "nope", Data: json.RawMessage(`{}`)})
	require.NoError(t, err)
	badEventID.Data = envelope
	assert.False(t, consumer.process(ctx, badEventID))
}
