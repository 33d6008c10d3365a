package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grupobarca/barca-backend/pkg/db/models"
	"github.com/grupobarca/barca-backend/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:outbox_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_outbox_events_event_aggregate
  ON outbox_events (event_type, aggregate_type, aggregate_id);
`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func countOutboxRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	return count
}

func TestEmitWrapsDataInEnvelope(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	lotID := uuid.New()
	err := svc.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.EventLotCompleted,
		AggregateType: enums.AggregatePurchaseLot,
		AggregateID:   lotID,
		Data:          map[string]string{"lot_id": lotID.String()},
		Version:       1,
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, enums.EventLotCompleted, row.EventType)
	assert.Equal(t, lotID, row.AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	_, err = uuid.Parse(envelope.EventID)
	assert.NoError(t, err)
	assert.False(t, envelope.OccurredAt.IsZero())

	var data map[string]string
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, lotID.String(), data["lot_id"])
}

func TestEmitIfNotExistsDedupesByEventAndAggregate(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	lotID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventLotCompleted,
		AggregateType: enums.AggregatePurchaseLot,
		AggregateID:   lotID,
		Data:          map[string]string{"lot_id": lotID.String()},
		Version:       1,
	}

	require.NoError(t, svc.EmitIfNotExists(context.Background(), db, event))
	require.NoError(t, svc.EmitIfNotExists(context.Background(), db, event))

	assert.Equal(t, int64(1), countOutboxRows(t, db))
}

func TestEmitIfNotExistsAllowsDistinctAggregates(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	for i := 0; i < 2; i++ {
		lotID := uuid.New()
		err := svc.EmitIfNotExists(context.Background(), db, DomainEvent{
			EventType:     enums.EventLotCompleted,
			AggregateType: enums.AggregatePurchaseLot,
			AggregateID:   lotID,
			Data:          map[string]string{"lot_id": lotID.String()},
			Version:       1,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(2), countOutboxRows(t, db))
}

func TestEmitIfNotExistsRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.EmitIfNotExists(context.Background(), nil, DomainEvent{})
	assert.Error(t, err)
}
