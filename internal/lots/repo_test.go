package lots

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grupobarca/barca-backend/pkg/db/models"
	"github.com/grupobarca/barca-backend/pkg/enums"
)

func setupLotsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:lots_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	lotsTable := `
CREATE TABLE IF NOT EXISTS purchase_lots (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  title TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  target_qty INTEGER NOT NULL,
  total_ordered_qty INTEGER NOT NULL DEFAULT 0,
  unit_price_cents INTEGER NOT NULL,
  deadline DATETIME,
  completed_at DATETIME,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(lotsTable).Error)
	return db
}

func newLot(t *testing.T, db *gorm.DB, target, unitPrice int64) *models.PurchaseLot {
	t.Helper()

	lot := &models.PurchaseLot{
		ID:             uuid.New(),
		ProductID:      uuid.New(),
		Title:          "Arroz 5kg",
		Status:         enums.LotStatusOpen,
		TargetQty:      target,
		UnitPriceCents: unitPrice,
		CreatedBy:      uuid.New(),
	}
	require.NoError(t, db.Create(lot).Error)
	return lot
}

func TestIncrementOrderedQtyGuardsStatus(t *testing.T) {
	db := setupLotsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	lot := newLot(t, db, 10, 1000)

	ok, err := repo.IncrementOrderedQty(ctx, lot.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), reloaded.TotalOrderedQty)

	cancelled, err := repo.Cancel(ctx, lot.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	ok, err = repo.IncrementOrderedQty(ctx, lot.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "cancelled lot must reject increments")

	reloaded, err = repo.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), reloaded.TotalOrderedQty)
}

func TestCompleteIfTargetReached(t *testing.T) {
	db := setupLotsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	lot := newLot(t, db, 5, 1000)
	now := time.Now().UTC()

	flipped, err := repo.CompleteIfTargetReached(ctx, lot.ID, now)
	require.NoError(t, err)
	assert.False(t, flipped, "below-target lot must stay open")

	ok, err := repo.IncrementOrderedQty(ctx, lot.ID, 5)
	require.NoError(t, err)
	require.True(t, ok)

	flipped, err = repo.CompleteIfTargetReached(ctx, lot.ID, now)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.CompleteIfTargetReached(ctx, lot.ID, now)
	require.NoError(t, err)
	assert.False(t, flipped, "flip must happen exactly once")

	reloaded, err := repo.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LotStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.CompletedAt)
}

func TestCancelIsTerminal(t *testing.T) {
	db := setupLotsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	lot := newLot(t, db, 5, 1000)

	ok, err := repo.Cancel(ctx, lot.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Cancel(ctx, lot.ID)
	require.NoError(t, err)
	assert.False(t, ok, "cancel must not apply twice")

	flipped, err := repo.CompleteIfTargetReached(ctx, lot.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, flipped, "cancelled lot must never complete")
}

func TestListFiltersByStatusAndPaginates(t *testing.T) {
	db := setupLotsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		lot := &models.PurchaseLot{
			ID:             uuid.New(),
			ProductID:      uuid.New(),
			Title:          fmt.Sprintf("Lote %d", i),
			Status:         enums.LotStatusOpen,
			TargetQty:      10,
			UnitPriceCents: 1000,
			CreatedBy:      uuid.New(),
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(lot).Error)
	}
	closed := newLot(t, db, 10, 1000)
	_, err := repo.Cancel(ctx, closed.ID)
	require.NoError(t, err)

	open, next, err := repo.List(ctx, listLotsParams{Status: enums.LotStatusOpen, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, open, 2)
	require.NotNil(t, next)

	rest, last, err := repo.List(ctx, listLotsParams{Status: enums.LotStatusOpen, Limit: 2, Cursor: next})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.Nil(t, last)
}
