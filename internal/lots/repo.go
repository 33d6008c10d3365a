package lots

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupobarca/barca-backend/pkg/db/models"
	"github.com/grupobarca/barca-backend/pkg/enums"
	"github.com/grupobarca/barca-backend/pkg/pagination"
)

// Repository exposes persistence helpers for purchase lots. All aggregate
// mutations go through guarded updates so concurrent admissions cannot lose
// increments or flip a terminal lot back.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, lot *models.PurchaseLot) error
	FindByID(ctx context.Context, lotID uuid.UUID) (*models.PurchaseLot, error)
	List(ctx context.Context, params listLotsParams) ([]models.PurchaseLot, *pagination.Cursor, error)
	IncrementOrderedQty(ctx context.Context, lotID uuid.UUID, quantity int64) (bool, error)
	CompleteIfTargetReached(ctx context.Context, lotID uuid.UUID, now time.Time) (bool, error)
	Cancel(ctx context.Context, lotID uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a lots repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listLotsParams struct {
	Status enums.LotStatus
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, lot *models.PurchaseLot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, lotID uuid.UUID) (*models.PurchaseLot, error) {
	var lot models.PurchaseLot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", lotID).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listLotsParams) ([]models.PurchaseLot, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.PurchaseLot{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var lots []models.PurchaseLot
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&lots).Error; err != nil {
		return nil, nil, err
	}

	if len(lots) > normalized {
		next := lots[normalized]
		lots = lots[:normalized]
		return lots, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return lots, nil, nil
}

// IncrementOrderedQty adds quantity to the lot's aggregate. The status guard
// makes the write a no-op when the lot left OPEN between the caller's read and
// this update, which is how lost updates are detected without row locks.
func (r *repositoryImpl) IncrementOrderedQty(ctx context.Context, lotID uuid.UUID, quantity int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PurchaseLot{}).
		Where("id = ? AND status = ?", lotID, enums.LotStatusOpen).
		UpdateColumn("total_ordered_qty", gorm.Expr("total_ordered_qty + ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CompleteIfTargetReached flips OPEN lots whose aggregate reached the target.
// Exactly one concurrent admission wins the flip; the rest see zero rows.
func (r *repositoryImpl) CompleteIfTargetReached(ctx context.Context, lotID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PurchaseLot{}).
		Where("id = ? AND status = ? AND total_ordered_qty >= target_qty", lotID, enums.LotStatusOpen).
		UpdateColumns(map[string]any{
			"status":       enums.LotStatusCompleted,
			"completed_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) Cancel(ctx context.Context, lotID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PurchaseLot{}).
		Where("id = ? AND status = ?", lotID, enums.LotStatusOpen).
		UpdateColumn("status", enums.LotStatusCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
