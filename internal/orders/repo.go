package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupobarca/barca-backend/pkg/db/models"
	"github.com/grupobarca/barca-backend/pkg/pagination"
)

// Repository exposes persistence helpers for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, lotID, purchaserID uuid.UUID, key string) (*models.Order, error)
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]models.Order, error)
	ListByPurchaser(ctx context.Context, purchaserID uuid.UUID, params listOrdersParams) ([]models.Order, *pagination.Cursor, error)
	SumQuantityByLot(ctx context.Context, lotID uuid.UUID) (int64, error)
	ListTotalsByPurchasers(ctx context.Context, purchaserIDs []uuid.UUID) (map[uuid.UUID][]int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listOrdersParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) FindByIdempotencyKey(ctx context.Context, lotID, purchaserID uuid.UUID, key string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		First(&order, "lot_id = ? AND purchaser_id = ? AND idempotency_key = ?", lotID, purchaserID, key).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) ListByLot(ctx context.Context, lotID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListByPurchaser(ctx context.Context, purchaserID uuid.UUID, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("purchaser_id = ?", purchaserID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) SumQuantityByLot(ctx context.Context, lotID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("lot_id = ?", lotID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

// ListTotalsByPurchasers returns each purchaser's individual order totals.
// Callers that settle per-order amounts need the unaggregated values.
func (r *repositoryImpl) ListTotalsByPurchasers(ctx context.Context, purchaserIDs []uuid.UUID) (map[uuid.UUID][]int64, error) {
	totals := make(map[uuid.UUID][]int64, len(purchaserIDs))
	if len(purchaserIDs) == 0 {
		return totals, nil
	}

	type row struct {
		PurchaserID uuid.UUID
		TotalCents  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("purchaser_id IN ?", purchaserIDs).
		Select("purchaser_id, total_cents").
		Order("created_at ASC, id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		totals[r.PurchaserID] = append(totals[r.PurchaserID], r.TotalCents)
	}
	return totals, nil
}
