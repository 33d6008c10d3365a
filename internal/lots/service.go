package lots

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/grupobarca/barca-backend/internal/orders"
	dbpkg "github.com/grupobarca/barca-backend/pkg/db"
	"github.com/grupobarca/barca-backend/pkg/db/models"
	"github.com/grupobarca/barca-backend/pkg/enums"
	pkgerrors "github.com/grupobarca/barca-backend/pkg/errors"
	"github.com/grupobarca/barca-backend/pkg/logger"
	"github.com/grupobarca/barca-backend/pkg/metrics"
	"github.com/grupobarca/barca-backend/pkg/outbox"
	"github.com/grupobarca/barca-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines lot lifecycle and order admission operations.
type Service interface {
	AdmitOrder(ctx context.Context, input AdmitOrderInput) (*models.Order, error)
	Create(ctx context.Context, input CreateLotInput) (*models.PurchaseLot, error)
	Cancel(ctx context.Context, actorID, lotID uuid.UUID) error
	Get(ctx context.Context, lotID uuid.UUID) (*models.PurchaseLot, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

// Options tunes admission retry behavior.
type Options struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

type service struct {
	repo       Repository
	orders     orders.Repository
	tx         txRunner
	outbox     outboxPublisher
	metrics    *metrics.LotMetrics
	logg       *logger.Logger
	maxRetries int
	backoff    time.Duration
}

// NewService builds a lot service with the required dependencies.
func NewService(repo Repository, ordersRepo orders.Repository, tx txRunner, publisher outboxPublisher, lotMetrics *metrics.LotMetrics, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "lots repository required")
	}
	if ordersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = 25 * time.Millisecond
	}
	return &service{
		repo:       repo,
		orders:     ordersRepo,
		tx:         tx,
		outbox:     publisher,
		metrics:    lotMetrics,
		logg:       logg,
		maxRetries: maxRetries,
		backoff:    backoff,
	}, nil
}

// AdmitOrder records an order against an open lot and updates the lot's
// aggregate in one transaction. Serialization failures and deadlocks are
// retried from scratch up to the configured bound; every other error surfaces
// to the caller unchanged.
func (s *service) AdmitOrder(ctx context.Context, input AdmitOrderInput) (*models.Order, error) {
	if err := validateAdmission(input); err != nil {
		s.metrics.IncAdmission("rejected")
		return nil, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	dedupe := key != ""
	if !dedupe {
		key = uuid.NewString()
	}

	var admitted *models.Order
	backoff := retry.WithMaxRetries(uint64(s.maxRetries), retry.NewExponential(s.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptErr := s.admitOnce(ctx, input, key, dedupe, &admitted)
		if dbpkg.IsRetryableConflict(attemptErr) {
			return retry.RetryableError(attemptErr)
		}
		return attemptErr
	})
	if err != nil {
		if dbpkg.IsRetryableConflict(err) {
			s.metrics.IncAdmission("conflict")
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "admission conflicted with concurrent writes")
		}
		s.metrics.IncAdmission("failed")
		return nil, err
	}

	s.metrics.IncAdmission("admitted")
	return admitted, nil
}

func (s *service) admitOnce(ctx context.Context, input AdmitOrderInput, key string, dedupe bool, admitted **models.Order) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		if dedupe {
			existing, err := ordersRepo.FindByIdempotencyKey(ctx, input.LotID, input.PurchaserID, key)
			if err == nil {
				*admitted = existing
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key")
			}
		}

		lot, err := repo.FindByID(ctx, input.LotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
		}
		if lot.Status != enums.LotStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lot is not open for orders")
		}

		incremented, err := repo.IncrementOrderedQty(ctx, input.LotID, input.Quantity)
		if err != nil {
			return err
		}
		if !incremented {
			// The lot left OPEN between the read above and the guarded write.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lot is not open for orders")
		}

		order := &models.Order{
			LotID:                input.LotID,
			PurchaserID:          input.PurchaserID,
			IdempotencyKey:       key,
			Quantity:             input.Quantity,
			UnitPriceCents:       lot.UnitPriceCents,
			TotalCents:           input.Quantity * lot.UnitPriceCents,
			DeliveryName:         strings.TrimSpace(input.DeliveryName),
			DeliveryPhone:        strings.TrimSpace(input.DeliveryPhone),
			DeliveryAddress:      strings.TrimSpace(input.DeliveryAddress),
			DeliveryNeighborhood: strings.TrimSpace(input.DeliveryNeighborhood),
		}
		if err := ordersRepo.Create(ctx, order); err != nil {
			if dedupe && dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeIdempotency, err, "idempotency key reused")
			}
			return err
		}

		now := time.Now().UTC()
		completed, err := repo.CompleteIfTargetReached(ctx, input.LotID, now)
		if err != nil {
			return err
		}
		if completed {
			updated, err := repo.FindByID(ctx, input.LotID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload completed lot")
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventLotCompleted,
				AggregateType: enums.AggregatePurchaseLot,
				AggregateID:   input.LotID,
				Version:       1,
				OccurredAt:    now,
				Data: LotCompletedEvent{
					LotID:           updated.ID,
					ProductID:       updated.ProductID,
					Title:           updated.Title,
					TargetQty:       updated.TargetQty,
					TotalOrderedQty: updated.TotalOrderedQty,
					CompletedAt:     now,
				},
			}
			if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit lot completed event")
			}
			s.metrics.IncCompletion()
			if s.logg != nil {
				logCtx := s.logg.WithLotID(ctx, updated.ID.String())
				s.logg.Info(logCtx, "lot reached target and completed")
			}
		}

		*admitted = order
		return nil
	})
}

func validateAdmission(input AdmitOrderInput) error {
	if input.PurchaserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.LotID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	missing := []string{}
	if strings.TrimSpace(input.DeliveryName) == "" {
		missing = append(missing, "delivery_name")
	}
	if strings.TrimSpace(input.DeliveryPhone) == "" {
		missing = append(missing, "delivery_phone")
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		missing = append(missing, "delivery_address")
	}
	if strings.TrimSpace(input.DeliveryNeighborhood) == "" {
		missing = append(missing, "delivery_neighborhood")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing delivery fields").WithDetails(missing)
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateLotInput) (*models.PurchaseLot, error) {
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.TargetQty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target quantity must be positive")
	}
	if input.UnitPriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}

	lot := &models.PurchaseLot{
		ProductID:      input.ProductID,
		Title:          strings.TrimSpace(input.Title),
		Status:         enums.LotStatusOpen,
		TargetQty:      input.TargetQty,
		UnitPriceCents: input.UnitPriceCents,
		Deadline:       input.Deadline,
		CreatedBy:      input.CreatedBy,
	}
	if err := s.repo.Create(ctx, lot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create lot")
	}
	return lot, nil
}

func (s *service) Cancel(ctx context.Context, actorID, lotID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if lotID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lot, err := repo.FindByID(ctx, lotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
		}
		if lot.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lot already finalized")
		}

		cancelled, err := repo.Cancel(ctx, lotID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel lot")
		}
		if !cancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lot already finalized")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventLotCancelled,
			AggregateType: enums.AggregatePurchaseLot,
			AggregateID:   lotID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: "admin"},
			Version:       1,
			Data:          map[string]any{"lot_id": lotID},
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit lot cancelled event")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, lotID uuid.UUID) (*models.PurchaseLot, error) {
	if lotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	lot, err := s.repo.FindByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
	}
	return lot, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listLotsParams{Limit: params.Limit}
	if params.Status != "" {
		status, err := enums.ParseLotStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Status = status
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lots")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}
