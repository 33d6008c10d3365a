package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	dbpkg "github.com/grupobarca/barca-backend/pkg/db"
	"github.com/grupobarca/barca-backend/pkg/db/models"
	"github.com/grupobarca/barca-backend/pkg/enums"
	pkgerrors "github.com/grupobarca/barca-backend/pkg/errors"
	"github.com/grupobarca/barca-backend/pkg/logger"
	"github.com/grupobarca/barca-backend/pkg/metrics"
)

type lotFinder interface {
	FindByID(ctx context.Context, lotID uuid.UUID) (*models.PurchaseLot, error)
}

type orderLister interface {
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]models.Order, error)
}

// Dispatcher fans a lot lifecycle event out to every participant as an
// in-app notification.
type Dispatcher interface {
	DispatchLotEvent(ctx context.Context, input DispatchInput) (*DispatchResult, error)
}

// DispatchInput identifies the lot, the event kind, and an optional
// idempotency token. Without a token a repeated call fans out again.
type DispatchInput struct {
	LotID            uuid.UUID
	Kind             enums.LotEventKind
	IdempotencyToken string
}

// DispatchResult reports how the fan-out went. Replayed is set when a prior
// receipt with the same token answered the call.
type DispatchResult struct {
	Created  int  `json:"created"`
	Failed   int  `json:"failed"`
	Replayed bool `json:"replayed"`
}

type dispatcher struct {
	repo    Repository
	lots    lotFinder
	orders  orderLister
	metrics *metrics.LotMetrics
	logg    *logger.Logger
}

// NewDispatcher wires the fan-out dependencies.
func NewDispatcher(repo Repository, lots lotFinder, orders orderLister, lotMetrics *metrics.LotMetrics, logg *logger.Logger) (Dispatcher, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if lots == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "lots repository required")
	}
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	return &dispatcher{
		repo:    repo,
		lots:    lots,
		orders:  orders,
		metrics: lotMetrics,
		logg:    logg,
	}, nil
}

// DispatchLotEvent notifies every distinct purchaser of the lot about the
// given event. Recipients are processed one at a time; a failed insert is
// counted and logged without aborting the remaining fan-out.
func (d *dispatcher) DispatchLotEvent(ctx context.Context, input DispatchInput) (*DispatchResult, error) {
	if input.LotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid event kind")
	}

	token := strings.TrimSpace(input.IdempotencyToken)
	if token != "" {
		receipt, err := d.repo.FindReceipt(ctx, input.LotID, input.Kind, token)
		if err == nil {
			return &DispatchResult{Created: receipt.CreatedCount, Failed: receipt.FailedCount, Replayed: true}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check dispatch receipt")
		}
	}

	lot, err := d.lots.FindByID(ctx, input.LotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
	}

	lotOrders, err := d.orders.ListByLot(ctx, input.LotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lot orders")
	}

	recipients := groupTotalsByPurchaser(lotOrders)

	result := &DispatchResult{}
	var createErrs error
	for _, recipient := range recipients {
		notification := d.buildNotification(lot, input.Kind, recipient)
		if err := d.repo.Create(ctx, notification); err != nil {
			result.Failed++
			d.metrics.IncNotification("failed")
			createErrs = multierr.Append(createErrs, err)
			continue
		}
		result.Created++
		d.metrics.IncNotification("created")
	}

	if createErrs != nil && d.logg != nil {
		logCtx := d.logg.WithLotID(ctx, input.LotID.String())
		d.logg.Error(logCtx, "some lot event notifications failed", createErrs)
	}

	if token != "" {
		receipt := &models.DispatchReceipt{
			LotID:        input.LotID,
			Kind:         input.Kind,
			Token:        token,
			CreatedCount: result.Created,
			FailedCount:  result.Failed,
		}
		if err := d.repo.CreateReceipt(ctx, receipt); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				// A concurrent dispatch with the same token finished first.
				prior, findErr := d.repo.FindReceipt(ctx, input.LotID, input.Kind, token)
				if findErr != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load dispatch receipt")
				}
				return &DispatchResult{Created: prior.CreatedCount, Failed: prior.FailedCount, Replayed: true}, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record dispatch receipt")
		}
	}

	if d.logg != nil {
		logCtx := d.logg.WithLotID(ctx, input.LotID.String())
		logCtx = d.logg.WithFields(logCtx, map[string]any{
			"kind":    string(input.Kind),
			"created": result.Created,
			"failed":  result.Failed,
		})
		d.logg.Info(logCtx, "lot event dispatched")
	}
	return result, nil
}

type dispatchRecipient struct {
	UserID     uuid.UUID
	TotalCents int64
}

// groupTotalsByPurchaser collapses a lot's orders into one entry per
// purchaser, preserving first-order arrival order.
func groupTotalsByPurchaser(lotOrders []models.Order) []dispatchRecipient {
	index := make(map[uuid.UUID]int, len(lotOrders))
	recipients := make([]dispatchRecipient, 0, len(lotOrders))
	for _, order := range lotOrders {
		if pos, ok := index[order.PurchaserID]; ok {
			recipients[pos].TotalCents += order.TotalCents
			continue
		}
		index[order.PurchaserID] = len(recipients)
		recipients = append(recipients, dispatchRecipient{
			UserID:     order.PurchaserID,
			TotalCents: order.TotalCents,
		})
	}
	return recipients
}

func (d *dispatcher) buildNotification(lot *models.PurchaseLot, kind enums.LotEventKind, recipient dispatchRecipient) *models.Notification {
	userID := recipient.UserID
	lotID := lot.ID
	link := fmt.Sprintf("/lots/%s", lot.ID)

	var title, message string
	switch kind {
	case enums.LotEventPaymentReminder:
		title = "Payment reminder"
		message = fmt.Sprintf("Your order in %q totals %s. Please complete your payment.",
			lot.Title, formatBRL(recipient.TotalCents))
	case enums.LotEventDelivery:
		title = "Delivery update"
		message = fmt.Sprintf("The lot %q has arrived. Check the pickup details for your delivery.", lot.Title)
	default:
		title = "Lot update"
		message = fmt.Sprintf("There is news about the lot %q.", lot.Title)
	}

	return &models.Notification{
		UserID:  &userID,
		LotID:   &lotID,
		Type:    kind.NotificationType(),
		Title:   title,
		Message: message,
		Link:    &link,
	}
}

func formatBRL(cents int64) string {
	return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
}
