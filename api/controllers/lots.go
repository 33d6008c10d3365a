package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/grupobarca/barca-backend/api/middleware"
	"github.com/grupobarca/barca-backend/api/responses"
	"github.com/grupobarca/barca-backend/api/validators"
	"github.com/grupobarca/barca-backend/internal/lots"
	"github.com/grupobarca/barca-backend/internal/notifications"
	"github.com/grupobarca/barca-backend/pkg/enums"
	pkgerrors "github.com/grupobarca/barca-backend/pkg/errors"
	"github.com/grupobarca/barca-backend/pkg/logger"
)

type createLotRequest struct {
	ProductID      string     `json:"product_id" validate:"required,uuid"`
	Title          string     `json:"title" validate:"required"`
	TargetQty      int64      `json:"target_qty" validate:"required,min=1"`
	UnitPriceCents int64      `json:"unit_price_cents" validate:"required,min=1"`
	Deadline       *time.Time `json:"deadline,omitempty"`
}

type admitOrderRequest struct {
	Quantity             int64  `json:"quantity" validate:"required,min=1"`
	DeliveryName         string `json:"delivery_name" validate:"required"`
	DeliveryPhone        string `json:"delivery_phone" validate:"required"`
	DeliveryAddress      string `json:"delivery_address" validate:"required"`
	DeliveryNeighborhood string `json:"delivery_neighborhood" validate:"required"`
}

type dispatchLotRequest struct {
	Kind string `json:"kind" validate:"required"`
}

// CreateLot opens a new purchase lot. Admin only, enforced by the router.
func CreateLot(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lots service unavailable"))
			return
		}

		actorID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createLotRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(body.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		lot, err := svc.Create(r.Context(), lots.CreateLotInput{
			ProductID:      productID,
			Title:          validators.SanitizeString(body.Title, 200),
			TargetQty:      body.TargetQty,
			UnitPriceCents: body.UnitPriceCents,
			Deadline:       body.Deadline,
			CreatedBy:      actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, lot)
	}
}

func GetLot(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lots service unavailable"))
			return
		}

		lotID, err := pathUUID(r, "lotId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lot, err := svc.Get(r.Context(), lotID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lot)
	}
}

func ListLots(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lots service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := lots.ListParams{
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdmitOrder places an order against an open lot. The optional
// Idempotency-Key header makes retries return the original order.
func AdmitOrder(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lots service unavailable"))
			return
		}

		purchaserID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lotID, err := pathUUID(r, "lotId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body admitOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AdmitOrder(r.Context(), lots.AdmitOrderInput{
			LotID:                lotID,
			PurchaserID:          purchaserID,
			Quantity:             body.Quantity,
			IdempotencyKey:       strings.TrimSpace(r.Header.Get("Idempotency-Key")),
			DeliveryName:         body.DeliveryName,
			DeliveryPhone:        body.DeliveryPhone,
			DeliveryAddress:      body.DeliveryAddress,
			DeliveryNeighborhood: body.DeliveryNeighborhood,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// CancelLot finalizes a lot as cancelled. Admin only.
func CancelLot(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lots service unavailable"))
			return
		}

		actorID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lotID, err := pathUUID(r, "lotId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), actorID, lotID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// DispatchLot fans a lot event out to every participant. Admin only. The
// optional Idempotency-Key header makes retries replay the prior receipt.
func DispatchLot(dispatcher notifications.Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dispatcher == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatcher unavailable"))
			return
		}

		lotID, err := pathUUID(r, "lotId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body dispatchLotRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseLotEventKind(strings.TrimSpace(body.Kind))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event kind"))
			return
		}

		result, err := dispatcher.DispatchLotEvent(r.Context(), notifications.DispatchInput{
			LotID:            lotID,
			Kind:             kind,
			IdempotencyToken: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "missing path parameter").WithDetails(map[string]any{"field": param})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid path parameter").WithDetails(map[string]any{"field": param})
	}
	return id, nil
}
