package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupobarca/barca-backend/pkg/db/models"
	pkgerrors "github.com/grupobarca/barca-backend/pkg/errors"
	"github.com/grupobarca/barca-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	Repository
	byID    map[uuid.UUID]*models.Order
	listed  []models.Order
	listErr error
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if order, ok := s.byID[orderID]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) ListByPurchaser(ctx context.Context, purchaserID uuid.UUID, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	if s.listErr != nil {
		return nil, nil, s.listErr
	}
	return s.listed, nil, nil
}

func TestListMineRequiresIdentity(t *testing.T) {
	svc, err := NewService(&stubOrdersRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.ListMine(context.Background(), ListParams{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestListMineRejectsBadCursor(t *testing.T) {
	svc, _ := NewService(&stubOrdersRepo{})

	_, err := svc.ListMine(context.Background(), ListParams{
		PurchaserID: uuid.New(),
		Cursor:      "%%%not-base64%%%",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetMineEnforcesOwnership(t *testing.T) {
	owner := uuid.New()
	order := &models.Order{ID: uuid.New(), PurchaserID: owner}
	svc, _ := NewService(&stubOrdersRepo{byID: map[uuid.UUID]*models.Order{order.ID: order}})

	got, err := svc.GetMine(context.Background(), owner, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("expected order %s, got %s", order.ID, got.ID)
	}

	_, err = svc.GetMine(context.Background(), uuid.New(), order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	_, err = svc.GetMine(context.Background(), owner, uuid.New())
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
