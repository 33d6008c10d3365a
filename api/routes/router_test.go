package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/grupobarca/barca-backend/internal/auth"
	"github.com/grupobarca/barca-backend/internal/lots"
	"github.com/grupobarca/barca-backend/internal/notifications"
	"github.com/grupobarca/barca-backend/internal/orders"
	product "github.com/grupobarca/barca-backend/internal/products"
	"github.com/grupobarca/barca-backend/internal/referrals"
	pkgAuth "github.com/grupobarca/barca-backend/pkg/auth"
	"github.com/grupobarca/barca-backend/pkg/config"
	"github.com/grupobarca/barca-backend/pkg/db/models"
	"github.com/grupobarca/barca-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubLotsService struct{}

func (stubLotsService) AdmitOrder(ctx context.Context, input lots.AdmitOrderInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubLotsService) Create(ctx context.Context, input lots.CreateLotInput) (*models.PurchaseLot, error) {
	return &models.PurchaseLot{}, nil
}

func (stubLotsService) Cancel(ctx context.Context, actorID, lotID uuid.UUID) error {
	return nil
}

func (stubLotsService) Get(ctx context.Context, lotID uuid.UUID) (*models.PurchaseLot, error) {
	return &models.PurchaseLot{}, nil
}

func (stubLotsService) List(ctx context.Context, params lots.ListParams) (*lots.ListResult, error) {
	return &lots.ListResult{}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) ListMine(ctx context.Context, params orders.ListParams) (*orders.ListResult, error) {
	return &orders.ListResult{}, nil
}

func (stubOrdersService) GetMine(ctx context.Context, purchaserID, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

type stubProductService struct{}

func (stubProductService) Create(ctx context.Context, input product.CreateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductService) Update(ctx context.Context, input product.UpdateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductService) List(ctx context.Context, params product.ListParams) (*product.ListResult, error) {
	return &product.ListResult{}, nil
}

func (stubProductService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return nil
}

type stubReferralsService struct{}

func (stubReferralsService) ComputeStats(ctx context.Context, referrerID uuid.UUID) (*referrals.Stats, error) {
	return &referrals.Stats{}, nil
}

func (stubReferralsService) AllocateCode(ctx context.Context, userID uuid.UUID) (string, error) {
	return "AB12CD34", nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubDispatcher struct{}

func (stubDispatcher) DispatchLotEvent(ctx context.Context, input notifications.DispatchInput) (*notifications.DispatchResult, error) {
	return &notifications.DispatchResult{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil,
		stubAuthService{},
		stubRegisterService{},
		stubLotsService{},
		stubOrdersService{},
		stubProductService{},
		stubReferralsService{},
		stubNotificationsService{},
		stubDispatcher{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, isAdmin bool) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:  uuid.New(),
		IsAdmin: isAdmin,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsOpen(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPublicPingIsOpen(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupAcceptsValidJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lots", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminFlag(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, true))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminLotCreationForbiddenForRegularUsers(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/lots", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}
}
