package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grupobarca/barca-backend/api/controllers"
	"github.com/grupobarca/barca-backend/api/middleware"
	"github.com/grupobarca/barca-backend/internal/auth"
	"github.com/grupobarca/barca-backend/internal/lots"
	"github.com/grupobarca/barca-backend/internal/notifications"
	"github.com/grupobarca/barca-backend/internal/orders"
	product "github.com/grupobarca/barca-backend/internal/products"
	"github.com/grupobarca/barca-backend/internal/referrals"
	"github.com/grupobarca/barca-backend/pkg/config"
	"github.com/grupobarca/barca-backend/pkg/db"
	"github.com/grupobarca/barca-backend/pkg/logger"
	"github.com/grupobarca/barca-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	authService auth.Service,
	registerService auth.RegisterService,
	lotsService lots.Service,
	ordersService orders.Service,
	productService product.Service,
	referralsService referrals.Service,
	notificationsService notifications.Service,
	dispatcher notifications.Dispatcher,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIDLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterIDLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(authService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.AuthRegister(registerService, authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/lots", func(r chi.Router) {
			r.Get("/", controllers.ListLots(lotsService, logg))
			r.Get("/{lotId}", controllers.GetLot(lotsService, logg))
			r.Post("/{lotId}/orders", controllers.AdmitOrder(lotsService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.GetMyOrder(ordersService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
		})

		r.Route("/referrals", func(r chi.Router) {
			r.Get("/stats", controllers.ReferralStats(referralsService, logg))
			r.Post("/code", controllers.AllocateReferralCode(referralsService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Get("/ping", controllers.AdminPing())

			r.Post("/lots", controllers.CreateLot(lotsService, logg))
			r.Post("/lots/{lotId}/cancel", controllers.CancelLot(lotsService, logg))
			r.Post("/lots/{lotId}/dispatch", controllers.DispatchLot(dispatcher, logg))

			r.Post("/products", controllers.AdminCreateProduct(productService, logg))
			r.Patch("/products/{productId}", controllers.AdminUpdateProduct(productService, logg))
			r.Post("/products/{productId}/active", controllers.AdminSetProductActive(productService, logg))
		})
	})

	return r
}
