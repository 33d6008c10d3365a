package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/grupobarca/barca-backend/api/routes"
	"github.com/grupobarca/barca-backend/internal/auth"
	"github.com/grupobarca/barca-backend/internal/lots"
	"github.com/grupobarca/barca-backend/internal/notifications"
	"github.com/grupobarca/barca-backend/internal/orders"
	product "github.com/grupobarca/barca-backend/internal/products"
	"github.com/grupobarca/barca-backend/internal/referrals"
	"github.com/grupobarca/barca-backend/internal/users"
	"github.com/grupobarca/barca-backend/pkg/config"
	"github.com/grupobarca/barca-backend/pkg/db"
	"github.com/grupobarca/barca-backend/pkg/logger"
	"github.com/grupobarca/barca-backend/pkg/metrics"
	"github.com/grupobarca/barca-backend/pkg/migrate"
	"github.com/grupobarca/barca-backend/pkg/outbox"
	"github.com/grupobarca/barca-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	usersRepo := users.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	lotsRepo := lots.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	productsRepo := product.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	lotMetrics := metrics.NewLotMetrics(prometheus.DefaultRegisterer)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  usersRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner: dbClient,
		UserRepoFactory: func(tx *gorm.DB) auth.RegisterUserRepository {
			return users.NewRepository(tx)
		},
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	lotsService, err := lots.NewService(lotsRepo, ordersRepo, dbClient, outboxService, lotMetrics, logg, lots.Options{
		MaxRetries:   cfg.Admission.MaxRetries,
		RetryBackoff: cfg.Admission.RetryBackoff,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create lots service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	productService, err := product.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	referralsService, err := referrals.NewService(usersRepo, ordersRepo, dbClient, logg, referrals.Options{
		BonusRateBP:     cfg.Referrals.BonusRateBP,
		CodeLength:      cfg.Referrals.CodeLength,
		CodeMaxAttempts: cfg.Referrals.CodeMaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create referrals service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	dispatcher, err := notifications.NewDispatcher(notificationsRepo, lotsRepo, ordersRepo, lotMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatcher", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			authService,
			registerService,
			lotsService,
			ordersService,
			productService,
			referralsService,
			notificationsService,
			dispatcher,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
