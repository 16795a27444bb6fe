package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/craftshoplabs/craftshop-backend/api/controllers"
	"github.com/craftshoplabs/craftshop-backend/api/routes"
	authsvc "github.com/craftshoplabs/craftshop-backend/internal/auth"
	"github.com/craftshoplabs/craftshop-backend/internal/catalog"
	customersvc "github.com/craftshoplabs/craftshop-backend/internal/customers"
	"github.com/craftshoplabs/craftshop-backend/internal/identity"
	"github.com/craftshoplabs/craftshop-backend/internal/media"
	"github.com/craftshoplabs/craftshop-backend/internal/notify"
	ordersvc "github.com/craftshoplabs/craftshop-backend/internal/orders"
	"github.com/craftshoplabs/craftshop-backend/internal/ownership"
	paymentsvc "github.com/craftshoplabs/craftshop-backend/internal/payments"
	usersvc "github.com/craftshoplabs/craftshop-backend/internal/users"
	"github.com/craftshoplabs/craftshop-backend/pkg/auth/session"
	"github.com/craftshoplabs/craftshop-backend/pkg/config"
	"github.com/craftshoplabs/craftshop-backend/pkg/db"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
	"github.com/craftshoplabs/craftshop-backend/pkg/metrics"
	"github.com/craftshoplabs/craftshop-backend/pkg/migrate"
	"github.com/craftshoplabs/craftshop-backend/pkg/pubsub"
	"github.com/craftshoplabs/craftshop-backend/pkg/redis"
	"github.com/craftshoplabs/craftshop-backend/pkg/storage/gcs"
	pkgstripe "github.com/craftshoplabs/craftshop-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap object storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(ctx, "error closing object storage", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	directory, err := identity.NewDirectory(dbClient.DB(), cfg.Password, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create identity directory", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(gcsClient.BucketHandle(""), logg)
	if err != nil {
		logg.Error(ctx, "failed to create media service", err)
		os.Exit(1)
	}

	notifier, err := notify.NewNotifier(pubsubClient.RealtimePublisher(), logg)
	if err != nil {
		logg.Error(ctx, "failed to create realtime notifier", err)
		os.Exit(1)
	}

	catalogMetrics := metrics.NewCatalogMetrics(prometheus.DefaultRegisterer)
	ownershipMetrics := metrics.NewOwnershipMetrics(prometheus.DefaultRegisterer)

	fanout, err := ownership.NewEngine(ownership.NewRepository(dbClient.DB()), cfg.Fanout, ownershipMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create ownership engine", err)
		os.Exit(1)
	}

	usersRepo := usersvc.NewRepository(dbClient.DB())
	usersService, err := usersvc.NewService(usersvc.ServiceParams{
		Store:    usersRepo,
		Identity: directory,
		Fanout:   fanout,
		Notifier: notifier,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create users service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       usersRepo,
		Identity:       directory,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	categoryRepo := catalog.NewCategoryRepository(dbClient.DB())
	categoryService, err := catalog.NewCategoryService(categoryRepo, usersRepo, cfg.Catalog, catalogMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create category service", err)
		os.Exit(1)
	}

	productService, err := catalog.NewProductService(
		catalog.NewProductRepository(dbClient.DB()),
		categoryRepo,
		catalog.NewCounterMaintainer(dbClient.DB(), catalogMetrics),
		catalog.NewStripeCatalog(stripeClient),
		mediaService,
		usersRepo,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	customersService, err := customersvc.NewService(
		customersvc.NewRepository(dbClient.DB()),
		directory,
		customersvc.NewStripeClient(stripeClient),
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create customers service", err)
		os.Exit(1)
	}

	ordersService, err := ordersvc.NewService(
		ordersvc.NewRepository(dbClient.DB()),
		ordersvc.NewStripeClient(stripeClient),
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsService, err := paymentsvc.NewService(paymentsvc.NewStripeClient(stripeClient), logg)
	if err != nil {
		logg.Error(ctx, "failed to create payments service", err)
		os.Exit(1)
	}

	readiness := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
		"gcs":      gcsClient,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, readiness, redisClient, sessionManager, routes.Services{
			Auth:       authService,
			Users:      usersService,
			Categories: categoryService,
			Products:   productService,
			Customers:  customersService,
			Orders:     ordersService,
			Payments:   paymentsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
