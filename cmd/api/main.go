package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/mongo"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap catalog database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}
	if cfg.FeatureFlags.SeedCatalog {
		if err := catalog.Seed(ctx, dbClient, catalog.DemoProducts()); err != nil {
			logg.Error(ctx, "failed to seed catalog", err)
			os.Exit(1)
		}
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	mongoClient, err := mongo.New(ctx, cfg.Mongo, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap mongo", err)
		os.Exit(1)
	}

	mongoDocs := cart.NewMongoDocuments(mongoClient.CartCollection())
	if err := mongoDocs.CreateIndexes(ctx); err != nil {
		logg.Error(ctx, "failed to ensure cart indexes", err)
		os.Exit(1)
	}
	documents := cart.NewBreakerDocuments(
		cart.NewCachedDocuments(mongoDocs, redisClient, cfg.Redis.CartCacheTTL, logg),
		cart.BreakerSettings{
			Name:        "cart-documents",
			MaxFailures: cfg.Cart.BreakerMaxFailures,
			OpenTimeout: cfg.Cart.BreakerOpenTimeout,
		},
		logg,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)

	normalizer, err := pricing.NewNormalizer(cfg.Pricing)
	if err != nil {
		logg.Error(ctx, "failed to build price normalizer", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	sessions, err := cart.NewSessions(cart.StoreParams{
		Documents:   documents,
		Logger:      logg,
		Metrics:     cartMetrics,
		LoadTimeout: cfg.Cart.LoadTimeout,
		SaveTimeout: cfg.Cart.SaveTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart sessions", err)
		os.Exit(1)
	}
	go sessions.RunSweeper(ctx, cfg.Cart.SweepInterval, cfg.Cart.SessionIdleTTL)

	readiness := map[string]controllers.Pinger{
		"catalog_db": dbClient,
		"redis":      redisClient,
		"mongo":      mongoClient,
	}
	router := routes.NewRouter(cfg, logg, registry, readiness, catalogService, normalizer, sessions)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(router, "storefront-api"),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	var errs error
	errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
	errs = multierr.Append(errs, sessions.Close(shutdownCtx))
	errs = multierr.Append(errs, mongoClient.Close(shutdownCtx))
	errs = multierr.Append(errs, redisClient.Close())
	errs = multierr.Append(errs, dbClient.Close())
	if errs != nil {
		logg.Error(serverCtx, "shutdown finished with errors", errs)
		exitCode = 1
	} else {
		logg.Info(serverCtx, "api server stopped")
	}
	os.Exit(exitCode)
}
