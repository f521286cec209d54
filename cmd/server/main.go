package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"libris/internal/audit"
	cataloghandler "libris/internal/catalog/handler"
	catalogmetrics "libris/internal/catalog/metrics"
	catalogservice "libris/internal/catalog/service"
	catalogstore "libris/internal/catalog/store"
	"libris/internal/jwtauth"
	"libris/internal/lending/cache"
	lendinghandler "libris/internal/lending/handler"
	lendingmetrics "libris/internal/lending/metrics"
	lendingservice "libris/internal/lending/service"
	lendingstore "libris/internal/lending/store"
	memberhandler "libris/internal/member/handler"
	memberservice "libris/internal/member/service"
	memberstore "libris/internal/member/store"
	"libris/internal/platform/config"
	"libris/internal/platform/httpserver"
	"libris/internal/platform/logger"
	"libris/internal/platform/metrics"
	"libris/internal/platform/postgres"
	"libris/internal/platform/ratelimit"
	platformredis "libris/internal/platform/redis"
	"libris/internal/storage"
	httptransport "libris/internal/transport/http"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	httpMetrics := metrics.New()
	lendMetrics := lendingmetrics.New()
	catMetrics := catalogmetrics.New()

	auditor := audit.NewPublisher(audit.NewInMemoryStore())

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)

	// Persistence: Postgres when configured, otherwise the in-process store.
	var (
		lendingTx     lendingservice.StoreTx
		lendingStores lendingservice.Stores
		catalogTx     catalogservice.StoreTx
		catalogStores catalogservice.Stores
		memberStore   memberservice.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		lendingTx = newLendingPostgresTx(db)
		lendingStores = lendingstore.NewPostgres(db)
		catalogTx = newCatalogPostgresTx(db)
		catalogStores = catalogstore.NewPostgres(db)
		memberStore = memberstore.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory storage")
		mem := storage.NewMemory()
		lendingTx = mem.LendingTx()
		lendingStores = mem.LendingStores()
		catalogTx = mem.CatalogTx()
		catalogStores = mem.CatalogStores()
		memberStore = memberstore.NewInMemory()
	}

	memberSvc := memberservice.New(memberStore, jwtService, memberservice.WithLogger(log))

	lendingOpts := []lendingservice.Option{
		lendingservice.WithLogger(log),
		lendingservice.WithMetrics(lendMetrics),
		lendingservice.WithAuditPublisher(auditor),
	}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var limitStore ratelimit.Store = ratelimit.NewMemoryStore()
	if redisClient != nil {
		defer redisClient.Close()
		if c := cache.New(redisClient.Client, cfg.CacheTTL, log); c != nil {
			lendingOpts = append(lendingOpts, lendingservice.WithCache(c))
		}
		limitStore = ratelimit.NewRedisStore(redisClient.Client)
	}
	limiter := ratelimit.NewMiddleware(limitStore, log)
	lendingSvc := lendingservice.New(lendingTx, lendingStores, memberSvc, lendingOpts...)

	catalogSvc := catalogservice.New(catalogTx, catalogStores,
		catalogservice.WithLogger(log),
		catalogservice.WithMetrics(catMetrics),
		catalogservice.WithAuditPublisher(auditor),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Metrics:      httpMetrics,
		JWTValidator: jwtauth.NewMiddlewareAdapter(jwtService),
		RateLimit:    limiter,
		Lending:      lendinghandler.New(lendingSvc, log),
		Catalog:      cataloghandler.New(catalogSvc, log),
		Members: memberhandler.New(memberSvc, log,
			memberhandler.WithLoginGuard(limiter.Limit("login", loginRateLimit, loginRateWindow))),
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting libris", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := httpserver.Shutdown(srv, 10*time.Second); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
