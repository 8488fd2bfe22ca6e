package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/physio-booking/internal/api/router"
	"github.com/wolfman30/physio-booking/internal/app/bootstrap"
	appconfig "github.com/wolfman30/physio-booking/internal/config"
	"github.com/wolfman30/physio-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/physio-booking/internal/http/middleware"
	"github.com/wolfman30/physio-booking/internal/observability/metrics"
	"github.com/wolfman30/physio-booking/internal/webchat"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting physio booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	pg, err := bootstrap.BuildPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	handler, err := buildHandler(cfg, pg, redisClient, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.CommitTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers the booking metrics and Go runtime collectors on a
// dedicated registry.
func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBookingMetrics(reg)
}

func buildHandler(cfg *appconfig.Config, pg *bootstrap.Postgres, redisClient *redis.Client, logger *logging.Logger) (http.Handler, error) {
	stores, err := bootstrap.BuildStores(cfg, pg, time.Now(), logger)
	if err != nil {
		return nil, err
	}
	if stores.InMemory {
		logger.Warn("using in-memory stores with seeded roster; bookings are lost on restart")
	}

	metricsHandler, bookingMetrics := setupMetrics()
	eng := bootstrap.BuildEngine(cfg, bootstrap.EngineOptions{
		Stores:   stores,
		Sessions: bootstrap.BuildSessionStore(redisClient, logger),
		Metrics:  bookingMetrics,
		Notifier: bootstrap.BuildNotifier(cfg, logger),
		Logger:   logger,
	})

	var db handlers.DBPinger
	if pg != nil {
		db = pg.DB
	}
	var rdb handlers.RedisPinger
	if redisClient != nil {
		rdb = redisClient
	}

	var limiter *httpmiddleware.RateLimiter
	if cfg.SessionRatePerMin > 0 {
		limiter = httpmiddleware.NewRateLimiter(float64(cfg.SessionRatePerMin)/60, cfg.SessionRatePerMin)
	}
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin appointment routes disabled")
	}

	return router.New(&router.Config{
		Logger:             logger,
		Health:             handlers.NewHealthHandler(db, rdb, logger),
		Catalog:            handlers.NewCatalogHandler(stores.Catalog, eng.Calculator, logger),
		Sessions:           handlers.NewSessionHandler(eng.Sessions, logger),
		AdminAppointments:  handlers.NewAdminAppointmentsHandler(stores.Admin, eng.Ledger, logger),
		WebChat:            webchat.NewHandler(eng.Sessions, logger),
		MetricsHandler:     metricsHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SessionLimiter:     limiter,
	}), nil
}
