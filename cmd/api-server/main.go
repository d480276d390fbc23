package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kevenm/barber-booking/internal/api"
	"github.com/kevenm/barber-booking/internal/booking"
	"github.com/kevenm/barber-booking/internal/config"
	"github.com/kevenm/barber-booking/internal/dashboard"
	"github.com/kevenm/barber-booking/internal/db"
	"github.com/kevenm/barber-booking/internal/metrics"
	"github.com/kevenm/barber-booking/internal/redisclient"
	"github.com/kevenm/barber-booking/internal/session"
	"github.com/kevenm/barber-booking/pkg/logging"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("api-server starting up", "env", cfg.Env, "http_port", cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, db.Config{
		DSN:      cfg.PostgresDSN,
		MaxConns: int32(cfg.PgMaxConns),
	})
	cancelPg()
	if err != nil {
		logger.Error("postgres connection error", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.Connect(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		PoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		logger.Error("redis connection error", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", "error", err)
		}
	}()
	logger.Info("connected to Redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBooking(registry)

	repo := booking.NewPgRepository(pgPool)
	slots := booking.NewSlotCache(repo)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	svc := booking.NewService(repo, slots, locker, cfg, bookingMetrics, logger)

	sessions := session.NewManager(
		session.NewPgStore(pgPool),
		redisclient.NewRedisDenylist(rdb),
		cfg.SessionSecret,
		cfg.SessionTTL,
		logger,
	)

	refresher := dashboard.NewRefresher(repo, cfg.PollInterval, logger)
	go refresher.Run(rootCtx)

	router := api.NewRouter(api.RouterConfig{
		Service:   svc,
		Sessions:  sessions,
		Refresher: refresher,
		PgPool:    pgPool,
		Redis:     rdb,
		Registry:  registry,
		Logger:    logger,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown error", "error", err)
	}

	logger.Info("api-server stopped")
}
