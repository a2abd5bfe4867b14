package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/account"
	"github.com/Dchole/handymen/internal/api"
	"github.com/Dchole/handymen/internal/auth"
	"github.com/Dchole/handymen/internal/availability"
	"github.com/Dchole/handymen/internal/booking"
	"github.com/Dchole/handymen/internal/config"
	"github.com/Dchole/handymen/internal/db"
	"github.com/Dchole/handymen/internal/eventlog"
	"github.com/Dchole/handymen/internal/logging"
	redisclient "github.com/Dchole/handymen/internal/redis"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", zap.Error(err))
		}
	}()
	logger.Info("connected to Redis")

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	locker := redisclient.NewRedisProviderLocker(rdb, cfg.LockTTL)
	events := eventlog.NewPgRecorder(pgPool, logger)

	accountRepo := account.NewPgRepository(pgPool)
	accountSvc := account.NewService(accountRepo, tokens, cfg.BcryptCost, logger)

	availabilityRepo := availability.NewPgRepository(pgPool)
	availabilitySvc := availability.NewService(availabilityRepo, accountRepo, locker, events, logger)

	bookingRepo := booking.NewPgRepository(pgPool)
	bookingSvc := booking.NewService(bookingRepo, accountRepo, events, logger)

	router := api.NewRouter(api.RouterConfig{
		Accounts:     accountSvc,
		Availability: availabilitySvc,
		Bookings:     bookingSvc,
		Tokens:       tokens,
		PgPool:       pgPool,
		Redis:        rdb,
		Logger:       logger,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	case <-rootCtx.Done():
	}

	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
