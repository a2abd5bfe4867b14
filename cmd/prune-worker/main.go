package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/account"
	"github.com/Dchole/handymen/internal/availability"
	"github.com/Dchole/handymen/internal/config"
	"github.com/Dchole/handymen/internal/db"
	"github.com/Dchole/handymen/internal/eventlog"
	"github.com/Dchole/handymen/internal/logging"
	redisclient "github.com/Dchole/handymen/internal/redis"
)

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

	logger.Info("prune-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
		zap.Duration("retention", cfg.WindowRetention))

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

	repo := availability.NewPgRepository(pgPool)
	profiles := account.NewPgRepository(pgPool)
	locker := redisclient.NewRedisProviderLocker(rdb, cfg.LockTTL)
	svc := availability.NewService(repo, profiles, locker, eventlog.Nop{}, logger)

	runOnce(rootCtx, svc, cfg.WindowRetention, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping prune worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.WindowRetention, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *availability.Service, retention time.Duration, logger *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.PruneEndedWindows(runCtx, retention)
	if err != nil {
		logger.Error("prune run error", zap.Error(err))
		return
	}
	logger.Info("prune run complete",
		zap.Int64("windows_removed", n),
		zap.Duration("elapsed", time.Since(start)))
}
