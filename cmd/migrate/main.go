package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/config"
	"github.com/Dchole/handymen/internal/db"
	"github.com/Dchole/handymen/internal/logging"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		account_type  TEXT NOT NULL CHECK (account_type IN ('CUSTOMER', 'HANDYMAN')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS handyman_profiles (
		id          UUID PRIMARY KEY,
		user_id     UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		professions TEXT[] NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS customer_profiles (
		id         UUID PRIMARY KEY,
		user_id    UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS available_slots (
		id                  UUID PRIMARY KEY,
		handyman_profile_id UUID NOT NULL REFERENCES handyman_profiles(id) ON DELETE CASCADE,
		start_time          TIMESTAMPTZ NOT NULL,
		end_time            TIMESTAMPTZ NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (start_time < end_time)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_available_slots_profile_start
		ON available_slots (handyman_profile_id, start_time)`,

	`CREATE TABLE IF NOT EXISTS booking_requests (
		id                   UUID PRIMARY KEY,
		customer_profile_id  UUID NOT NULL REFERENCES customer_profiles(id) ON DELETE CASCADE,
		start_time           TIMESTAMPTZ NOT NULL,
		end_time             TIMESTAMPTZ NOT NULL,
		profession           TEXT NOT NULL,
		status               TEXT NOT NULL CHECK (status IN ('UNASSIGNED', 'CONFIRMED', 'CANCELLED', 'COMPLETED')),
		assigned_handyman_id UUID REFERENCES handyman_profiles(id) ON DELETE SET NULL,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (start_time < end_time)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_booking_requests_customer_created
		ON booking_requests (customer_profile_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS event_logs (
		id         BIGSERIAL PRIMARY KEY,
		event_type TEXT NOT NULL,
		subject_id UUID NOT NULL,
		payload    JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pool.Close()

	for i, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			logger.Fatal("migration statement failed",
				zap.Int("statement", i),
				zap.Error(err))
		}
	}

	logger.Info("migrations applied", zap.Int("statements", len(statements)))
}
