package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/account"
	"github.com/Dchole/handymen/internal/auth"
	"github.com/Dchole/handymen/internal/availability"
	"github.com/Dchole/handymen/internal/booking"
)

type RouterConfig struct {
	Accounts     *account.Service
	Availability *availability.Service
	Bookings     *booking.Service
	Tokens       *auth.TokenManager
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Logger       *zap.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public auth endpoints
	r.Post("/auth/register", registerHandler(cfg.Accounts, cfg.Logger))
	r.Post("/auth/login", loginHandler(cfg.Accounts, cfg.Logger))

	// Everything below requires a bearer token; handlers receive the
	// resolved actor id, never raw client-supplied identity.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens))

		r.Get("/me", meHandler(cfg.Accounts, cfg.Logger))

		r.Post("/availability", createWindowHandler(cfg.Availability, cfg.Logger))
		r.Get("/availability", listWindowsHandler(cfg.Availability, cfg.Logger))
		r.Put("/availability/{id}", editWindowHandler(cfg.Availability, cfg.Logger))
		r.Delete("/availability/{id}", deleteWindowHandler(cfg.Availability, cfg.Logger))

		r.Post("/booking-requests", requestBookingHandler(cfg.Bookings, cfg.Logger))
		r.Get("/booking-requests", listBookingsHandler(cfg.Bookings, cfg.Logger))
		r.Post("/booking-requests/{id}/cancel", cancelBookingHandler(cfg.Bookings, cfg.Logger))
	})

	return r
}
