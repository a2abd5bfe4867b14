package eventlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	EventWindowCreated    = "WINDOW_CREATED"
	EventWindowUpdated    = "WINDOW_UPDATED"
	EventWindowDeleted    = "WINDOW_DELETED"
	EventBookingConfirmed = "BOOKING_CONFIRMED"
	EventBookingCancelled = "BOOKING_CANCELLED"
)

// Recorder appends domain events to the audit log. Recording is
// best-effort: failures are logged, never surfaced to the caller.
type Recorder interface {
	Record(ctx context.Context, subjectID uuid.UUID, eventType string, payload map[string]any)
}

type PgRecorder struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewPgRecorder(pool *pgxpool.Pool, log *zap.Logger) *PgRecorder {
	return &PgRecorder{pool: pool, log: log}
}

func (r *PgRecorder) Record(ctx context.Context, subjectID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.log.Warn("marshal event payload",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		data = nil
	}

	if err := r.insert(ctx, subjectID, eventType, data); err != nil {
		r.log.Warn("insert event log",
			zap.String("event_type", eventType),
			zap.String("subject_id", subjectID.String()),
			zap.Error(err),
		)
	}
}

func (r *PgRecorder) insert(ctx context.Context, subjectID uuid.UUID, eventType string, payload []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, subject_id, payload, created_at)
		VALUES ($1, $2, $3, now())
	`, eventType, subjectID, payload)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

// Nop discards all events, useful in tests.
type Nop struct{}

func (Nop) Record(ctx context.Context, subjectID uuid.UUID, eventType string, payload map[string]any) {
}
