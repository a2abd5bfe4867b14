package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrWindowNotFound = errors.New("availability window not found")
	ErrNoOverlap      = errors.New("no overlapping window")
)

// SortOrder is the start-time ordering for listings.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListFilter narrows and pages a window listing. Start/End are optional
// bounds on start_time/end_time respectively.
type ListFilter struct {
	Start  *time.Time
	End    *time.Time
	Sort   SortOrder
	Limit  int
	Offset int
}

// Repository contains all DB interactions needed by the availability service.
type Repository interface {
	// FindOverlapping returns a window of the profile that intersects
	// [start, end), or ErrNoOverlap. excludeID skips the window being
	// edited.
	FindOverlapping(ctx context.Context, profileID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (*Window, error)

	CreateWindow(ctx context.Context, profileID uuid.UUID, start, end time.Time) (*Window, error)

	// GetOwnedWindow resolves a window through its owning profile's user.
	GetOwnedWindow(ctx context.Context, windowID, actorUserID uuid.UUID) (*Window, error)
	UpdateWindow(ctx context.Context, windowID uuid.UUID, start, end time.Time) (*Window, error)
	DeleteOwnedWindow(ctx context.Context, windowID, actorUserID uuid.UUID) error

	ListOwnedWindows(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Window, int, error)

	// Retention cleanup, used by the prune worker.
	DeleteWindowsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
