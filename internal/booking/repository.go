package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound  = errors.New("booking request not found")
	ErrNoCoveringWindow = errors.New("no covering provider window")
	ErrNoFutureWindow   = errors.New("no future provider window")
)

// CoveringHandyman is a provider whose window fully contains a requested
// range.
type CoveringHandyman struct {
	ProfileID   uuid.UUID
	UserID      uuid.UUID
	Name        string
	Professions []string
}

// NearestSlot is the temporally closest future window of a qualifying
// provider.
type NearestSlot struct {
	HandymanUserID uuid.UUID
	HandymanName   string
	StartTime      time.Time
	EndTime        time.Time
}

type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByStartTime SortField = "start_time"
	SortByEndTime   SortField = "end_time"
)

// ListFilter narrows and pages a booking listing.
type ListFilter struct {
	Start      *time.Time
	End        *time.Time
	Status     *Status
	Profession *string
	SortBy     SortField
	Desc       bool
	Limit      int
	Offset     int
}

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	// FindCoveringHandyman returns the first provider offering the
	// profession with a window containing [start, end]. Selection is
	// deterministic: earliest-created profile, then lowest profile id.
	FindCoveringHandyman(ctx context.Context, profession string, start, end time.Time) (*CoveringHandyman, error)

	// FindNearestSlot returns the qualifying window with the smallest
	// start_time >= start, ties broken by window id.
	FindNearestSlot(ctx context.Context, profession string, start time.Time) (*NearestSlot, error)

	CreateConfirmed(ctx context.Context, customerProfileID uuid.UUID, start, end time.Time, profession string, assignedProfileID uuid.UUID) (*Detail, error)

	GetOwnedBooking(ctx context.Context, bookingID, actorUserID uuid.UUID) (*Request, error)

	// UpdateStatus flips status only when the current value is one of
	// from; returns ErrBookingNotFound when the compare fails.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) (*Request, error)

	ListOwnedBookings(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Detail, int, error)
}
