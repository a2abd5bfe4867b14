package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUnassigned Status = "UNASSIGNED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCancelled  Status = "CANCELLED"
	StatusCompleted  Status = "COMPLETED"
)

// transitions is the closed state table. Nothing in the service currently
// drives a booking into UNASSIGNED or COMPLETED; their outgoing edges are
// limited to cancellation until those flows are defined.
var transitions = map[Status][]Status{
	StatusUnassigned: {StatusCancelled},
	StatusConfirmed:  {StatusCancelled},
	StatusCancelled:  {},
	StatusCompleted:  {},
}

// CanTransition reports whether the status change is allowed.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

type Request struct {
	ID                 uuid.UUID
	CustomerProfileID  uuid.UUID
	StartTime          time.Time
	EndTime            time.Time
	Profession         string
	Status             Status
	AssignedHandymanID *uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AssignedHandyman is the provider identity exposed next to a booking.
type AssignedHandyman struct {
	ProfileID   uuid.UUID
	UserID      uuid.UUID
	Name        string
	Professions []string
}

// Detail is a request hydrated with its assigned handyman, if any.
type Detail struct {
	Request
	Handyman *AssignedHandyman
}

// Recommendation is the nearest-slot fallback returned when no provider
// covers the requested range. It is never persisted.
type Recommendation struct {
	HandymanUserID      uuid.UUID
	HandymanName        string
	SuggestedStart      time.Time
	SuggestedEnd        time.Time
	TimeDifferenceHours float64
}

// MatchResult is the outcome of a booking request: either a confirmed
// booking, or no availability with an optional recommendation.
type MatchResult struct {
	Booking        *Detail
	Recommendation *Recommendation
}

// Matched reports whether a provider was assigned.
func (r *MatchResult) Matched() bool {
	return r.Booking != nil
}
