package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/account"
	"github.com/Dchole/handymen/internal/apperror"
	"github.com/Dchole/handymen/internal/eventlog"
	"github.com/Dchole/handymen/internal/pagination"
)

// ProfileDirectory is the slice of the account repository the booking
// service needs to resolve the acting customer.
type ProfileDirectory interface {
	GetCustomerProfileByUserID(ctx context.Context, userID uuid.UUID) (*account.CustomerProfile, error)
}

type ListQuery struct {
	Start      *time.Time
	End        *time.Time
	Status     *Status
	Profession *string
	SortBy     SortField
	Desc       bool
	Page       pagination.Params
}

type ListResult struct {
	Bookings []Detail
	Meta     pagination.Meta
}

type Service struct {
	repo     Repository
	profiles ProfileDirectory
	events   eventlog.Recorder
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, profiles ProfileDirectory, events eventlog.Recorder, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// RequestBooking matches the customer's ask against provider availability.
// On a covering window it creates a CONFIRMED booking; otherwise it returns
// the nearest future slot as a suggestion, persisting nothing. The two
// lookups are separate reads; a race between them can only make the
// suggestion slightly stale, never create a wrong booking.
func (s *Service) RequestBooking(ctx context.Context, actorID uuid.UUID, start, end time.Time, profession string) (*MatchResult, error) {
	profession = strings.TrimSpace(profession)

	switch {
	case profession == "":
		return nil, apperror.Validation("profession is required")
	case start.IsZero() || end.IsZero():
		return nil, apperror.Validation("start and end times are required")
	case !start.Before(end):
		return nil, apperror.Validation("start time must be before end time")
	case start.Before(s.now()):
		return nil, apperror.Validation("cannot book time slots in the past")
	}

	profile, err := s.profiles.GetCustomerProfileByUserID(ctx, actorID)
	if err != nil {
		if errors.Is(err, account.ErrCustomerProfileNotFound) {
			return nil, apperror.NotFound("customer profile")
		}
		return nil, apperror.Unexpected(fmt.Errorf("load customer profile: %w", err))
	}

	handyman, err := s.repo.FindCoveringHandyman(ctx, profession, start, end)
	if err != nil {
		if errors.Is(err, ErrNoCoveringWindow) {
			return s.suggestNearest(ctx, profession, start)
		}
		return nil, apperror.Unexpected(fmt.Errorf("match handyman: %w", err))
	}

	detail, err := s.repo.CreateConfirmed(ctx, profile.ID, start, end, profession, handyman.ProfileID)
	if err != nil {
		return nil, apperror.Unexpected(fmt.Errorf("create booking: %w", err))
	}

	s.events.Record(ctx, detail.ID, eventlog.EventBookingConfirmed, map[string]any{
		"customer_profile_id":  profile.ID.String(),
		"assigned_handyman_id": handyman.ProfileID.String(),
		"profession":           profession,
		"start_time":           start,
		"end_time":             end,
	})

	return &MatchResult{Booking: detail}, nil
}

func (s *Service) suggestNearest(ctx context.Context, profession string, start time.Time) (*MatchResult, error) {
	slot, err := s.repo.FindNearestSlot(ctx, profession, start)
	if err != nil {
		if errors.Is(err, ErrNoFutureWindow) {
			// Nobody offers the profession at a usable time; a plain
			// negative result, not an error.
			return &MatchResult{}, nil
		}
		return nil, apperror.Unexpected(fmt.Errorf("find nearest slot: %w", err))
	}

	diffHours := math.Round(slot.StartTime.Sub(start).Hours()*10) / 10

	return &MatchResult{
		Recommendation: &Recommendation{
			HandymanUserID:      slot.HandymanUserID,
			HandymanName:        slot.HandymanName,
			SuggestedStart:      slot.StartTime,
			SuggestedEnd:        slot.EndTime,
			TimeDifferenceHours: diffHours,
		},
	}, nil
}

// CancelBooking flips an owned booking to CANCELLED. Re-cancelling an
// already cancelled booking is a no-op success.
func (s *Service) CancelBooking(ctx context.Context, actorID, bookingID uuid.UUID) error {
	b, err := s.repo.GetOwnedBooking(ctx, bookingID, actorID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return apperror.NotFound("booking request")
		}
		return apperror.Unexpected(fmt.Errorf("load booking: %w", err))
	}

	if b.Status == StatusCancelled {
		return nil
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return apperror.Conflict(fmt.Sprintf("cannot cancel a %s booking", strings.ToLower(string(b.Status))))
	}

	_, err = s.repo.UpdateStatus(ctx, bookingID, []Status{StatusConfirmed, StatusUnassigned}, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			// Lost a race with another writer; the status moved after we
			// read it.
			return apperror.Conflict("booking was modified concurrently, please retry")
		}
		return apperror.Unexpected(fmt.Errorf("cancel booking: %w", err))
	}

	s.events.Record(ctx, bookingID, eventlog.EventBookingCancelled, map[string]any{
		"previous_status": string(b.Status),
	})

	return nil
}

// ListBookings pages through the actor's booking requests.
func (s *Service) ListBookings(ctx context.Context, actorID uuid.UUID, query ListQuery) (*ListResult, error) {
	if err := query.Page.Normalize(); err != nil {
		return nil, err
	}

	sortBy := query.SortBy
	switch sortBy {
	case "":
		sortBy = SortByCreatedAt
	case SortByCreatedAt, SortByStartTime, SortByEndTime:
	default:
		return nil, apperror.Validation("sortBy must be created_at, start_time or end_time")
	}

	if query.Status != nil && !ValidStatus(*query.Status) {
		return nil, apperror.Validation("invalid booking status filter")
	}

	filter := ListFilter{
		Start:      query.Start,
		End:        query.End,
		Status:     query.Status,
		Profession: query.Profession,
		SortBy:     sortBy,
		Desc:       query.Desc,
		Limit:      query.Page.Limit,
		Offset:     query.Page.Offset(),
	}

	bookings, total, err := s.repo.ListOwnedBookings(ctx, actorID, filter)
	if err != nil {
		return nil, apperror.Unexpected(fmt.Errorf("list bookings: %w", err))
	}

	return &ListResult{
		Bookings: bookings,
		Meta:     pagination.NewMeta(query.Page, total),
	}, nil
}
