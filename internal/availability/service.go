package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/account"
	"github.com/Dchole/handymen/internal/apperror"
	"github.com/Dchole/handymen/internal/eventlog"
	"github.com/Dchole/handymen/internal/pagination"
	redisclient "github.com/Dchole/handymen/internal/redis"
)

// ProfileDirectory is the slice of the account repository the availability
// service needs to resolve the acting handyman.
type ProfileDirectory interface {
	GetHandymanProfileByUserID(ctx context.Context, userID uuid.UUID) (*account.HandymanProfile, error)
}

type ListQuery struct {
	Start *time.Time
	End   *time.Time
	Sort  SortOrder
	Page  pagination.Params
}

type ListResult struct {
	Windows []Window
	Meta    pagination.Meta
}

type Service struct {
	repo     Repository
	profiles ProfileDirectory
	locker   redisclient.Locker
	events   eventlog.Recorder
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, profiles ProfileDirectory, locker redisclient.Locker, events eventlog.Recorder, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		locker:   locker,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperror.Validation("start and end times are required")
	}
	if !start.Before(end) {
		return apperror.Validation("start time must be before end time")
	}
	if start.Before(s.now()) {
		return apperror.Validation("cannot set availability in the past")
	}
	return nil
}

// CreateWindow adds an availability window for the acting handyman. The
// overlap check and the insert run under a per-profile lock so concurrent
// creates for the same profile cannot both pass the check.
func (s *Service) CreateWindow(ctx context.Context, actorID uuid.UUID, start, end time.Time) (*Window, error) {
	if err := s.validateRange(start, end); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetHandymanProfileByUserID(ctx, actorID)
	if err != nil {
		if errors.Is(err, account.ErrHandymanProfileNotFound) {
			return nil, apperror.NotFound("handyman profile")
		}
		return nil, apperror.Unexpected(fmt.Errorf("load handyman profile: %w", err))
	}

	var created *Window

	err = s.locker.WithProviderLock(ctx, profile.ID, func(lockCtx context.Context) error {
		if _, err := s.repo.FindOverlapping(lockCtx, profile.ID, start, end, nil); err == nil {
			return apperror.Conflict("time slot overlaps with existing availability")
		} else if !errors.Is(err, ErrNoOverlap) {
			return apperror.Unexpected(fmt.Errorf("check overlap: %w", err))
		}

		w, err := s.repo.CreateWindow(lockCtx, profile.ID, start, end)
		if err != nil {
			return apperror.Unexpected(fmt.Errorf("create window: %w", err))
		}

		created = w
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, apperror.Conflict("availability is currently being modified, please retry")
		}
		return nil, err
	}

	s.events.Record(ctx, created.ID, eventlog.EventWindowCreated, map[string]any{
		"handyman_profile_id": profile.ID.String(),
		"start_time":          start,
		"end_time":            end,
	})

	return created, nil
}

// EditWindow re-validates the new range against every other window of the
// same profile; the window being edited may freely overlap itself.
func (s *Service) EditWindow(ctx context.Context, actorID, windowID uuid.UUID, start, end time.Time) (*Window, error) {
	if err := s.validateRange(start, end); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetOwnedWindow(ctx, windowID, actorID)
	if err != nil {
		if errors.Is(err, ErrWindowNotFound) {
			return nil, apperror.NotFound("availability slot")
		}
		return nil, apperror.Unexpected(fmt.Errorf("load window: %w", err))
	}

	var updated *Window

	err = s.locker.WithProviderLock(ctx, existing.HandymanProfileID, func(lockCtx context.Context) error {
		if _, err := s.repo.FindOverlapping(lockCtx, existing.HandymanProfileID, start, end, &windowID); err == nil {
			return apperror.Conflict("updated time slot overlaps with existing availability")
		} else if !errors.Is(err, ErrNoOverlap) {
			return apperror.Unexpected(fmt.Errorf("check overlap: %w", err))
		}

		w, err := s.repo.UpdateWindow(lockCtx, windowID, start, end)
		if err != nil {
			return apperror.Unexpected(fmt.Errorf("update window: %w", err))
		}

		updated = w
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, apperror.Conflict("availability is currently being modified, please retry")
		}
		return nil, err
	}

	s.events.Record(ctx, updated.ID, eventlog.EventWindowUpdated, map[string]any{
		"start_time": start,
		"end_time":   end,
	})

	return updated, nil
}

func (s *Service) DeleteWindow(ctx context.Context, actorID, windowID uuid.UUID) error {
	err := s.repo.DeleteOwnedWindow(ctx, windowID, actorID)
	if err != nil {
		if errors.Is(err, ErrWindowNotFound) {
			return apperror.NotFound("availability slot")
		}
		return apperror.Unexpected(fmt.Errorf("delete window: %w", err))
	}

	s.events.Record(ctx, windowID, eventlog.EventWindowDeleted, map[string]any{})

	return nil
}

// ListWindows pages through the actor's windows, by default only those
// starting from now; an explicit start bound replaces the default.
func (s *Service) ListWindows(ctx context.Context, actorID uuid.UUID, query ListQuery) (*ListResult, error) {
	if err := query.Page.Normalize(); err != nil {
		return nil, err
	}

	sort := query.Sort
	switch sort {
	case "":
		sort = SortAsc
	case SortAsc, SortDesc:
	default:
		return nil, apperror.Validation("sort must be asc or desc")
	}

	start := query.Start
	if start == nil {
		now := s.now()
		start = &now
	}

	filter := ListFilter{
		Start:  start,
		End:    query.End,
		Sort:   sort,
		Limit:  query.Page.Limit,
		Offset: query.Page.Offset(),
	}

	windows, total, err := s.repo.ListOwnedWindows(ctx, actorID, filter)
	if err != nil {
		return nil, apperror.Unexpected(fmt.Errorf("list windows: %w", err))
	}

	return &ListResult{
		Windows: windows,
		Meta:    pagination.NewMeta(query.Page, total),
	}, nil
}

// PruneEndedWindows deletes windows that ended before the retention cutoff.
func (s *Service) PruneEndedWindows(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)

	n, err := s.repo.DeleteWindowsEndedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune ended windows: %w", err)
	}

	if n > 0 {
		s.log.Info("pruned availability windows",
			zap.Int64("deleted", n),
			zap.Time("cutoff", cutoff),
		)
	}

	return n, nil
}
