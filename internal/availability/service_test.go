package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/account"
	"github.com/Dchole/handymen/internal/apperror"
	"github.com/Dchole/handymen/internal/eventlog"
	"github.com/Dchole/handymen/internal/pagination"
	redisclient "github.com/Dchole/handymen/internal/redis"
)

// Mock repository for testing
type mockRepository struct {
	findOverlappingFunc func(ctx context.Context, profileID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (*Window, error)
	createWindowFunc    func(ctx context.Context, profileID uuid.UUID, start, end time.Time) (*Window, error)
	getOwnedWindowFunc  func(ctx context.Context, windowID, actorUserID uuid.UUID) (*Window, error)
	updateWindowFunc    func(ctx context.Context, windowID uuid.UUID, start, end time.Time) (*Window, error)
	deleteOwnedFunc     func(ctx context.Context, windowID, actorUserID uuid.UUID) error
	listOwnedFunc       func(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Window, int, error)
	deleteEndedFunc     func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *mockRepository) FindOverlapping(ctx context.Context, profileID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (*Window, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, profileID, start, end, excludeID)
	}
	return nil, ErrNoOverlap
}

func (m *mockRepository) CreateWindow(ctx context.Context, profileID uuid.UUID, start, end time.Time) (*Window, error) {
	if m.createWindowFunc != nil {
		return m.createWindowFunc(ctx, profileID, start, end)
	}
	return &Window{ID: uuid.New(), HandymanProfileID: profileID, StartTime: start, EndTime: end}, nil
}

func (m *mockRepository) GetOwnedWindow(ctx context.Context, windowID, actorUserID uuid.UUID) (*Window, error) {
	if m.getOwnedWindowFunc != nil {
		return m.getOwnedWindowFunc(ctx, windowID, actorUserID)
	}
	return nil, ErrWindowNotFound
}

func (m *mockRepository) UpdateWindow(ctx context.Context, windowID uuid.UUID, start, end time.Time) (*Window, error) {
	if m.updateWindowFunc != nil {
		return m.updateWindowFunc(ctx, windowID, start, end)
	}
	return &Window{ID: windowID, StartTime: start, EndTime: end}, nil
}

func (m *mockRepository) DeleteOwnedWindow(ctx context.Context, windowID, actorUserID uuid.UUID) error {
	if m.deleteOwnedFunc != nil {
		return m.deleteOwnedFunc(ctx, windowID, actorUserID)
	}
	return nil
}

func (m *mockRepository) ListOwnedWindows(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Window, int, error) {
	if m.listOwnedFunc != nil {
		return m.listOwnedFunc(ctx, actorUserID, filter)
	}
	return nil, 0, nil
}

func (m *mockRepository) DeleteWindowsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.deleteEndedFunc != nil {
		return m.deleteEndedFunc(ctx, cutoff)
	}
	return 0, nil
}

type mockProfiles struct {
	profile *account.HandymanProfile
}

func (m *mockProfiles) GetHandymanProfileByUserID(ctx context.Context, userID uuid.UUID) (*account.HandymanProfile, error) {
	if m.profile == nil {
		return nil, account.ErrHandymanProfileNotFound
	}
	return m.profile, nil
}

type mockLocker struct {
	err      error
	acquired int
}

func (m *mockLocker) WithProviderLock(ctx context.Context, profileID uuid.UUID, fn func(ctx context.Context) error) error {
	if m.err != nil {
		return m.err
	}
	m.acquired++
	return fn(ctx)
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository, profiles ProfileDirectory, locker redisclient.Locker) *Service {
	svc := NewService(repo, profiles, locker, eventlog.Nop{}, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func handymanProfile() *account.HandymanProfile {
	return &account.HandymanProfile{ID: uuid.New(), UserID: uuid.New(), Professions: []string{"Plumber"}}
}

func TestCreateWindowValidation(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockProfiles{profile: handymanProfile()}, &mockLocker{})

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"zero times", time.Time{}, time.Time{}},
		{"start equals end", testNow.Add(time.Hour), testNow.Add(time.Hour)},
		{"start after end", testNow.Add(2 * time.Hour), testNow.Add(time.Hour)},
		{"start in the past", testNow.Add(-time.Hour), testNow.Add(time.Hour)},
	}

	for _, tc := range cases {
		_, err := svc.CreateWindow(context.Background(), uuid.New(), tc.start, tc.end)
		if !apperror.IsKind(err, apperror.KindValidation) {
			t.Errorf("%s: err = %v, want validation error", tc.name, err)
		}
	}
}

func TestCreateWindowNoProfile(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockProfiles{}, &mockLocker{})

	_, err := svc.CreateWindow(context.Background(), uuid.New(), testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	if !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCreateWindowOverlapConflict(t *testing.T) {
	repo := &mockRepository{
		findOverlappingFunc: func(ctx context.Context, profileID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (*Window, error) {
			return &Window{ID: uuid.New()}, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{profile: handymanProfile()}, &mockLocker{})

	_, err := svc.CreateWindow(context.Background(), uuid.New(), testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	if !apperror.IsKind(err, apperror.KindConflict) {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestCreateWindowUnderLock(t *testing.T) {
	profile := handymanProfile()
	locker := &mockLocker{}
	var checkedProfile uuid.UUID
	repo := &mockRepository{
		findOverlappingFunc: func(ctx context.Context, profileID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (*Window, error) {
			checkedProfile = profileID
			if excludeID != nil {
				t.Error("create should not exclude any window from the overlap check")
			}
			return nil, ErrNoOverlap
		},
	}
	svc := newTestService(repo, &mockProfiles{profile: profile}, locker)

	w, err := svc.CreateWindow(context.Background(), profile.UserID, testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if locker.acquired != 1 {
		t.Errorf("lock acquired %d times, want 1", locker.acquired)
	}
	if checkedProfile != profile.ID {
		t.Errorf("overlap checked against profile %s, want %s", checkedProfile, profile.ID)
	}
	if w.HandymanProfileID != profile.ID {
		t.Errorf("window profile = %s, want %s", w.HandymanProfileID, profile.ID)
	}
}

func TestCreateWindowLockContention(t *testing.T) {
	locker := &mockLocker{err: redisclient.ErrLockNotAcquired}
	svc := newTestService(&mockRepository{}, &mockProfiles{profile: handymanProfile()}, locker)

	_, err := svc.CreateWindow(context.Background(), uuid.New(), testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	if !apperror.IsKind(err, apperror.KindConflict) {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestEditWindowExcludesItself(t *testing.T) {
	windowID := uuid.New()
	profileID := uuid.New()
	var gotExclude *uuid.UUID

	repo := &mockRepository{
		getOwnedWindowFunc: func(ctx context.Context, id, actorUserID uuid.UUID) (*Window, error) {
			return &Window{ID: windowID, HandymanProfileID: profileID}, nil
		},
		findOverlappingFunc: func(ctx context.Context, pid uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (*Window, error) {
			gotExclude = excludeID
			return nil, ErrNoOverlap
		},
	}
	svc := newTestService(repo, &mockProfiles{profile: handymanProfile()}, &mockLocker{})

	_, err := svc.EditWindow(context.Background(), uuid.New(), windowID, testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotExclude == nil || *gotExclude != windowID {
		t.Errorf("overlap exclude = %v, want %s", gotExclude, windowID)
	}
}

func TestEditWindowOverlapWithOther(t *testing.T) {
	repo := &mockRepository{
		getOwnedWindowFunc: func(ctx context.Context, id, actorUserID uuid.UUID) (*Window, error) {
			return &Window{ID: id, HandymanProfileID: uuid.New()}, nil
		},
		findOverlappingFunc: func(ctx context.Context, pid uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (*Window, error) {
			return &Window{ID: uuid.New()}, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{profile: handymanProfile()}, &mockLocker{})

	_, err := svc.EditWindow(context.Background(), uuid.New(), uuid.New(), testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	if !apperror.IsKind(err, apperror.KindConflict) {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestEditWindowNotOwned(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockProfiles{profile: handymanProfile()}, &mockLocker{})

	_, err := svc.EditWindow(context.Background(), uuid.New(), uuid.New(), testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	if !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestDeleteWindowNotFound(t *testing.T) {
	repo := &mockRepository{
		deleteOwnedFunc: func(ctx context.Context, windowID, actorUserID uuid.UUID) error {
			return ErrWindowNotFound
		},
	}
	svc := newTestService(repo, &mockProfiles{}, &mockLocker{})

	err := svc.DeleteWindow(context.Background(), uuid.New(), uuid.New())
	if !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestListWindowsDefaultsToFuture(t *testing.T) {
	var gotFilter ListFilter
	repo := &mockRepository{
		listOwnedFunc: func(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Window, int, error) {
			gotFilter = filter
			return nil, 0, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{}, &mockLocker{})

	_, err := svc.ListWindows(context.Background(), uuid.New(), ListQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFilter.Start == nil || !gotFilter.Start.Equal(testNow) {
		t.Errorf("default start filter = %v, want %v", gotFilter.Start, testNow)
	}
	if gotFilter.Sort != SortAsc {
		t.Errorf("default sort = %s, want asc", gotFilter.Sort)
	}
	if gotFilter.Limit != pagination.DefaultLimit || gotFilter.Offset != 0 {
		t.Errorf("default paging = limit %d offset %d", gotFilter.Limit, gotFilter.Offset)
	}
}

func TestListWindowsExplicitStartReplacesDefault(t *testing.T) {
	explicit := testNow.Add(-48 * time.Hour)
	var gotFilter ListFilter
	repo := &mockRepository{
		listOwnedFunc: func(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Window, int, error) {
			gotFilter = filter
			return nil, 0, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{}, &mockLocker{})

	_, err := svc.ListWindows(context.Background(), uuid.New(), ListQuery{Start: &explicit})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFilter.Start == nil || !gotFilter.Start.Equal(explicit) {
		t.Errorf("start filter = %v, want explicit bound %v", gotFilter.Start, explicit)
	}
}

func TestListWindowsPaginationMeta(t *testing.T) {
	repo := &mockRepository{
		listOwnedFunc: func(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Window, int, error) {
			windows := make([]Window, 5)
			return windows, 15, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{}, &mockLocker{})

	res, err := svc.ListWindows(context.Background(), uuid.New(), ListQuery{
		Page: pagination.Params{Page: 2, Limit: 10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Windows) != 5 {
		t.Errorf("items = %d, want 5", len(res.Windows))
	}
	if res.Meta.TotalPages != 2 || res.Meta.HasNextPage || !res.Meta.HasPrevPage {
		t.Errorf("meta = %+v, want totalPages 2, next false, prev true", res.Meta)
	}
}

func TestListWindowsInvalidSort(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockProfiles{}, &mockLocker{})

	_, err := svc.ListWindows(context.Background(), uuid.New(), ListQuery{Sort: "sideways"})
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestPruneEndedWindowsCutoff(t *testing.T) {
	var gotCutoff time.Time
	repo := &mockRepository{
		deleteEndedFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
			gotCutoff = cutoff
			return 3, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{}, &mockLocker{})

	n, err := svc.PruneEndedWindows(context.Background(), 30*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}
	want := testNow.Add(-30 * 24 * time.Hour)
	if !gotCutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", gotCutoff, want)
	}
}
