package booking

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
)

// Mock repository for testing
type mockRepository struct {
	findCoveringFunc    func(ctx context.Context, profession string, start, end time.Time) (*CoveringHandyman, error)
	findNearestFunc     func(ctx context.Context, profession string, start time.Time) (*NearestSlot, error)
	createConfirmedFunc func(ctx context.Context, customerProfileID uuid.UUID, start, end time.Time, profession string, assignedProfileID uuid.UUID) (*Detail, error)
	getOwnedFunc        func(ctx context.Context, bookingID, actorUserID uuid.UUID) (*Request, error)
	updateStatusFunc    func(ctx context.Context, id uuid.UUID, from []Status, to Status) (*Request, error)
	listOwnedFunc       func(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Detail, int, error)
}

func (m *mockRepository) FindCoveringHandyman(ctx context.Context, profession string, start, end time.Time) (*CoveringHandyman, error) {
	if m.findCoveringFunc != nil {
		return m.findCoveringFunc(ctx, profession, start, end)
	}
	return nil, ErrNoCoveringWindow
}

func (m *mockRepository) FindNearestSlot(ctx context.Context, profession string, start time.Time) (*NearestSlot, error) {
	if m.findNearestFunc != nil {
		return m.findNearestFunc(ctx, profession, start)
	}
	return nil, ErrNoFutureWindow
}

func (m *mockRepository) CreateConfirmed(ctx context.Context, customerProfileID uuid.UUID, start, end time.Time, profession string, assignedProfileID uuid.UUID) (*Detail, error) {
	if m.createConfirmedFunc != nil {
		return m.createConfirmedFunc(ctx, customerProfileID, start, end, profession, assignedProfileID)
	}
	return &Detail{
		Request: Request{
			ID:                 uuid.New(),
			CustomerProfileID:  customerProfileID,
			StartTime:          start,
			EndTime:            end,
			Profession:         profession,
			Status:             StatusConfirmed,
			AssignedHandymanID: &assignedProfileID,
		},
	}, nil
}

func (m *mockRepository) GetOwnedBooking(ctx context.Context, bookingID, actorUserID uuid.UUID) (*Request, error) {
	if m.getOwnedFunc != nil {
		return m.getOwnedFunc(ctx, bookingID, actorUserID)
	}
	return nil, ErrBookingNotFound
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) (*Request, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to)
	}
	return &Request{ID: id, Status: to}, nil
}

func (m *mockRepository) ListOwnedBookings(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Detail, int, error) {
	if m.listOwnedFunc != nil {
		return m.listOwnedFunc(ctx, actorUserID, filter)
	}
	return nil, 0, nil
}

type mockProfiles struct {
	profile *account.CustomerProfile
}

func (m *mockProfiles) GetCustomerProfileByUserID(ctx context.Context, userID uuid.UUID) (*account.CustomerProfile, error) {
	if m.profile == nil {
		return nil, account.ErrCustomerProfileNotFound
	}
	return m.profile, nil
}

var testNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func newTestService(repo Repository, profiles ProfileDirectory) *Service {
	svc := NewService(repo, profiles, eventlog.Nop{}, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func customerProfile() *account.CustomerProfile {
	return &account.CustomerProfile{ID: uuid.New(), UserID: uuid.New()}
}

func TestRequestBookingValidation(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockProfiles{profile: customerProfile()})

	cases := []struct {
		name       string
		start, end time.Time
		profession string
	}{
		{"empty profession", testNow.Add(time.Hour), testNow.Add(2 * time.Hour), "  "},
		{"zero times", time.Time{}, time.Time{}, "Plumber"},
		{"start equals end", testNow.Add(time.Hour), testNow.Add(time.Hour), "Plumber"},
		{"start in the past", testNow.Add(-time.Minute), testNow.Add(time.Hour), "Plumber"},
	}

	for _, tc := range cases {
		_, err := svc.RequestBooking(context.Background(), uuid.New(), tc.start, tc.end, tc.profession)
		if !apperror.IsKind(err, apperror.KindValidation) {
			t.Errorf("%s: err = %v, want validation error", tc.name, err)
		}
	}
}

func TestRequestBookingNoCustomerProfile(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockProfiles{})

	_, err := svc.RequestBooking(context.Background(), uuid.New(), testNow.Add(time.Hour), testNow.Add(2*time.Hour), "Plumber")
	if !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestRequestBookingExactMatch(t *testing.T) {
	profile := customerProfile()
	matched := &CoveringHandyman{ProfileID: uuid.New(), UserID: uuid.New(), Name: "Yaw Boateng", Professions: []string{"Plumber"}}

	var createdFor uuid.UUID
	repo := &mockRepository{
		findCoveringFunc: func(ctx context.Context, profession string, start, end time.Time) (*CoveringHandyman, error) {
			return matched, nil
		},
		createConfirmedFunc: func(ctx context.Context, customerProfileID uuid.UUID, start, end time.Time, profession string, assignedProfileID uuid.UUID) (*Detail, error) {
			createdFor = assignedProfileID
			return &Detail{
				Request: Request{
					ID:                 uuid.New(),
					CustomerProfileID:  customerProfileID,
					Status:             StatusConfirmed,
					AssignedHandymanID: &assignedProfileID,
				},
				Handyman: &AssignedHandyman{ProfileID: assignedProfileID, UserID: matched.UserID, Name: matched.Name},
			}, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{profile: profile})

	res, err := svc.RequestBooking(context.Background(), profile.UserID, testNow.Add(time.Hour), testNow.Add(2*time.Hour), "Plumber")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Matched() {
		t.Fatal("expected a confirmed booking")
	}
	if res.Booking.Status != StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", res.Booking.Status)
	}
	if createdFor != matched.ProfileID {
		t.Errorf("assigned profile = %s, want %s", createdFor, matched.ProfileID)
	}
	if res.Recommendation != nil {
		t.Error("recommendation present on an exact match")
	}
}

func TestRequestBookingNearestSlotFallback(t *testing.T) {
	// Provider offers Plumber on day 2 at 10:00; customer asks for day 1
	// 09:00-10:00. Suggested slot is 25 hours away.
	requestStart := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	requestEnd := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	slotStart := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	slotEnd := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	created := false
	repo := &mockRepository{
		findNearestFunc: func(ctx context.Context, profession string, start time.Time) (*NearestSlot, error) {
			return &NearestSlot{
				HandymanUserID: uuid.New(),
				HandymanName:   "Esi Owusu",
				StartTime:      slotStart,
				EndTime:        slotEnd,
			}, nil
		},
		createConfirmedFunc: func(ctx context.Context, customerProfileID uuid.UUID, start, end time.Time, profession string, assignedProfileID uuid.UUID) (*Detail, error) {
			created = true
			return nil, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{profile: customerProfile()})

	res, err := svc.RequestBooking(context.Background(), uuid.New(), requestStart, requestEnd, "Plumber")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Matched() {
		t.Fatal("expected no booking")
	}
	if created {
		t.Error("booking row created for a fallback suggestion")
	}
	rec := res.Recommendation
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.TimeDifferenceHours != 25.0 {
		t.Errorf("timeDifferenceHours = %v, want 25.0", rec.TimeDifferenceHours)
	}
	if !rec.SuggestedStart.Equal(slotStart) || !rec.SuggestedEnd.Equal(slotEnd) {
		t.Errorf("suggested range = [%v, %v], want [%v, %v]", rec.SuggestedStart, rec.SuggestedEnd, slotStart, slotEnd)
	}
}

func TestRequestBookingTimeDifferenceRounding(t *testing.T) {
	requestStart := testNow.Add(time.Hour)
	slotStart := requestStart.Add(90*time.Minute + 100*time.Second) // 1.527… hours

	repo := &mockRepository{
		findNearestFunc: func(ctx context.Context, profession string, start time.Time) (*NearestSlot, error) {
			return &NearestSlot{StartTime: slotStart, EndTime: slotStart.Add(time.Hour)}, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{profile: customerProfile()})

	res, err := svc.RequestBooking(context.Background(), uuid.New(), requestStart, requestStart.Add(time.Hour), "Electrician")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Recommendation == nil {
		t.Fatal("expected a recommendation")
	}
	if got := res.Recommendation.TimeDifferenceHours; got != 1.5 {
		t.Errorf("timeDifferenceHours = %v, want 1.5", got)
	}
}

func TestRequestBookingProfessionNowhereOffered(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockProfiles{profile: customerProfile()})

	res, err := svc.RequestBooking(context.Background(), uuid.New(), testNow.Add(time.Hour), testNow.Add(2*time.Hour), "Falconer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Matched() || res.Recommendation != nil {
		t.Errorf("result = %+v, want plain failure with no recommendation", res)
	}
}

func TestCancelBookingNotOwned(t *testing.T) {
	updated := false
	repo := &mockRepository{
		updateStatusFunc: func(ctx context.Context, id uuid.UUID, from []Status, to Status) (*Request, error) {
			updated = true
			return nil, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{})

	err := svc.CancelBooking(context.Background(), uuid.New(), uuid.New())
	if !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
	if updated {
		t.Error("status changed for a booking the actor does not own")
	}
}

func TestCancelBookingConfirmed(t *testing.T) {
	bookingID := uuid.New()
	var casFrom []Status
	repo := &mockRepository{
		getOwnedFunc: func(ctx context.Context, id, actorUserID uuid.UUID) (*Request, error) {
			return &Request{ID: id, Status: StatusConfirmed}, nil
		},
		updateStatusFunc: func(ctx context.Context, id uuid.UUID, from []Status, to Status) (*Request, error) {
			casFrom = from
			return &Request{ID: id, Status: to}, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{})

	if err := svc.CancelBooking(context.Background(), uuid.New(), bookingID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(casFrom) != 2 {
		t.Errorf("compare-and-swap from set = %v, want CONFIRMED and UNASSIGNED", casFrom)
	}
}

func TestCancelBookingAlreadyCancelledIsNoOp(t *testing.T) {
	updated := false
	repo := &mockRepository{
		getOwnedFunc: func(ctx context.Context, id, actorUserID uuid.UUID) (*Request, error) {
			return &Request{ID: id, Status: StatusCancelled}, nil
		},
		updateStatusFunc: func(ctx context.Context, id uuid.UUID, from []Status, to Status) (*Request, error) {
			updated = true
			return nil, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{})

	if err := svc.CancelBooking(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Errorf("re-cancel returned %v, want nil", err)
	}
	if updated {
		t.Error("re-cancel touched the row")
	}
}

func TestCancelBookingCompletedConflicts(t *testing.T) {
	repo := &mockRepository{
		getOwnedFunc: func(ctx context.Context, id, actorUserID uuid.UUID) (*Request, error) {
			return &Request{ID: id, Status: StatusCompleted}, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{})

	err := svc.CancelBooking(context.Background(), uuid.New(), uuid.New())
	if !apperror.IsKind(err, apperror.KindConflict) {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestStatusTransitionTable(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusConfirmed, StatusCancelled},
		{StatusUnassigned, StatusCancelled},
	}
	for _, tr := range allowed {
		if !CanTransition(tr.from, tr.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tr.from, tr.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusCancelled, StatusConfirmed},
		{StatusCompleted, StatusCancelled},
		{StatusConfirmed, StatusCompleted},
	}
	for _, tr := range denied {
		if CanTransition(tr.from, tr.to) {
			t.Errorf("CanTransition(%s, %s) = true, want false", tr.from, tr.to)
		}
	}
}

func TestListBookingsFiltersAndMeta(t *testing.T) {
	status := StatusConfirmed
	profession := "Plumber"
	var gotFilter ListFilter

	repo := &mockRepository{
		listOwnedFunc: func(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Detail, int, error) {
			gotFilter = filter
			return make([]Detail, 5), 15, nil
		},
	}
	svc := newTestService(repo, &mockProfiles{})

	res, err := svc.ListBookings(context.Background(), uuid.New(), ListQuery{
		Status:     &status,
		Profession: &profession,
		SortBy:     SortByStartTime,
		Desc:       true,
		Page:       pagination.Params{Page: 2, Limit: 10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFilter.Status == nil || *gotFilter.Status != StatusConfirmed {
		t.Error("status filter not forwarded")
	}
	if gotFilter.SortBy != SortByStartTime || !gotFilter.Desc {
		t.Errorf("sort = %s desc=%v, want start_time desc", gotFilter.SortBy, gotFilter.Desc)
	}
	if res.Meta.TotalPages != 2 || res.Meta.HasNextPage || !res.Meta.HasPrevPage {
		t.Errorf("meta = %+v", res.Meta)
	}
}

func TestListBookingsInvalidSortBy(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockProfiles{})

	_, err := svc.ListBookings(context.Background(), uuid.New(), ListQuery{SortBy: "profession"})
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}
