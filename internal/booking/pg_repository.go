package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanRequest(row pgx.Row) (*Request, error) {
	var b Request
	var assigned *uuid.UUID

	err := row.Scan(
		&b.ID,
		&b.CustomerProfileID,
		&b.StartTime,
		&b.EndTime,
		&b.Profession,
		&b.Status,
		&assigned,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.AssignedHandymanID = assigned
	return &b, nil
}

func scanDetail(row pgx.Row) (*Detail, error) {
	var d Detail
	var assigned *uuid.UUID
	var handymanUserID *uuid.UUID
	var firstName, lastName *string
	var professions []string

	err := row.Scan(
		&d.ID,
		&d.CustomerProfileID,
		&d.StartTime,
		&d.EndTime,
		&d.Profession,
		&d.Status,
		&assigned,
		&d.CreatedAt,
		&d.UpdatedAt,
		&handymanUserID,
		&firstName,
		&lastName,
		&professions,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	d.AssignedHandymanID = assigned
	if assigned != nil && handymanUserID != nil {
		d.Handyman = &AssignedHandyman{
			ProfileID:   *assigned,
			UserID:      *handymanUserID,
			Name:        *firstName + " " + *lastName,
			Professions: professions,
		}
	}

	return &d, nil
}

const detailColumns = `
	b.id, b.customer_profile_id, b.start_time, b.end_time, b.profession,
	b.status, b.assigned_handyman_id, b.created_at, b.updated_at,
	u.id, u.first_name, u.last_name, hp.professions
`

const detailJoins = `
	LEFT JOIN handyman_profiles hp ON hp.id = b.assigned_handyman_id
	LEFT JOIN users u ON u.id = hp.user_id
`

// Interface methods

func (r *PgRepository) FindCoveringHandyman(ctx context.Context, profession string, start, end time.Time) (*CoveringHandyman, error) {
	var h CoveringHandyman

	// Tie-break is earliest-created profile, then lowest id, so repeated
	// requests for the same range always land on the same provider.
	err := r.pool.QueryRow(ctx, `
		SELECT hp.id, u.id, u.first_name || ' ' || u.last_name, hp.professions
		FROM handyman_profiles hp
		JOIN users u ON u.id = hp.user_id
		WHERE $1 = ANY(hp.professions)
		  AND EXISTS (
			SELECT 1
			FROM available_slots s
			WHERE s.handyman_profile_id = hp.id
			  AND s.start_time <= $2
			  AND s.end_time >= $3
		  )
		ORDER BY hp.created_at ASC, hp.id ASC
		LIMIT 1
	`, profession, start, end).Scan(&h.ProfileID, &h.UserID, &h.Name, &h.Professions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCoveringWindow
		}
		return nil, err
	}

	return &h, nil
}

func (r *PgRepository) FindNearestSlot(ctx context.Context, profession string, start time.Time) (*NearestSlot, error) {
	var s NearestSlot

	err := r.pool.QueryRow(ctx, `
		SELECT u.id, u.first_name || ' ' || u.last_name, s.start_time, s.end_time
		FROM available_slots s
		JOIN handyman_profiles hp ON hp.id = s.handyman_profile_id
		JOIN users u ON u.id = hp.user_id
		WHERE $1 = ANY(hp.professions)
		  AND s.start_time >= $2
		ORDER BY s.start_time ASC, s.id ASC
		LIMIT 1
	`, profession, start).Scan(&s.HandymanUserID, &s.HandymanName, &s.StartTime, &s.EndTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoFutureWindow
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) CreateConfirmed(ctx context.Context, customerProfileID uuid.UUID, start, end time.Time, profession string, assignedProfileID uuid.UUID) (*Detail, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO booking_requests
				(id, customer_profile_id, start_time, end_time, profession, status, assigned_handyman_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 'CONFIRMED', $6, now(), now())
			RETURNING *
		)
		SELECT `+detailColumns+`
		FROM inserted b
		`+detailJoins, id, customerProfileID, start, end, profession, assignedProfileID)

	return scanDetail(row)
}

func (r *PgRepository) GetOwnedBooking(ctx context.Context, bookingID, actorUserID uuid.UUID) (*Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT b.id, b.customer_profile_id, b.start_time, b.end_time, b.profession,
		       b.status, b.assigned_handyman_id, b.created_at, b.updated_at
		FROM booking_requests b
		JOIN customer_profiles cp ON cp.id = b.customer_profile_id
		WHERE b.id = $1 AND cp.user_id = $2
	`, bookingID, actorUserID)
	return scanRequest(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) (*Request, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE booking_requests
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = ANY($3)
		RETURNING id, customer_profile_id, start_time, end_time, profession,
		          status, assigned_handyman_id, created_at, updated_at
	`, id, to, fromStrs)

	return scanRequest(row)
}

func (r *PgRepository) ListOwnedBookings(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Detail, int, error) {
	base := `
		FROM booking_requests b
		JOIN customer_profiles cp ON cp.id = b.customer_profile_id
	`
	where := " WHERE cp.user_id = $1"
	args := []any{actorUserID}

	if filter.Start != nil {
		args = append(args, *filter.Start)
		where += fmt.Sprintf(" AND b.start_time >= $%d", len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		where += fmt.Sprintf(" AND b.end_time <= $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where += fmt.Sprintf(" AND b.status = $%d", len(args))
	}
	if filter.Profession != nil {
		args = append(args, *filter.Profession)
		where += fmt.Sprintf(" AND b.profession = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*)"+base+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	sortBy := filter.SortBy
	switch sortBy {
	case SortByCreatedAt, SortByStartTime, SortByEndTime:
	default:
		sortBy = SortByCreatedAt
	}
	order := "ASC"
	if filter.Desc {
		order = "DESC"
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		%s
		%s
		%s
		ORDER BY b.%s %s
		LIMIT $%d OFFSET $%d
	`, detailColumns, base, detailJoins, where, sortBy, order, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}
