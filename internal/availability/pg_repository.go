package availability

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

func scanWindow(row pgx.Row) (*Window, error) {
	var w Window

	err := row.Scan(
		&w.ID,
		&w.HandymanProfileID,
		&w.StartTime,
		&w.EndTime,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	return &w, nil
}

// Interface methods

func (r *PgRepository) FindOverlapping(ctx context.Context, profileID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (*Window, error) {
	// Three boundary cases: an existing window straddles the new start,
	// straddles the new end, or sits entirely inside the new range.
	query := `
		SELECT id, handyman_profile_id, start_time, end_time, created_at, updated_at
		FROM available_slots
		WHERE handyman_profile_id = $1
		  AND (
			(start_time <= $2 AND end_time > $2) OR
			(start_time < $3 AND end_time >= $3) OR
			(start_time >= $2 AND end_time <= $3)
		  )
	`
	args := []any{profileID, start, end}

	if excludeID != nil {
		query += " AND id <> $4"
		args = append(args, *excludeID)
	}
	query += " LIMIT 1"

	w, err := scanWindow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, ErrWindowNotFound) {
			return nil, ErrNoOverlap
		}
		return nil, err
	}

	return w, nil
}

func (r *PgRepository) CreateWindow(ctx context.Context, profileID uuid.UUID, start, end time.Time) (*Window, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO available_slots (id, handyman_profile_id, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, handyman_profile_id, start_time, end_time, created_at, updated_at
	`, id, profileID, start, end)

	return scanWindow(row)
}

func (r *PgRepository) GetOwnedWindow(ctx context.Context, windowID, actorUserID uuid.UUID) (*Window, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT s.id, s.handyman_profile_id, s.start_time, s.end_time, s.created_at, s.updated_at
		FROM available_slots s
		JOIN handyman_profiles hp ON hp.id = s.handyman_profile_id
		WHERE s.id = $1 AND hp.user_id = $2
	`, windowID, actorUserID)
	return scanWindow(row)
}

func (r *PgRepository) UpdateWindow(ctx context.Context, windowID uuid.UUID, start, end time.Time) (*Window, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE available_slots
		SET start_time = $2,
		    end_time = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, handyman_profile_id, start_time, end_time, created_at, updated_at
	`, windowID, start, end)
	return scanWindow(row)
}

func (r *PgRepository) DeleteOwnedWindow(ctx context.Context, windowID, actorUserID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM available_slots s
		USING handyman_profiles hp
		WHERE s.id = $1
		  AND hp.id = s.handyman_profile_id
		  AND hp.user_id = $2
	`, windowID, actorUserID)
	if err != nil {
		return fmt.Errorf("delete window: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func (r *PgRepository) ListOwnedWindows(ctx context.Context, actorUserID uuid.UUID, filter ListFilter) ([]Window, int, error) {
	where := `
		FROM available_slots s
		JOIN handyman_profiles hp ON hp.id = s.handyman_profile_id
		WHERE hp.user_id = $1
	`
	args := []any{actorUserID}

	if filter.Start != nil {
		args = append(args, *filter.Start)
		where += fmt.Sprintf(" AND s.start_time >= $%d", len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		where += fmt.Sprintf(" AND s.end_time <= $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count windows: %w", err)
	}

	order := "ASC"
	if filter.Sort == SortDesc {
		order = "DESC"
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT s.id, s.handyman_profile_id, s.start_time, s.end_time, s.created_at, s.updated_at
		%s
		ORDER BY s.start_time %s
		LIMIT $%d OFFSET $%d
	`, where, order, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list windows: %w", err)
	}
	defer rows.Close()

	var result []Window
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *PgRepository) DeleteWindowsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM available_slots
		WHERE end_time < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune windows: %w", err)
	}
	return tag.RowsAffected(), nil
}
