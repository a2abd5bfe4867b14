package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanUser(row pgx.Row) (*User, error) {
	var u User

	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.AccountType,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

// Interface methods

func (r *PgRepository) CreateUserWithProfile(ctx context.Context, user *User, professions []string) (*User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin registration tx: %w", err)
	}
	defer tx.Rollback(ctx)

	userID := uuid.New()

	row := tx.QueryRow(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, account_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, first_name, last_name, email, password_hash, account_type, created_at, updated_at
	`, userID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.AccountType)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	switch user.AccountType {
	case TypeHandyman:
		_, err = tx.Exec(ctx, `
			INSERT INTO handyman_profiles (id, user_id, professions, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, uuid.New(), created.ID, professions)
	case TypeCustomer:
		_, err = tx.Exec(ctx, `
			INSERT INTO customer_profiles (id, user_id, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, uuid.New(), created.ID)
	default:
		err = fmt.Errorf("unknown account type %q", user.AccountType)
	}
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit registration tx: %w", err)
	}

	return created, nil
}

func (r *PgRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, password_hash, account_type, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (r *PgRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, password_hash, account_type, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) GetHandymanProfileByUserID(ctx context.Context, userID uuid.UUID) (*HandymanProfile, error) {
	var p HandymanProfile

	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, professions, created_at, updated_at
		FROM handyman_profiles
		WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &p.Professions, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHandymanProfileNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) GetCustomerProfileByUserID(ctx context.Context, userID uuid.UUID) (*CustomerProfile, error) {
	var p CustomerProfile

	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM customer_profiles
		WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerProfileNotFound
		}
		return nil, err
	}

	return &p, nil
}
