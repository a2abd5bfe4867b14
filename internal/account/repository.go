package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrEmailTaken              = errors.New("email is already registered")
	ErrHandymanProfileNotFound = errors.New("handyman profile not found")
	ErrCustomerProfileNotFound = errors.New("customer profile not found")
)

// Repository contains all DB interactions needed by the account service.
type Repository interface {
	// CreateUserWithProfile persists the user row and its customer or
	// handyman profile in a single transaction. Both rows exist afterwards
	// or neither does.
	CreateUserWithProfile(ctx context.Context, user *User, professions []string) (*User, error)

	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	GetHandymanProfileByUserID(ctx context.Context, userID uuid.UUID) (*HandymanProfile, error)
	GetCustomerProfileByUserID(ctx context.Context, userID uuid.UUID) (*CustomerProfile, error)
}
