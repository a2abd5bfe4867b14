package account

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	TypeCustomer AccountType = "CUSTOMER"
	TypeHandyman AccountType = "HANDYMAN"
)

type User struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	AccountType  AccountType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName is the display form used in booking responses and suggestions.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type HandymanProfile struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Professions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CustomerProfile struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}
