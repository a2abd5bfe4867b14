package availability

import (
	"time"

	"github.com/google/uuid"
)

// Window is a contiguous span during which a handyman accepts bookings.
// Windows owned by the same profile never overlap.
type Window struct {
	ID                uuid.UUID
	HandymanProfileID uuid.UUID
	StartTime         time.Time
	EndTime           time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
