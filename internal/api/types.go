package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/Dchole/handymen/internal/availability"
	"github.com/Dchole/handymen/internal/booking"
	"github.com/Dchole/handymen/internal/pagination"
)

type RegisterRequest struct {
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	AccountType string   `json:"account_type"`
	Professions []string `json:"professions,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	AccountType string    `json:"account_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type MeResponse struct {
	UserResponse
	Professions []string   `json:"professions,omitempty"`
	ProfileID   *uuid.UUID `json:"profile_id,omitempty"`
}

type WindowRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type WindowResponse struct {
	ID        uuid.UUID `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type WindowListResponse struct {
	Data       []WindowResponse `json:"data"`
	Pagination pagination.Meta  `json:"pagination"`
}

type BookingRequestPayload struct {
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Profession string    `json:"profession"`
}

type HandymanRef struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Professions []string  `json:"professions,omitempty"`
}

type BookingResponse struct {
	ID         uuid.UUID      `json:"id"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Profession string         `json:"profession"`
	Status     booking.Status `json:"status"`
	Handyman   *HandymanRef   `json:"handyman,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type BookingListResponse struct {
	Data       []BookingResponse `json:"data"`
	Pagination pagination.Meta   `json:"pagination"`
}

type RecommendationResponse struct {
	Handyman            HandymanRef `json:"handyman"`
	SuggestedStartTime  time.Time   `json:"suggested_start_time"`
	SuggestedEndTime    time.Time   `json:"suggested_end_time"`
	TimeDifferenceHours float64     `json:"time_difference_hours"`
}

type NoAvailabilityResponse struct {
	Error          string                  `json:"error"`
	Message        string                  `json:"message"`
	Recommendation *RecommendationResponse `json:"recommendation,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func toBookingResponse(d booking.Detail) BookingResponse {
	resp := BookingResponse{
		ID:         d.ID,
		StartTime:  d.StartTime,
		EndTime:    d.EndTime,
		Profession: d.Profession,
		Status:     d.Status,
		CreatedAt:  d.CreatedAt,
	}
	if d.Handyman != nil {
		resp.Handyman = &HandymanRef{
			ID:          d.Handyman.UserID,
			Name:        d.Handyman.Name,
			Professions: d.Handyman.Professions,
		}
	}
	return resp
}

func toWindowResponse(w availability.Window) WindowResponse {
	return WindowResponse{ID: w.ID, StartTime: w.StartTime, EndTime: w.EndTime}
}
