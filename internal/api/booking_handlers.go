package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/booking"
)

func requestBookingHandler(svc *booking.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := ActorID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
			return
		}

		var req BookingRequestPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		result, err := svc.RequestBooking(r.Context(), actorID, req.StartTime, req.EndTime, req.Profession)
		if err != nil {
			writeAppError(w, log, err)
			return
		}

		if !result.Matched() {
			resp := NoAvailabilityResponse{
				Error:   "no_availability",
				Message: "No handymen are available for the requested time slot",
			}
			if rec := result.Recommendation; rec != nil {
				resp.Recommendation = &RecommendationResponse{
					Handyman:            HandymanRef{ID: rec.HandymanUserID, Name: rec.HandymanName},
					SuggestedStartTime:  rec.SuggestedStart,
					SuggestedEndTime:    rec.SuggestedEnd,
					TimeDifferenceHours: rec.TimeDifferenceHours,
				}
			}
			writeJSON(w, http.StatusConflict, resp)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(*result.Booking))
	}
}

func cancelBookingHandler(svc *booking.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := ActorID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
			return
		}

		bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		if err := svc.CancelBooking(r.Context(), actorID, bookingID); err != nil {
			writeAppError(w, log, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listBookingsHandler(svc *booking.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := ActorID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
			return
		}

		q := r.URL.Query()

		query := booking.ListQuery{
			SortBy: booking.SortField(q.Get("sortBy")),
			Desc:   q.Get("sort") == "desc",
		}

		var err error
		if query.Start, err = parseTimeParam(q.Get("start_time")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_query", "start_time must be RFC 3339")
			return
		}
		if query.End, err = parseTimeParam(q.Get("end_time")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_query", "end_time must be RFC 3339")
			return
		}
		if query.Page, err = parsePageParams(q.Get("page"), q.Get("limit")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_query", "page and limit must be integers")
			return
		}
		if raw := q.Get("status"); raw != "" {
			status := booking.Status(raw)
			query.Status = &status
		}
		if raw := q.Get("profession"); raw != "" {
			query.Profession = &raw
		}

		result, err := svc.ListBookings(r.Context(), actorID, query)
		if err != nil {
			writeAppError(w, log, err)
			return
		}

		resp := BookingListResponse{
			Data:       make([]BookingResponse, 0, len(result.Bookings)),
			Pagination: result.Meta,
		}
		for _, d := range result.Bookings {
			resp.Data = append(resp.Data, toBookingResponse(d))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
