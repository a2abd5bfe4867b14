package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/availability"
	"github.com/Dchole/handymen/internal/pagination"
)

func createWindowHandler(svc *availability.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := ActorID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
			return
		}

		var req WindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		window, err := svc.CreateWindow(r.Context(), actorID, req.StartTime, req.EndTime)
		if err != nil {
			writeAppError(w, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, toWindowResponse(*window))
	}
}

func editWindowHandler(svc *availability.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := ActorID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
			return
		}

		windowID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_window_id", "id must be a valid UUID")
			return
		}

		var req WindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		window, err := svc.EditWindow(r.Context(), actorID, windowID, req.StartTime, req.EndTime)
		if err != nil {
			writeAppError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, toWindowResponse(*window))
	}
}

func deleteWindowHandler(svc *availability.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := ActorID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
			return
		}

		windowID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_window_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteWindow(r.Context(), actorID, windowID); err != nil {
			writeAppError(w, log, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listWindowsHandler(svc *availability.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := ActorID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
			return
		}

		q := r.URL.Query()

		query := availability.ListQuery{
			Sort: availability.SortOrder(q.Get("sort")),
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

		result, err := svc.ListWindows(r.Context(), actorID, query)
		if err != nil {
			writeAppError(w, log, err)
			return
		}

		resp := WindowListResponse{
			Data:       make([]WindowResponse, 0, len(result.Windows)),
			Pagination: result.Meta,
		}
		for _, window := range result.Windows {
			resp.Data = append(resp.Data, toWindowResponse(window))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parsePageParams(page, limit string) (pagination.Params, error) {
	var p pagination.Params

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil {
			return p, err
		}
		p.Page = n
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return p, err
		}
		p.Limit = n
	}

	return p, nil
}
