package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/apperror"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeAppError maps a service error onto the wire format. Unexpected
// errors are logged with their cause and surfaced with a generic message.
func writeAppError(w http.ResponseWriter, log *zap.Logger, err error) {
	appErr := apperror.As(err)

	if appErr.Kind == apperror.KindUnexpected {
		log.Error("request failed", zap.Error(appErr))
	}

	writeJSON(w, appErr.HTTPStatus(), ErrorResponse{
		Error:   string(appErr.Kind),
		Details: appErr.Message,
		Fields:  appErr.Fields,
	})
}
