package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/account"
)

func registerHandler(svc *account.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		user, err := svc.Register(r.Context(), account.RegisterInput{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			Password:    req.Password,
			AccountType: account.AccountType(req.AccountType),
			Professions: req.Professions,
		})
		if err != nil {
			writeAppError(w, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, UserResponse{
			ID:          user.ID,
			FirstName:   user.FirstName,
			LastName:    user.LastName,
			Email:       user.Email,
			AccountType: string(user.AccountType),
			CreatedAt:   user.CreatedAt,
		})
	}
}

func loginHandler(svc *account.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		token, user, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeAppError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token: token,
			User: UserResponse{
				ID:          user.ID,
				FirstName:   user.FirstName,
				LastName:    user.LastName,
				Email:       user.Email,
				AccountType: string(user.AccountType),
				CreatedAt:   user.CreatedAt,
			},
		})
	}
}

func meHandler(svc *account.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := ActorID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
			return
		}

		accountType := account.AccountType(r.URL.Query().Get("account_type"))

		me, err := svc.CurrentUser(r.Context(), actorID, accountType)
		if err != nil {
			writeAppError(w, log, err)
			return
		}

		resp := MeResponse{
			UserResponse: UserResponse{
				ID:          me.User.ID,
				FirstName:   me.User.FirstName,
				LastName:    me.User.LastName,
				Email:       me.User.Email,
				AccountType: string(me.User.AccountType),
				CreatedAt:   me.User.CreatedAt,
			},
		}
		if me.Handyman != nil {
			resp.ProfileID = &me.Handyman.ID
			resp.Professions = me.Handyman.Professions
		}
		if me.Customer != nil {
			resp.ProfileID = &me.Customer.ID
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
