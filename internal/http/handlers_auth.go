package http

import (
	"errors"
	"net/http"

	"expensify/internal/auth"
	applog "expensify/internal/log"
	"expensify/internal/services"
	"expensify/internal/storage"
)

type loginResponse struct {
	User    services.Profile `json:"user"`
	Token   string           `json:"token"`
	Message string           `json:"message"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if _, err := s.auth.Register(r.Context(), req); err != nil {
		writeServiceError(w, r, err, "Database error")
		return
	}
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	session, err := s.auth.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "Server error")
		return
	}

	http.SetCookie(w, auth.SessionCookie(session.Token, s.auth.TokenTTL(), s.cookieSecure))
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Login successful",
		applog.NewFields().WithOperation(applog.OpLogin).WithUser(session.User.ID).ToSlice()...)
	writeJSON(w, http.StatusOK, loginResponse{
		User:    session.User,
		Token:   session.Token,
		Message: "Login successful",
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearedCookie(s.cookieSecure))
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profile, err := s.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Load current user failed",
				applog.NewFields().WithUser(userID).WithError(err, applog.ErrorTypeDatabase).ToSlice()...)
		}
		writeMessage(w, http.StatusBadRequest, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
