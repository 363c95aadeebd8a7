package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dcadvisors/backoffice/internal/auth"
	"github.com/dcadvisors/backoffice/internal/metrics"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthStatusResponse reports the authenticated flag
type AuthStatusResponse struct {
	Enabled       bool       `json:"enabled"`
	Authenticated bool       `json:"authenticated"`
	Username      string     `json:"username,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// handleLogin handles POST /auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		sendError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	session, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		metrics.IncLogins("failure")
		sendError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	metrics.IncLogins("success")

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	sendJSON(w, http.StatusOK, LoginResponse{
		Token:     session.Token,
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt,
	})
}

// handleLogout handles POST /auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.auth.Logout(r.Context(), token); err != nil {
			s.sendServiceError(w, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// handleAuthStatus handles GET /auth/status
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	resp := AuthStatusResponse{Enabled: s.auth.Enabled()}

	session, err := s.auth.Session(r.Context(), sessionToken(r))
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	if session != nil {
		resp.Authenticated = true
		resp.Username = session.Username
		resp.ExpiresAt = &session.ExpiresAt
	} else if !resp.Enabled {
		resp.Authenticated = true
	}

	sendJSON(w, http.StatusOK, resp)
}
