package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dcadvisors/backoffice/internal/compose"
	"github.com/dcadvisors/backoffice/internal/customer"
	"github.com/dcadvisors/backoffice/internal/email"
	"github.com/dcadvisors/backoffice/internal/template"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	Uptime           string `json:"uptime"`
	TemplateVersions int    `json:"templateVersions"`
	CurrentTemplate  string `json:"currentTemplate,omitempty"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status:           "ok",
		Version:          s.version,
		Uptime:           time.Since(s.startTime).Round(time.Second).String(),
		TemplateVersions: s.templates.Len(),
		CurrentTemplate:  s.templates.CurrentID(),
	})
}

// sendServiceError maps domain errors to HTTP responses
func (s *Server) sendServiceError(w http.ResponseWriter, err error) {
	var validation customer.ValidationErrors
	var reqErr *compose.RequestError

	switch {
	case errors.As(err, &validation):
		sendJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": []customer.FieldError(validation),
		})
	case errors.As(err, &reqErr):
		sendError(w, http.StatusBadRequest, reqErr.Message)
	case errors.Is(err, template.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, compose.ErrCustomerNotFound),
		errors.Is(err, compose.ErrEntryNotFound):
		sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, email.ErrInvalidTransition),
		errors.Is(err, customer.ErrDuplicateCNPJ),
		errors.Is(err, compose.ErrNoTemplate):
		sendError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads the request body into v and answers 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// queryInt parses a non-negative integer query parameter; missing means 0
func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, map[string]string{"error": message})
}
