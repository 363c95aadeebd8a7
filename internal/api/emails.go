package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dcadvisors/backoffice/internal/compose"
	"github.com/dcadvisors/backoffice/internal/email"
	"github.com/dcadvisors/backoffice/internal/render"
)

// EmailListResponse is a page of the history
type EmailListResponse struct {
	Emails []email.Entry `json:"emails"`
	Total  int           `json:"total"`
}

// StatusRequest is the body of POST /emails/{id}/status
type StatusRequest struct {
	Status email.Status `json:"status"`
}

// ReportResponse is a history summary with display totals
type ReportResponse struct {
	*email.Report
	Period         string `json:"period"`
	TotalFormatado string `json:"totalFormatado"`
}

// handleComposeEmail handles POST /api/v1/emails
func (s *Server) handleComposeEmail(w http.ResponseWriter, r *http.Request) {
	var req compose.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := s.composer.Compose(r.Context(), req)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, entry)
}

// handleListEmails handles GET /api/v1/emails
func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	filter := email.HistoryFilter{Search: r.URL.Query().Get("search")}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := email.ParseStatus(raw)
		if err != nil {
			sendError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}

	var ok bool
	if filter.Limit, ok = queryInt(r, "limit"); !ok {
		sendError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if filter.Offset, ok = queryInt(r, "offset"); !ok {
		sendError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	entries, total, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, EmailListResponse{Emails: entries, Total: total})
}

// handleGetEmail handles GET /api/v1/emails/{id}
func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.history.Get(r.Context(), id)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	if entry == nil {
		s.sendServiceError(w, fmt.Errorf("%w: %s", compose.ErrEntryNotFound, id))
		return
	}
	sendJSON(w, http.StatusOK, entry)
}

// handleEmailStatus handles POST /api/v1/emails/{id}/status
func (s *Server) handleEmailStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := s.composer.Transition(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, entry)
}

// handleDeleteEmail handles DELETE /api/v1/emails/{id}
func (s *Server) handleDeleteEmail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := s.history.Delete(r.Context(), id)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	if !deleted {
		s.sendServiceError(w, fmt.Errorf("%w: %s", compose.ErrEntryNotFound, id))
		return
	}

	s.logger.Info("email deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleWeeklyReport handles GET /api/v1/reports/weekly
func (s *Server) handleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	s.sendReport(w, r, "weekly", email.WeekRange)
}

// handleMonthlyReport handles GET /api/v1/reports/monthly
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	s.sendReport(w, r, "monthly", email.MonthRange)
}

func (s *Server) sendReport(w http.ResponseWriter, r *http.Request, period string, span func(time.Time) (time.Time, time.Time)) {
	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			sendError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}

	from, to := span(date)
	report, err := s.history.Summary(r.Context(), from, to)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, ReportResponse{
		Report:         report,
		Period:         period,
		TotalFormatado: render.FormatBRL(report.Total),
	})
}
