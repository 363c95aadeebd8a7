package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dcadvisors/backoffice/internal/customer"
	"github.com/dcadvisors/backoffice/internal/email"
	"github.com/dcadvisors/backoffice/internal/metrics"
	"github.com/dcadvisors/backoffice/internal/template"
)

// TemplateRequest is the body of POST /templates
type TemplateRequest struct {
	Label       string `json:"label"`
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// TemplateListResponse lists every version with the current id
type TemplateListResponse struct {
	Versions []template.Version `json:"versions"`
	Current  string             `json:"current"`
	Total    int                `json:"total"`
}

// TemplatePreviewRequest renders unsaved content against data
type TemplatePreviewRequest struct {
	Subject string     `json:"subject"`
	Content string     `json:"content"`
	Data    email.Data `json:"data"`
}

// VersionPreviewRequest renders a stored version against data
type VersionPreviewRequest struct {
	Data email.Data `json:"data"`
}

// handleListTemplates handles GET /api/v1/templates
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	versions := s.templates.Versions()
	sendJSON(w, http.StatusOK, TemplateListResponse{
		Versions: versions,
		Current:  s.templates.CurrentID(),
		Total:    len(versions),
	})
}

// handleAddTemplate handles POST /api/v1/templates
func (s *Server) handleAddTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		s.sendServiceError(w, customer.ValidationErrors{
			{Field: "content", Message: "Conteúdo é obrigatório"},
		})
		return
	}

	v := s.templates.AddTemplate(req.Label, req.Subject, req.Content, req.Description)
	metrics.IncTemplateOperation("add", nil)

	s.logger.Info("template version added", "id", v.ID, "label", v.Label)
	sendJSON(w, http.StatusCreated, v)
}

// handleCurrentTemplate handles GET /api/v1/templates/current
func (s *Server) handleCurrentTemplate(w http.ResponseWriter, r *http.Request) {
	v, ok := s.templates.Current()
	if !ok {
		sendError(w, http.StatusNotFound, "no template version available")
		return
	}
	sendJSON(w, http.StatusOK, v)
}

// handleGetTemplate handles GET /api/v1/templates/{id}
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	v, err := s.templates.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, v)
}

// handleRestoreTemplate handles POST /api/v1/templates/{id}/restore
func (s *Server) handleRestoreTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.templates.RestoreVersion(id)
	metrics.IncTemplateOperation("restore", err)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}

	v, err := s.templates.Get(id)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}

	s.logger.Info("template version restored", "id", id)
	sendJSON(w, http.StatusOK, v)
}

// handleDeleteTemplate handles DELETE /api/v1/templates/{id}
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.templates.DeleteTemplate(id)
	metrics.IncTemplateOperation("delete", err)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}

	s.logger.Info("template version deleted", "id", id, "current", s.templates.CurrentID())
	w.WriteHeader(http.StatusNoContent)
}

// handlePreviewContent handles POST /api/v1/templates/preview
func (s *Server) handlePreviewContent(w http.ResponseWriter, r *http.Request) {
	var req TemplatePreviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sendJSON(w, http.StatusOK, s.composer.PreviewContent(req.Subject, req.Content, req.Data))
}

// handlePreviewTemplate handles POST /api/v1/templates/{id}/preview
func (s *Server) handlePreviewTemplate(w http.ResponseWriter, r *http.Request) {
	var req VersionPreviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := s.composer.Preview(chi.URLParam(r, "id"), req.Data)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, p)
}
