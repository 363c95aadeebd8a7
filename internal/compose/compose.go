// Package compose turns a customer and the current template into a
// rendered notification and records it in the history.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dcadvisors/backoffice/internal/customer"
	"github.com/dcadvisors/backoffice/internal/email"
	"github.com/dcadvisors/backoffice/internal/metrics"
	"github.com/dcadvisors/backoffice/internal/render"
	"github.com/dcadvisors/backoffice/internal/template"
)

var (
	// ErrNoTemplate is returned when the template store holds no version
	ErrNoTemplate = errors.New("no template version available")
	// ErrCustomerNotFound is returned when the referenced customer does not exist
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrEntryNotFound is returned when a history entry does not exist
	ErrEntryNotFound = errors.New("email not found")
)

// Service composes notifications
type Service struct {
	templates      *template.Store
	customers      *customer.Repository
	history        *email.History
	defaultSubject string
	logger         *slog.Logger
}

// NewService creates a composition service. An empty defaultSubject uses
// render.DefaultSubject.
func NewService(templates *template.Store, customers *customer.Repository, history *email.History, defaultSubject string, logger *slog.Logger) *Service {
	if defaultSubject == "" {
		defaultSubject = render.DefaultSubject
	}
	return &Service{
		templates:      templates,
		customers:      customers,
		history:        history,
		defaultSubject: defaultSubject,
		logger:         logger.With("component", "compose"),
	}
}

// Preview is a rendered template together with the tokens it could not
// resolve
type Preview struct {
	VersionID     string   `json:"versionId,omitempty"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	UnknownTokens []string `json:"unknownTokens,omitempty"`
}

// Preview renders the version with the given id, or the current version
// when id is empty, against data.
func (s *Service) Preview(versionID string, data email.Data) (*Preview, error) {
	v, err := s.version(versionID)
	if err != nil {
		return nil, err
	}
	return s.preview(v.ID, v.Subject, v.Content, data), nil
}

// PreviewContent renders an unsaved subject and body against data
func (s *Service) PreviewContent(subject, content string, data email.Data) *Preview {
	return s.preview("", subject, content, data)
}

func (s *Service) preview(versionID, subject, content string, data email.Data) *Preview {
	if subject == "" {
		subject = s.defaultSubject
	}
	res := render.RenderEmail(subject, content, data)
	unknown := appendUnique(render.UnknownTokens(subject), render.UnknownTokens(content))

	metrics.IncRenders("preview")
	metrics.AddUnknownTokens(len(unknown))

	return &Preview{
		VersionID:     versionID,
		Subject:       res.Subject,
		Body:          res.Body,
		UnknownTokens: unknown,
	}
}

// Request describes a notification to compose. Either CustomerID or Data
// identifies the recipient.
type Request struct {
	CustomerID     string       `json:"customerId,omitempty"`
	Data           *email.Data  `json:"data,omitempty"`
	NumeroNF       string       `json:"numeroNF"`
	ValorTotal     float64      `json:"valorTotal"`
	DataVencimento *string      `json:"dataVencimento,omitempty"`
	Observacoes    *string      `json:"observacoes,omitempty"`
	VersionID      string       `json:"versionId,omitempty"`
	Status         email.Status `json:"status,omitempty"`
}

// RequestError reports an invalid composition request
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Compose renders the notification and records it in the history with the
// requested status, draft by default.
func (s *Service) Compose(ctx context.Context, req Request) (*email.Entry, error) {
	status := req.Status
	if status == "" {
		status = email.StatusDraft
	}
	if _, err := email.ParseStatus(string(status)); err != nil {
		return nil, &RequestError{Message: err.Error()}
	}

	data, customerID, err := s.buildData(ctx, req)
	if err != nil {
		return nil, err
	}

	v, err := s.version(req.VersionID)
	if err != nil {
		return nil, err
	}

	subject := v.Subject
	if subject == "" {
		subject = s.defaultSubject
	}
	res := render.RenderEmail(subject, v.Content, data)
	metrics.IncRenders("compose")

	entry := &email.Entry{
		CustomerID:        customerID,
		Data:              data,
		Subject:           res.Subject,
		Body:              res.Body,
		TemplateVersionID: v.ID,
		Status:            status,
	}
	if err := s.history.Record(ctx, entry); err != nil {
		return nil, err
	}
	metrics.IncEmails(string(entry.Status))

	s.logger.Info("email composed",
		"id", entry.ID,
		"status", entry.Status,
		"template_version", v.ID,
		"numero_nf", data.NumeroNF)
	if entry.Status == email.StatusSent {
		s.logCaptured(entry)
	}

	return entry, nil
}

// Transition moves a history entry to a new status
func (s *Service) Transition(ctx context.Context, id string, status email.Status) (*email.Entry, error) {
	if _, err := email.ParseStatus(string(status)); err != nil {
		return nil, &RequestError{Message: err.Error()}
	}

	entry, err := s.history.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	metrics.IncEmails(string(entry.Status))

	s.logger.Info("email status changed", "id", entry.ID, "status", entry.Status)
	if entry.Status == email.StatusSent {
		s.logCaptured(entry)
	}

	return entry, nil
}

// logCaptured records that a sent message stayed in the process. There is
// no outbound transport.
func (s *Service) logCaptured(e *email.Entry) {
	s.logger.Info("email captured",
		"id", e.ID,
		"to", e.Data.Email,
		"to_domain", email.ExtractDomain(e.Data.Email),
		"subject", e.Subject,
		"body_size", len(e.Body))
}

func (s *Service) buildData(ctx context.Context, req Request) (email.Data, *string, error) {
	var data email.Data
	var customerID *string

	switch {
	case req.CustomerID != "":
		c, err := s.customers.Get(ctx, req.CustomerID)
		if err != nil {
			return data, nil, err
		}
		if c == nil {
			return data, nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, req.CustomerID)
		}
		data = email.Data{
			RazaoSocial:  c.RazaoSocial,
			NomeFantasia: email.StringPtr(c.NomeFantasia),
			Email:        c.Email,
		}
		id := c.ID
		customerID = &id
	case req.Data != nil:
		data = *req.Data
	default:
		return data, nil, &RequestError{Message: "customerId or data is required"}
	}

	if req.NumeroNF != "" {
		data.NumeroNF = req.NumeroNF
	}
	if req.ValorTotal != 0 {
		data.ValorTotal = req.ValorTotal
	}
	if req.DataVencimento != nil {
		data.DataVencimento = req.DataVencimento
	}
	if req.Observacoes != nil {
		data.Observacoes = req.Observacoes
	}

	var missing []string
	if strings.TrimSpace(data.RazaoSocial) == "" {
		missing = append(missing, "razaoSocial")
	}
	if strings.TrimSpace(data.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(data.NumeroNF) == "" {
		missing = append(missing, "numeroNF")
	}
	if len(missing) > 0 {
		return data, nil, &RequestError{Message: "missing required fields: " + strings.Join(missing, ", ")}
	}

	return data, customerID, nil
}

func (s *Service) version(id string) (template.Version, error) {
	if id != "" {
		return s.templates.Get(id)
	}
	v, ok := s.templates.Current()
	if !ok {
		return template.Version{}, ErrNoTemplate
	}
	return v, nil
}

func appendUnique(a, b []string) []string {
	out := a
	for _, name := range b {
		found := false
		for _, existing := range out {
			if existing == name {
				found = true
				break
			}
		}
		if !found {
			out = append(out, name)
		}
	}
	return out
}
