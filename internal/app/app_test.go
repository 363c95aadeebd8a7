package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dcadvisors/backoffice/internal/config"
	"github.com/dcadvisors/backoffice/internal/customer"
	"github.com/dcadvisors/backoffice/internal/email"
	"github.com/dcadvisors/backoffice/internal/template"
)

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(cfg, "test", logger)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(func() { a.db.Close() })
	return a
}

func TestNewSeedsDefaultTemplate(t *testing.T) {
	a := newTestApp(t, config.Default())

	v, ok := a.templates.Current()
	if !ok {
		t.Fatal("Current() ok = false, want default version")
	}
	if v.Content != template.DefaultContent {
		t.Errorf("Content = %q, want default content", v.Content)
	}
	if v.Label != "Template 1" {
		t.Errorf("Label = %q, want Template 1", v.Label)
	}
}

func TestNewSeedsConfiguredTemplates(t *testing.T) {
	cfg := config.Default()
	cfg.Templates.Seed = []template.Version{
		{ID: "seed-1", Label: "Padrão", Content: "Prezados [[razaoSocial]]", CreatedAt: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)},
		{ID: "seed-2", Label: "Cobrança", Content: "Valor [[valorTotal]]"},
	}
	cfg.Templates.Current = "seed-2"

	a := newTestApp(t, cfg)

	if a.templates.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.templates.Len())
	}
	if a.templates.CurrentID() != "seed-2" {
		t.Errorf("CurrentID() = %q, want seed-2", a.templates.CurrentID())
	}
	v, err := a.templates.Get("seed-1")
	if err != nil {
		t.Fatalf("Get(seed-1) error = %v", err)
	}
	if !v.CreatedAt.Equal(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v, want seed timestamp", v.CreatedAt)
	}
}

func TestNewSeedsCustomers(t *testing.T) {
	cfg := config.Default()
	cfg.Customers = []customer.Customer{{
		RazaoSocial:  "Empresa ABC Ltda",
		NomeFantasia: "ABC",
		CNPJ:         "12.345.678/0001-90",
		Email:        "financeiro@empresaabc.com.br",
	}}

	a := newTestApp(t, cfg)

	list, total, err := a.customers.List(context.Background(), customer.ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || list[0].CNPJ != "12345678000190" {
		t.Errorf("customers = %+v", list)
	}
}

func TestNewRejectsInvalidCustomer(t *testing.T) {
	cfg := config.Default()
	cfg.Customers = []customer.Customer{{RazaoSocial: "Sem CNPJ"}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := newApp(cfg, "test", logger); err == nil {
		t.Error("newApp() error = nil for invalid customer")
	}
}

func TestStats(t *testing.T) {
	a := newTestApp(t, config.Default())
	ctx := context.Background()

	entry := &email.Entry{
		Data:    email.Data{RazaoSocial: "X", Email: "x@x.com", NumeroNF: "1"},
		Subject: "s",
		Body:    "b",
		Status:  email.StatusSaved,
	}
	if err := a.history.Record(ctx, entry); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	stats, err := a.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TemplateVersions != 1 || stats.Customers != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
	if stats.EmailsByStatus["saved"] != 1 {
		t.Errorf("EmailsByStatus = %v, want saved=1", stats.EmailsByStatus)
	}
}

func TestAPIWiring(t *testing.T) {
	a := newTestApp(t, config.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates/current", nil)
	w := httptest.NewRecorder()
	a.apiServer.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := setupLogger(config.LoggingConfig{Level: tt.level, Format: "text"})
			if !logger.Enabled(context.Background(), tt.want) {
				t.Errorf("level %s not enabled", tt.want)
			}
			if tt.want > slog.LevelDebug && logger.Enabled(context.Background(), tt.want-4) {
				t.Errorf("level below %s enabled", tt.want)
			}
		})
	}
}
