package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestHTTPMiddleware(t *testing.T) {
	m := New()
	SetGlobal(m)
	defer SetGlobal(nil)

	r := chi.NewRouter()
	r.Use(HTTPMiddleware)
	r.Get("/api/v1/templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	for _, path := range []string{
		"/api/v1/templates/7b1f0c2e-3d4a-4b5c-8d9e-0f1a2b3c4d5e",
		"/api/v1/templates/another",
		"/health",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	}

	if got := counterValue(t, m.APIRequestsTotal.WithLabelValues("GET", "/api/v1/templates/{id}", "404")); got != 2 {
		t.Errorf("templates requests = %v, want 2", got)
	}
	if got := counterValue(t, m.APIRequestsTotal.WithLabelValues("GET", "/health", "200")); got != 1 {
		t.Errorf("health requests = %v, want 1", got)
	}
	if got := counterValue(t, m.APIErrorsTotal.WithLabelValues("not_found")); got != 2 {
		t.Errorf("not_found errors = %v, want 2", got)
	}
}

func TestHTTPMiddlewareNoMetrics(t *testing.T) {
	SetGlobal(nil)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	HTTPMiddleware(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRouteLabelFallback(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/emails/7b1f0c2e-3d4a-4b5c-8d9e-0f1a2b3c4d5e/status", nil)
	if got, want := routeLabel(req), "/api/v1/emails/{id}/status"; got != want {
		t.Errorf("routeLabel() = %q, want %q", got, want)
	}
}

func TestIsID(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"550e8400-e29b-41d4-a716-446655440000", true},
		{"550E8400-E29B-41D4-A716-446655440000", true},
		{"not-a-uuid", false},
		{"550e8400e29b41d4a716446655440000", false},
		{"550e8400-e29b-41d4-a716-44665544000g", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isID(tt.input); got != tt.expected {
			t.Errorf("isID(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestCategorizeStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{500, "server_error"},
		{503, "server_error"},
		{401, "auth_error"},
		{403, "auth_error"},
		{404, "not_found"},
		{409, "conflict"},
		{422, "validation_error"},
		{400, "bad_request"},
		{405, "client_error"},
		{200, "unknown"},
	}

	for _, tt := range tests {
		if got := categorizeStatus(tt.status); got != tt.expected {
			t.Errorf("categorizeStatus(%d) = %q, want %q", tt.status, got, tt.expected)
		}
	}
}
