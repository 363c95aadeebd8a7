package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dcadvisors/backoffice/internal/auth"
	"github.com/dcadvisors/backoffice/internal/compose"
	"github.com/dcadvisors/backoffice/internal/config"
	"github.com/dcadvisors/backoffice/internal/customer"
	"github.com/dcadvisors/backoffice/internal/email"
	"github.com/dcadvisors/backoffice/internal/metrics"
	"github.com/dcadvisors/backoffice/internal/template"
)

// Deps holds the services the API exposes
type Deps struct {
	Templates *template.Store
	Customers *customer.Repository
	History   *email.History
	Composer  *compose.Service
	Auth      *auth.Manager
}

// Server is the HTTP API server
type Server struct {
	router       *chi.Mux
	httpServer   *http.Server
	templates    *template.Store
	customers    *customer.Repository
	history      *email.History
	composer     *compose.Service
	auth         *auth.Manager
	config       *config.ServerConfig
	cookieSecure bool
	version      string
	logger       *slog.Logger
	startTime    time.Time
}

// NewServer creates a new API server
func NewServer(deps Deps, cfg *config.ServerConfig, cookieSecure bool, version string, logger *slog.Logger) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		templates:    deps.Templates,
		customers:    deps.Customers,
		history:      deps.History,
		composer:     deps.Composer,
		auth:         deps.Auth,
		config:       cfg,
		cookieSecure: cookieSecure,
		version:      version,
		logger:       logger.With("component", "api"),
		startTime:    time.Now(),
	}

	s.setupRoutes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.HTTPMiddleware)
	if s.config.MaxBodyBytes > 0 {
		s.router.Use(middleware.RequestSize(s.config.MaxBodyBytes))
	}

	// Open endpoints
	s.router.Get("/health", s.handleHealth)
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/status", s.handleAuthStatus)
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleAddTemplate)
			r.Get("/current", s.handleCurrentTemplate)
			r.Post("/preview", s.handlePreviewContent)
			r.Get("/{id}", s.handleGetTemplate)
			r.Delete("/{id}", s.handleDeleteTemplate)
			r.Post("/{id}/restore", s.handleRestoreTemplate)
			r.Post("/{id}/preview", s.handlePreviewTemplate)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", s.handleListCustomers)
			r.Post("/", s.handleCreateCustomer)
			r.Get("/{id}", s.handleGetCustomer)
			r.Put("/{id}", s.handleUpdateCustomer)
			r.Delete("/{id}", s.handleDeleteCustomer)
		})

		r.Route("/emails", func(r chi.Router) {
			r.Get("/", s.handleListEmails)
			r.Post("/", s.handleComposeEmail)
			r.Get("/{id}", s.handleGetEmail)
			r.Delete("/{id}", s.handleDeleteEmail)
			r.Post("/{id}/status", s.handleEmailStatus)
		})

		r.Get("/reports/weekly", s.handleWeeklyReport)
		r.Get("/reports/monthly", s.handleMonthlyReport)
	})
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddr,
		Handler:        s.router,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	s.logger.Info("starting HTTP API server", "addr", s.config.ListenAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
