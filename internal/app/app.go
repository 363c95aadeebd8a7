package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dcadvisors/backoffice/internal/api"
	"github.com/dcadvisors/backoffice/internal/auth"
	"github.com/dcadvisors/backoffice/internal/compose"
	"github.com/dcadvisors/backoffice/internal/config"
	"github.com/dcadvisors/backoffice/internal/customer"
	"github.com/dcadvisors/backoffice/internal/db"
	"github.com/dcadvisors/backoffice/internal/email"
	"github.com/dcadvisors/backoffice/internal/metrics"
	"github.com/dcadvisors/backoffice/internal/template"
)

// App is the main application
type App struct {
	config        *config.Config
	db            *db.DB
	templates     *template.Store
	customers     *customer.Repository
	history       *email.History
	auth          *auth.Manager
	apiServer     *api.Server
	metrics       *metrics.Metrics
	collector     *metrics.Collector
	metricsServer *metrics.Server
	logger        *slog.Logger
}

// New creates a new application
func New(cfg *config.Config, version string) (*App, error) {
	return newApp(cfg, version, setupLogger(cfg.Logging))
}

func newApp(cfg *config.Config, version string, logger *slog.Logger) (*App, error) {
	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	a := &App{
		config:    cfg,
		db:        database,
		templates: template.NewStore(),
		customers: customer.NewRepository(database.DB),
		history:   email.NewHistory(database.DB),
		logger:    logger,
	}

	if err := a.seedTemplates(); err != nil {
		database.Close()
		return nil, err
	}
	if err := a.seedCustomers(context.Background()); err != nil {
		database.Close()
		return nil, err
	}

	a.auth = auth.NewManager(database.DB, auth.Options{
		Enabled:    cfg.Auth.Enabled,
		Users:      cfg.Auth.Users,
		SessionTTL: cfg.Auth.SessionTTL,
	}, logger)
	if !cfg.Auth.Enabled {
		logger.Warn("authentication disabled, every request is treated as authenticated")
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
		metrics.SetGlobal(a.metrics)
		a.collector = metrics.NewCollector(a.metrics, a, cfg.Metrics.CollectInterval, logger.With("component", "metrics_collector"))
		a.metricsServer = metrics.NewServer(a.metrics, cfg.Metrics.ListenAddr, cfg.Metrics.Path, cfg.Metrics.AllowedIPs, logger.With("component", "metrics_server"))
	}

	composer := compose.NewService(a.templates, a.customers, a.history, cfg.Mail.DefaultSubject, logger)
	a.apiServer = api.NewServer(api.Deps{
		Templates: a.templates,
		Customers: a.customers,
		History:   a.history,
		Composer:  composer,
		Auth:      a.auth,
	}, &cfg.Server, cfg.Auth.CookieSecure, version, logger)

	return a, nil
}

// seedTemplates loads the configured versions, or a single default version
// when none is configured, so the store starts with a current version.
func (a *App) seedTemplates() error {
	seed := a.config.Templates.Seed
	if len(seed) == 0 {
		v := a.templates.AddTemplate("", "", a.config.Mail.DefaultContent, "")
		a.logger.Info("default template loaded", "id", v.ID, "label", v.Label)
		return nil
	}

	for i, v := range seed {
		if _, err := a.templates.Save(v); err != nil {
			return fmt.Errorf("templates.seed[%d]: %w", i, err)
		}
	}
	if cur := a.config.Templates.Current; cur != "" {
		if err := a.templates.RestoreVersion(cur); err != nil {
			return fmt.Errorf("templates.current: %w", err)
		}
	}

	a.logger.Info("templates loaded", "versions", a.templates.Len(), "current", a.templates.CurrentID())
	return nil
}

func (a *App) seedCustomers(ctx context.Context) error {
	for i := range a.config.Customers {
		c := a.config.Customers[i]
		if err := a.customers.Create(ctx, &c); err != nil {
			return fmt.Errorf("customers[%d]: %w", i, err)
		}
	}
	if n := len(a.config.Customers); n > 0 {
		a.logger.Info("customers loaded", "count", n)
	}
	return nil
}

// Stats implements metrics.StatsProvider
func (a *App) Stats(ctx context.Context) (metrics.Stats, error) {
	customers, err := a.customers.Count(ctx)
	if err != nil {
		return metrics.Stats{}, err
	}
	byStatus, err := a.history.CountByStatus(ctx)
	if err != nil {
		return metrics.Stats{}, err
	}

	emails := make(map[string]int, len(byStatus))
	for status, n := range byStatus {
		emails[string(status)] = n
	}
	return metrics.Stats{
		TemplateVersions: a.templates.Len(),
		Customers:        customers,
		EmailsByStatus:   emails,
	}, nil
}

// Run starts all components and waits for shutdown
func (a *App) Run(ctx context.Context) error {
	logAttrs := []any{
		"api_addr", a.config.Server.ListenAddr,
		"auth", a.config.Auth.Enabled,
		"template_versions", a.templates.Len(),
	}
	if a.metricsServer != nil {
		logAttrs = append(logAttrs, "metrics_addr", a.config.Metrics.ListenAddr)
	}
	a.logger.Info("starting backoffice", logAttrs...)

	// Create context that listens for signals
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if a.config.Auth.Enabled {
		go a.auth.Run(ctx, a.config.Auth.CleanupInterval)
	}

	errCh := make(chan error, 2)

	if a.metricsServer != nil {
		a.collector.Start(ctx)
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("server error", "error", runErr)
		cancel()
	}

	if err := a.Shutdown(context.Background()); err != nil {
		return err
	}
	return runErr
}

// Shutdown gracefully shuts down all components
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api server shutdown error", "error", err)
	}

	if a.metricsServer != nil {
		a.collector.Stop()
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics server shutdown error", "error", err)
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("database close error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

// setupLogger creates a logger based on configuration
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
