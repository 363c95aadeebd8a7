package config

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/dcadvisors/backoffice/internal/customer"
	"github.com/dcadvisors/backoffice/internal/render"
	"github.com/dcadvisors/backoffice/internal/template"
)

// Config is the main configuration structure
type Config struct {
	Server    ServerConfig        `yaml:"server"`
	Auth      AuthConfig          `yaml:"auth"`
	Mail      MailConfig          `yaml:"mail"`
	Templates TemplatesConfig     `yaml:"templates"`
	Customers []customer.Customer `yaml:"customers"` // Directory records loaded at startup
	Logging   LoggingConfig       `yaml:"logging"`
	Metrics   MetricsConfig       `yaml:"metrics"` // Prometheus metrics configuration
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

// AuthConfig contains the login gate settings
type AuthConfig struct {
	Enabled         bool              `yaml:"enabled"`
	Users           map[string]string `yaml:"users"` // username -> bcrypt hash
	SessionTTL      time.Duration     `yaml:"session_ttl"`
	CleanupInterval time.Duration     `yaml:"cleanup_interval"`
	CookieSecure    bool              `yaml:"cookie_secure"`
}

// MailConfig contains notification defaults
type MailConfig struct {
	DefaultSubject string `yaml:"default_subject"`
	DefaultContent string `yaml:"default_content"` // Body of the version added when no seed is configured
}

// TemplatesConfig contains the versions loaded into the store at startup
type TemplatesConfig struct {
	Seed    []template.Version `yaml:"seed"`
	Current string             `yaml:"current"` // ID of the seed version to activate; default is the first
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled         bool          `yaml:"enabled"`
	ListenAddr      string        `yaml:"listen_addr"`      // Default: 127.0.0.1:9090
	Path            string        `yaml:"path"`             // Default: /metrics
	CollectInterval time.Duration `yaml:"collect_interval"` // Default: 10s
	AllowedIPs      []string      `yaml:"allowed_ips"`      // IP addresses/CIDRs allowed to access metrics
}

// Load reads, defaults and validates a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.MaxHeaderBytes == 0 {
		c.Server.MaxHeaderBytes = 1 << 20 // 1 MB
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}

	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = 24 * time.Hour
	}
	if c.Auth.CleanupInterval == 0 {
		c.Auth.CleanupInterval = 10 * time.Minute
	}

	if c.Mail.DefaultSubject == "" {
		c.Mail.DefaultSubject = render.DefaultSubject
	}
	if c.Mail.DefaultContent == "" {
		c.Mail.DefaultContent = template.DefaultContent
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = "127.0.0.1:9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.CollectInterval == 0 {
		c.Metrics.CollectInterval = 10 * time.Second
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Auth.Enabled && len(c.Auth.Users) == 0 {
		return fmt.Errorf("auth.users must not be empty when auth is enabled")
	}
	for name, hash := range c.Auth.Users {
		if name == "" {
			return fmt.Errorf("auth.users: empty username")
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return fmt.Errorf("auth.users.%s: not a bcrypt hash (use 'backoffice user hash-password')", name)
		}
	}
	if c.Auth.SessionTTL < 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	if err := c.validateTemplates(); err != nil {
		return err
	}

	return c.validateCustomers()
}

func (c *Config) validateTemplates() error {
	ids := map[string]bool{}
	for i, v := range c.Templates.Seed {
		if v.Content == "" {
			return fmt.Errorf("templates.seed[%d]: content is required", i)
		}
		if v.ID != "" {
			if ids[v.ID] {
				return fmt.Errorf("templates.seed[%d]: duplicate id %s", i, v.ID)
			}
			ids[v.ID] = true
		}
	}

	if c.Templates.Current != "" && !ids[c.Templates.Current] {
		return fmt.Errorf("templates.current: %s is not a seed version id", c.Templates.Current)
	}
	return nil
}

func (c *Config) validateCustomers() error {
	cnpjs := map[string]bool{}
	for i := range c.Customers {
		cust := c.Customers[i]
		if err := cust.Validate(); err != nil {
			return fmt.Errorf("customers[%d]: %w", i, err)
		}
		cnpj := customer.Digits(cust.CNPJ)
		if cnpjs[cnpj] {
			return fmt.Errorf("customers[%d]: duplicate cnpj %s", i, customer.FormatCNPJ(cnpj))
		}
		cnpjs[cnpj] = true
	}
	return nil
}
