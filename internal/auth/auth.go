// Package auth is the gate in front of the back office: configured users
// log in with a password and receive a session token.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password HashPassword accepts
const MinPasswordLength = 10

// ErrInvalidCredentials is returned for an unknown user or a wrong password
var ErrInvalidCredentials = errors.New("invalid username or password")

// Session is an authenticated login
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Options configures a Manager
type Options struct {
	Enabled    bool
	Users      map[string]string // username -> bcrypt hash
	SessionTTL time.Duration
}

// Manager checks credentials and tracks sessions
type Manager struct {
	db      *sql.DB
	enabled bool
	users   map[string]string
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewManager creates a session manager
func NewManager(db *sql.DB, opts Options, logger *slog.Logger) *Manager {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	users := make(map[string]string, len(opts.Users))
	for name, hash := range opts.Users {
		users[name] = hash
	}
	return &Manager{
		db:      db,
		enabled: opts.Enabled,
		users:   users,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.With("component", "auth"),
	}
}

// SetClock replaces the time source
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Enabled reports whether requests must carry a session
func (m *Manager) Enabled() bool {
	return m.enabled
}

// Login checks the password and opens a session
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	hash, ok := m.users[username]
	if !ok {
		m.logger.Warn("login failed", "username", username, "reason", "unknown user")
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		m.logger.Warn("login failed", "username", username, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	now := m.now().UTC()
	s := &Session{
		Token:     uuid.New().String(),
		Username:  username,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}

	_, err := m.db.ExecContext(ctx,
		"INSERT INTO sessions (id, username, expires_at, created_at) VALUES (?, ?, ?, ?)",
		s.Token, s.Username, s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.logger.Info("user logged in", "username", username)
	return s, nil
}

// Session returns the live session for token, or nil when the token is
// unknown or expired
func (m *Manager) Session(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}

	s := &Session{}
	err := m.db.QueryRowContext(ctx,
		"SELECT id, username, expires_at, created_at FROM sessions WHERE id = ? AND expires_at > ?",
		token, m.now().UTC(),
	).Scan(&s.Token, &s.Username, &s.ExpiresAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.ExpiresAt = s.ExpiresAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

// Authenticated is the single signal the rest of the application checks.
// It is always true when the gate is disabled.
func (m *Manager) Authenticated(ctx context.Context, token string) bool {
	if !m.enabled {
		return true
	}
	s, err := m.Session(ctx, token)
	if err != nil {
		m.logger.Error("failed to check session", "error", err)
		return false
	}
	return s != nil
}

// Logout ends a session
func (m *Manager) Logout(ctx context.Context, token string) error {
	_, err := m.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", token)
	return err
}

// Cleanup deletes expired sessions and returns how many were removed
func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	res, err := m.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", m.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Run removes expired sessions every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Cleanup(ctx)
			if err != nil {
				m.logger.Error("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				m.logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}

// HashPassword returns the bcrypt hash stored in auth.users
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
