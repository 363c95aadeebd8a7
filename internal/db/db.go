package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DB is an in-memory SQLite database. Its contents live as long as the
// process holds the handle open.
type DB struct {
	*sql.DB
}

// New opens a fresh, private in-memory database and applies the schema.
func New() (*DB, error) {
	// Each handle gets its own named memory database so that tests and
	// multiple instances never see each other's rows.
	dsn := fmt.Sprintf("file:backoffice-%s?mode=memory&cache=shared&_foreign_keys=1&_busy_timeout=5000", uuid.New().String())

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The memory database is dropped when its last connection closes, so
	// keep exactly one connection alive for the lifetime of the handle.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	database := &DB{sqlDB}
	if err := database.Migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return database, nil
}

// Migrate creates all tables. It is idempotent.
func (db *DB) Migrate() error {
	migrations := []string{
		migrationCustomers,
		migrationEmailHistory,
		migrationSessions,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

const migrationCustomers = `
CREATE TABLE IF NOT EXISTS customers (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT UNIQUE NOT NULL,
    razao_social TEXT NOT NULL,
    nome_fantasia TEXT NOT NULL,
    cnpj TEXT UNIQUE NOT NULL,
    email TEXT NOT NULL,
    telefone TEXT,
    has_endereco INTEGER NOT NULL DEFAULT 0,
    logradouro TEXT,
    numero TEXT,
    complemento TEXT,
    bairro TEXT,
    cidade TEXT,
    estado TEXT,
    cep TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const migrationEmailHistory = `
CREATE TABLE IF NOT EXISTS email_history (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT UNIQUE NOT NULL,
    customer_id TEXT,
    razao_social TEXT NOT NULL,
    nome_fantasia TEXT,
    email TEXT NOT NULL,
    numero_nf TEXT NOT NULL,
    valor_total REAL NOT NULL,
    data_vencimento TEXT,
    observacoes TEXT,
    subject TEXT NOT NULL,
    body TEXT NOT NULL,
    template_version_id TEXT,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    sent_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_email_history_status ON email_history(status);
CREATE INDEX IF NOT EXISTS idx_email_history_created_at ON email_history(created_at);
`

const migrationSessions = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
`
