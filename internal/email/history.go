package email

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dcadvisors/backoffice/internal/db"
)

// ErrInvalidTransition is returned when a status change is not allowed
var ErrInvalidTransition = errors.New("invalid status transition")

// Entry is one composed notification kept in the history.
type Entry struct {
	ID                string     `json:"id"`
	CustomerID        *string    `json:"customerId,omitempty"`
	Data              Data       `json:"data"`
	Subject           string     `json:"subject"`
	Body              string     `json:"body"`
	TemplateVersionID string     `json:"templateVersionId,omitempty"`
	Status            Status     `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	SentAt            *time.Time `json:"sentAt,omitempty"`
}

// HistoryFilter narrows List results
type HistoryFilter struct {
	Status Status
	Search string
	Limit  int
	Offset int
}

// History stores composed notifications in the in-memory database.
type History struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistory creates a history repository
func NewHistory(db *sql.DB) *History {
	return &History{db: db, now: time.Now}
}

// SetClock replaces the time source
func (h *History) SetClock(now func() time.Time) {
	h.now = now
}

const entryColumns = `id, customer_id, razao_social, nome_fantasia, email, numero_nf, valor_total,
	data_vencimento, observacoes, subject, body, template_version_id, status, created_at, updated_at, sent_at`

// Record stores a new entry. ID and timestamps are assigned here;
// an entry recorded as sent gets SentAt set.
func (h *History) Record(ctx context.Context, e *Entry) error {
	if e.Status == "" {
		e.Status = StatusDraft
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}

	e.ID = uuid.New().String()
	e.Data.ID = e.ID
	e.CreatedAt = h.now().UTC()
	e.UpdatedAt = e.CreatedAt
	if e.Status == StatusSent {
		sentAt := e.CreatedAt
		e.SentAt = &sentAt
	} else {
		e.SentAt = nil
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO email_history (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CustomerID, e.Data.RazaoSocial, e.Data.NomeFantasia, e.Data.Email, e.Data.NumeroNF, e.Data.ValorTotal,
		e.Data.DataVencimento, e.Data.Observacoes, e.Subject, e.Body, nullString(e.TemplateVersionID), string(e.Status),
		e.CreatedAt, e.UpdatedAt, e.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record email: %w", err)
	}
	return nil
}

// Get returns an entry by ID, or nil when absent
func (h *History) Get(ctx context.Context, id string) (*Entry, error) {
	row := h.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM email_history WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns entries newest first together with the total matching count
func (h *History) List(ctx context.Context, filter HistoryFilter) ([]Entry, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Search != "" {
		where += ` AND (razao_social LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\' OR numero_nf LIKE ? ESCAPE '\')`
		s := db.ContainsPattern(filter.Search)
		args = append(args, s, s, s)
	}

	var total int
	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM email_history"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + entryColumns + " FROM email_history" + where + " ORDER BY created_at DESC, seq DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	} else if filter.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *e)
	}

	return entries, total, rows.Err()
}

// UpdateStatus moves an entry to a new status. It returns nil, nil when
// the entry does not exist and ErrInvalidTransition when the move is not
// allowed.
func (h *History) UpdateStatus(ctx context.Context, id string, status Status) (*Entry, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}

	e, err := h.Get(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	if !e.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, status)
	}

	prev := e.Status
	e.Status = status
	e.UpdatedAt = h.now().UTC()
	if status == StatusSent {
		sentAt := e.UpdatedAt
		e.SentAt = &sentAt
	}

	// The write only lands if nobody changed the status since it was read.
	res, err := h.db.ExecContext(ctx, `
		UPDATE email_history SET status = ?, updated_at = ?, sent_at = ?
		WHERE id = ? AND status = ?`,
		string(e.Status), e.UpdatedAt, e.SentAt, e.ID, string(prev),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update email status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update email status: %w", err)
	}
	if n == 0 {
		cur, err := h.Get(ctx, id)
		if err != nil || cur == nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, status)
	}
	return e, nil
}

// Delete removes an entry. It reports whether a row was removed.
func (h *History) Delete(ctx context.Context, id string) (bool, error) {
	res, err := h.db.ExecContext(ctx, "DELETE FROM email_history WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountByStatus returns the number of entries per status
func (h *History) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := h.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM email_history GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[Status]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e          Entry
		customerID sql.NullString
		fantasia   sql.NullString
		vencimento sql.NullString
		obs        sql.NullString
		versionID  sql.NullString
		status     string
		sentAt     sql.NullTime
	)

	err := s.Scan(&e.ID, &customerID, &e.Data.RazaoSocial, &fantasia, &e.Data.Email, &e.Data.NumeroNF, &e.Data.ValorTotal,
		&vencimento, &obs, &e.Subject, &e.Body, &versionID, &status, &e.CreatedAt, &e.UpdatedAt, &sentAt)
	if err != nil {
		return nil, err
	}

	e.Data.ID = e.ID
	e.CustomerID = fromNull(customerID)
	e.Data.NomeFantasia = fromNull(fantasia)
	e.Data.DataVencimento = fromNull(vencimento)
	e.Data.Observacoes = fromNull(obs)
	e.TemplateVersionID = versionID.String
	e.Status = Status(status)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	if sentAt.Valid {
		t := sentAt.Time.UTC()
		e.SentAt = &t
	}

	return &e, nil
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
