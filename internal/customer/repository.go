package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/dcadvisors/backoffice/internal/db"
)

var (
	// ErrDuplicateCNPJ is returned when another customer has the same CNPJ
	ErrDuplicateCNPJ = errors.New("a customer with this CNPJ already exists")
	// ErrNotFound is returned when updating a customer that does not exist
	ErrNotFound = errors.New("customer not found")
)

// ListFilter narrows List results
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// Repository stores customers in the in-memory database
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a customer repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// SetClock replaces the time source
func (r *Repository) SetClock(now func() time.Time) {
	r.now = now
}

const customerColumns = `id, razao_social, nome_fantasia, cnpj, email, telefone, has_endereco,
	logradouro, numero, complemento, bairro, cidade, estado, cep, created_at, updated_at`

// Create normalizes, validates and stores a new customer. The ID is
// assigned here unless the caller provided one.
func (r *Repository) Create(ctx context.Context, c *Customer) error {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return err
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = r.now().UTC()
	c.UpdatedAt = c.CreatedAt

	a := c.Endereco
	if a == nil {
		a = &Address{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.RazaoSocial, c.NomeFantasia, c.CNPJ, c.Email, c.Telefone, c.Endereco != nil,
		a.Logradouro, a.Numero, a.Complemento, a.Bairro, a.Cidade, a.Estado, a.CEP, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "failed to create customer")
	}
	return nil
}

// Get returns a customer by ID, or nil when absent
func (r *Repository) Get(ctx context.Context, id string) (*Customer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the stored fields of an existing customer. CreatedAt is
// kept from the stored record.
func (r *Repository) Update(ctx context.Context, c *Customer) error {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return err
	}

	existing, err := r.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, c.ID)
	}

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = r.now().UTC()

	a := c.Endereco
	if a == nil {
		a = &Address{}
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE customers SET razao_social = ?, nome_fantasia = ?, cnpj = ?, email = ?, telefone = ?,
			has_endereco = ?, logradouro = ?, numero = ?, complemento = ?, bairro = ?, cidade = ?, estado = ?, cep = ?,
			updated_at = ?
		WHERE id = ?`,
		c.RazaoSocial, c.NomeFantasia, c.CNPJ, c.Email, c.Telefone,
		c.Endereco != nil, a.Logradouro, a.Numero, a.Complemento, a.Bairro, a.Cidade, a.Estado, a.CEP,
		c.UpdatedAt, c.ID,
	)
	if err != nil {
		return translateError(err, "failed to update customer")
	}
	return nil
}

// Delete removes a customer. It reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns customers in insertion order with the total matching count.
// Search matches razão social, nome fantasia, e-mail and CNPJ digits.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Customer, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	if search := strings.TrimSpace(filter.Search); search != "" {
		s := db.ContainsPattern(search)
		where += ` AND (razao_social LIKE ? ESCAPE '\' OR nome_fantasia LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'`
		args = append(args, s, s, s)
		if digits := Digits(search); digits != "" {
			where += ` OR cnpj LIKE ? ESCAPE '\'`
			args = append(args, db.ContainsPattern(digits))
		}
		where += ")"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + customerColumns + " FROM customers" + where + " ORDER BY seq ASC"
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

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	customers := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}

	return customers, total, rows.Err()
}

// Count returns the number of customers
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s scanner) (*Customer, error) {
	var (
		c           Customer
		telefone    sql.NullString
		hasEndereco bool
		a           Address
		logradouro  sql.NullString
		numero      sql.NullString
		complemento sql.NullString
		bairro      sql.NullString
		cidade      sql.NullString
		estado      sql.NullString
		cep         sql.NullString
	)

	err := s.Scan(&c.ID, &c.RazaoSocial, &c.NomeFantasia, &c.CNPJ, &c.Email, &telefone, &hasEndereco,
		&logradouro, &numero, &complemento, &bairro, &cidade, &estado, &cep, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if telefone.Valid {
		tel := telefone.String
		c.Telefone = &tel
	}
	if hasEndereco {
		a.Logradouro = logradouro.String
		a.Numero = numero.String
		a.Bairro = bairro.String
		a.Cidade = cidade.String
		a.Estado = estado.String
		a.CEP = cep.String
		if complemento.Valid {
			comp := complemento.String
			a.Complemento = &comp
		}
		c.Endereco = &a
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()

	return &c, nil
}

func translateError(err error, msg string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique &&
		strings.Contains(sqliteErr.Error(), "customers.cnpj") {
		return ErrDuplicateCNPJ
	}
	return fmt.Errorf("%s: %w", msg, err)
}
