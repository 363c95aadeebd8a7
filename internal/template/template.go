// Package template keeps the versions of the notification template and the
// pointer to the one currently in use.
package template

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a version id does not exist in the store
	ErrNotFound = errors.New("template version not found")
	// ErrDuplicateID is returned by Save when the id is already stored
	ErrDuplicateID = errors.New("template version already exists")
)

// DefaultContent is the stock notification body
const DefaultContent = `Prezados,

Informamos que consta em nossos registros um crédito em favor de [[razaoSocial]], referente à Nota Fiscal [[numeroNF]], no valor de [[valorTotal]].

Para a liberação do crédito, pedimos que entrem em contato com nossa equipe financeira.

Atenciosamente,
DC Advisors`

// Version is one immutable snapshot of the notification template
type Version struct {
	ID          string    `json:"id" yaml:"id"`
	Label       string    `json:"label" yaml:"label"`
	Subject     string    `json:"subject,omitempty" yaml:"subject"`
	Content     string    `json:"content" yaml:"content"`
	Description string    `json:"description,omitempty" yaml:"description"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at"`
}
