// Package email holds the notification data records and the history of
// composed notifications.
package email

import (
	"fmt"
	"net/mail"
	"strings"
)

// Data is the substitution source for one notification. It is built per
// composition or preview and never retained by the template subsystem.
type Data struct {
	ID             string  `json:"id,omitempty"`
	RazaoSocial    string  `json:"razaoSocial"`
	NomeFantasia   *string `json:"nomeFantasia,omitempty"`
	Email          string  `json:"email"`
	NumeroNF       string  `json:"numeroNF"`
	ValorTotal     float64 `json:"valorTotal"`
	DataVencimento *string `json:"dataVencimento,omitempty"`
	Observacoes    *string `json:"observacoes,omitempty"`
}

// Status is the lifecycle state of a history entry
type Status string

const (
	StatusDraft Status = "draft"
	StatusSaved Status = "saved"
	StatusSent  Status = "sent"
)

// ParseStatus converts a string into a Status
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusSaved, StatusSent:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status %q (must be draft, saved or sent)", s)
}

// Label returns the dashboard label for the status.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "Rascunho"
	case StatusSaved:
		return "Salvo"
	case StatusSent:
		return "Enviado"
	}
	return string(s)
}

// CanTransition reports whether an entry may move from s to next.
// sent is terminal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusSaved || next == StatusSent
	case StatusSaved:
		return next == StatusSent
	}
	return false
}

// ExtractDomain extracts the domain part from an email address.
// Returns empty string if the email is invalid.
func ExtractDomain(address string) string {
	addr, err := mail.ParseAddress(address)
	if err != nil {
		at := strings.LastIndex(address, "@")
		if at <= 0 || at == len(address)-1 {
			return ""
		}
		return strings.ToLower(address[at+1:])
	}
	at := strings.LastIndex(addr.Address, "@")
	if at <= 0 || at == len(addr.Address)-1 {
		return ""
	}
	return strings.ToLower(addr.Address[at+1:])
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
