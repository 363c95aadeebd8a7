// Package render substitutes [[token]] placeholders in notification
// templates with values taken from an email.Data record.
package render

import (
	"regexp"

	"github.com/dcadvisors/backoffice/internal/email"
)

// DefaultSubject is used when a template carries no subject of its own.
const DefaultSubject = "Notificação de Crédito - DC Advisors"

// Recognized token names
const (
	TokenRazaoSocial = "razaoSocial"
	TokenNumeroNF    = "numeroNF"
	TokenValorTotal  = "valorTotal"
)

var tokenPattern = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Result is a rendered notification
type Result struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// KnownTokens returns the recognized token names
func KnownTokens() []string {
	return []string{TokenRazaoSocial, TokenNumeroNF, TokenValorTotal}
}

// Render replaces every recognized token in template with its formatted
// value. Unrecognized tokens and unbalanced brackets are left as they are.
func Render(template string, data email.Data) string {
	if template == "" {
		return template
	}

	return tokenPattern.ReplaceAllStringFunc(template, func(match string) string {
		if value, ok := lookup(match[2:len(match)-2], data); ok {
			return value
		}
		return match
	})
}

// RenderEmail renders subject and content independently. An empty subject
// falls back to DefaultSubject.
func RenderEmail(subject, content string, data email.Data) Result {
	if subject == "" {
		subject = DefaultSubject
	}
	return Result{
		Subject: Render(subject, data),
		Body:    Render(content, data),
	}
}

// Tokens lists the token names found in template, in order of first
// appearance.
func Tokens(template string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range tokenPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// UnknownTokens lists the token names in template that Render leaves
// untouched.
func UnknownTokens(template string) []string {
	var unknown []string
	for _, name := range Tokens(template) {
		if !IsKnown(name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// IsKnown reports whether name is a recognized token
func IsKnown(name string) bool {
	_, ok := lookup(name, email.Data{})
	return ok
}

func lookup(name string, data email.Data) (string, bool) {
	switch name {
	case TokenRazaoSocial:
		return data.RazaoSocial, true
	case TokenNumeroNF:
		return data.NumeroNF, true
	case TokenValorTotal:
		return FormatBRL(data.ValorTotal), true
	default:
		return "", false
	}
}
