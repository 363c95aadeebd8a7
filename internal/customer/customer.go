// Package customer is the directory of sacados: the companies that
// receive credit notifications.
package customer

import (
	"net/mail"
	"strings"
	"time"
	"unicode"
)

// Customer is a company in the directory
type Customer struct {
	ID           string    `json:"id" yaml:"id"`
	RazaoSocial  string    `json:"razaoSocial" yaml:"razao_social"`
	NomeFantasia string    `json:"nomeFantasia" yaml:"nome_fantasia"`
	CNPJ         string    `json:"cnpj" yaml:"cnpj"`
	Email        string    `json:"email" yaml:"email"`
	Telefone     *string   `json:"telefone,omitempty" yaml:"telefone"`
	Endereco     *Address  `json:"endereco,omitempty" yaml:"endereco"`
	CreatedAt    time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"-"`
}

// Address is a Brazilian postal address
type Address struct {
	Logradouro  string  `json:"logradouro" yaml:"logradouro"`
	Numero      string  `json:"numero" yaml:"numero"`
	Complemento *string `json:"complemento,omitempty" yaml:"complemento"`
	Bairro      string  `json:"bairro" yaml:"bairro"`
	Cidade      string  `json:"cidade" yaml:"cidade"`
	Estado      string  `json:"estado" yaml:"estado"`
	CEP         string  `json:"cep" yaml:"cep"`
}

// FieldError describes one invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors lists every invalid field of a customer
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Normalize trims text fields, keeps only digits in CNPJ, telefone and CEP,
// and upper-cases the estado.
func (c *Customer) Normalize() {
	c.RazaoSocial = strings.TrimSpace(c.RazaoSocial)
	c.NomeFantasia = strings.TrimSpace(c.NomeFantasia)
	c.CNPJ = Digits(c.CNPJ)
	c.Email = strings.TrimSpace(c.Email)
	if c.Telefone != nil {
		tel := Digits(*c.Telefone)
		if tel == "" {
			c.Telefone = nil
		} else {
			c.Telefone = &tel
		}
	}

	if a := c.Endereco; a != nil {
		a.Logradouro = strings.TrimSpace(a.Logradouro)
		a.Numero = strings.TrimSpace(a.Numero)
		a.Bairro = strings.TrimSpace(a.Bairro)
		a.Cidade = strings.TrimSpace(a.Cidade)
		a.Estado = strings.ToUpper(strings.TrimSpace(a.Estado))
		a.CEP = Digits(a.CEP)
		if a.Complemento != nil {
			comp := strings.TrimSpace(*a.Complemento)
			if comp == "" {
				a.Complemento = nil
			} else {
				a.Complemento = &comp
			}
		}
	}
}

// Validate checks the customer as the registration form does. It returns
// nil or a ValidationErrors value.
func (c *Customer) Validate() error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	if strings.TrimSpace(c.RazaoSocial) == "" {
		add("razaoSocial", "Razão Social é obrigatória")
	}
	if strings.TrimSpace(c.NomeFantasia) == "" {
		add("nomeFantasia", "Nome Fantasia é obrigatório")
	}
	if len(Digits(c.CNPJ)) != 14 {
		add("cnpj", "CNPJ inválido")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil || strings.ContainsAny(c.Email, "<>") {
		add("email", "E-mail inválido")
	}
	if c.Telefone != nil && *c.Telefone != "" && len(Digits(*c.Telefone)) < 10 {
		add("telefone", "Telefone inválido")
	}

	if a := c.Endereco; a != nil {
		if strings.TrimSpace(a.Logradouro) == "" {
			add("endereco.logradouro", "Logradouro é obrigatório")
		}
		if strings.TrimSpace(a.Numero) == "" {
			add("endereco.numero", "Número é obrigatório")
		}
		if strings.TrimSpace(a.Bairro) == "" {
			add("endereco.bairro", "Bairro é obrigatório")
		}
		if strings.TrimSpace(a.Cidade) == "" {
			add("endereco.cidade", "Cidade é obrigatória")
		}
		if len(strings.TrimSpace(a.Estado)) != 2 {
			add("endereco.estado", "Estado inválido")
		}
		if len(Digits(a.CEP)) != 8 {
			add("endereco.cep", "CEP inválido")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Digits returns s with everything but ASCII digits removed
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
