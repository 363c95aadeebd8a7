package customer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func strPtr(s string) *string { return &s }

func validCustomer() *Customer {
	return &Customer{
		RazaoSocial:  "Empresa ABC Ltda",
		NomeFantasia: "ABC",
		CNPJ:         "12.345.678/0001-90",
		Email:        "financeiro@empresaabc.com.br",
		Telefone:     strPtr("(11) 98765-4321"),
		Endereco: &Address{
			Logradouro: "Av. Paulista",
			Numero:     "1000",
			Bairro:     "Bela Vista",
			Cidade:     "São Paulo",
			Estado:     "sp",
			CEP:        "01310-100",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(c *Customer)
		wantFields []string
	}{
		{"valid", func(c *Customer) {}, nil},
		{"no address", func(c *Customer) { c.Endereco = nil }, nil},
		{"no phone", func(c *Customer) { c.Telefone = nil }, nil},
		{"empty phone", func(c *Customer) { c.Telefone = strPtr("") }, nil},
		{"missing names", func(c *Customer) { c.RazaoSocial = " "; c.NomeFantasia = "" }, []string{"razaoSocial", "nomeFantasia"}},
		{"short cnpj", func(c *Customer) { c.CNPJ = "1234" }, []string{"cnpj"}},
		{"bad email", func(c *Customer) { c.Email = "not-an-email" }, []string{"email"}},
		{"named email", func(c *Customer) { c.Email = "Fin <fin@example.com>" }, []string{"email"}},
		{"short phone", func(c *Customer) { c.Telefone = strPtr("1234-5678") }, []string{"telefone"}},
		{
			"bad address",
			func(c *Customer) { c.Endereco = &Address{Estado: "SPX", CEP: "123"} },
			[]string{"endereco.logradouro", "endereco.numero", "endereco.bairro", "endereco.cidade", "endereco.estado", "endereco.cep"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validCustomer()
			tc.modify(c)

			err := c.Validate()
			if tc.wantFields == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error = %v, want ValidationErrors", err)
			}
			var fields []string
			for _, fe := range verrs {
				fields = append(fields, fe.Field)
			}
			if diff := cmp.Diff(tc.wantFields, fields); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	c := validCustomer()
	c.RazaoSocial = "  Empresa ABC Ltda  "
	c.Endereco.Complemento = strPtr("  ")
	c.Normalize()

	want := &Customer{
		RazaoSocial:  "Empresa ABC Ltda",
		NomeFantasia: "ABC",
		CNPJ:         "12345678000190",
		Email:        "financeiro@empresaabc.com.br",
		Telefone:     strPtr("11987654321"),
		Endereco: &Address{
			Logradouro: "Av. Paulista",
			Numero:     "1000",
			Bairro:     "Bela Vista",
			Cidade:     "São Paulo",
			Estado:     "SP",
			CEP:        "01310100",
		},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidationErrorsError(t *testing.T) {
	err := ValidationErrors{{Field: "cnpj", Message: "CNPJ inválido"}, {Field: "email", Message: "E-mail inválido"}}
	want := "validation failed: cnpj: CNPJ inválido; email: E-mail inválido"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDigits(t *testing.T) {
	tests := []struct{ in, want string }{
		{"12.345.678/0001-90", "12345678000190"},
		{"(11) 98765-4321", "11987654321"},
		{"abc", ""},
		{"١٢٣", ""},
	}
	for _, tc := range tests {
		if got := Digits(tc.in); got != tc.want {
			t.Errorf("Digits(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"cnpj", FormatCNPJ, "12345678000190", "12.345.678/0001-90"},
		{"cnpj formatted", FormatCNPJ, "12.345.678/0001-90", "12.345.678/0001-90"},
		{"cnpj short", FormatCNPJ, "123", "123"},
		{"phone landline", FormatPhone, "1133334444", "(11) 3333-4444"},
		{"phone mobile", FormatPhone, "11987654321", "(11) 98765-4321"},
		{"phone short", FormatPhone, "12345", "12345"},
		{"cep", FormatCEP, "01310100", "01310-100"},
		{"cep short", FormatCEP, "0131", "0131"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.fn(tc.in); got != tc.want {
				t.Errorf("format(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
