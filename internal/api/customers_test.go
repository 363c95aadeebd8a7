package api

import (
	"net/http"
	"testing"

	"github.com/dcadvisors/backoffice/internal/customer"
)

func testCustomer() customer.Customer {
	tel := "(11) 98765-4321"
	return customer.Customer{
		RazaoSocial:  "Empresa ABC Ltda",
		NomeFantasia: "ABC",
		CNPJ:         "12.345.678/0001-90",
		Email:        "financeiro@empresaabc.com.br",
		Telefone:     &tel,
		Endereco: &customer.Address{
			Logradouro: "Av. Paulista",
			Numero:     "1000",
			Bairro:     "Bela Vista",
			Cidade:     "São Paulo",
			Estado:     "sp",
			CEP:        "01310-100",
		},
	}
}

func TestCustomerCRUD(t *testing.T) {
	s := setupTestServer(t, false)

	w := do(t, s, http.MethodPost, "/api/v1/customers", testCustomer(), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[CustomerResponse](t, w)
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.CNPJ != "12345678000190" || created.CNPJFormatado != "12.345.678/0001-90" {
		t.Errorf("unexpected cnpj: %q / %q", created.CNPJ, created.CNPJFormatado)
	}
	if created.TelefoneFormatado != "(11) 98765-4321" || created.CEPFormatado != "01310-100" {
		t.Errorf("unexpected formatting: %+v", created)
	}
	if created.Endereco.Estado != "SP" {
		t.Errorf("expected estado SP, got %q", created.Endereco.Estado)
	}

	w = do(t, s, http.MethodGet, "/api/v1/customers/"+created.ID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	update := testCustomer()
	update.NomeFantasia = "ABC Crédito"
	w = do(t, s, http.MethodPut, "/api/v1/customers/"+created.ID, update, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[CustomerResponse](t, w); got.NomeFantasia != "ABC Crédito" || got.ID != created.ID {
		t.Errorf("unexpected update result: %+v", got)
	}

	w = do(t, s, http.MethodGet, "/api/v1/customers?search=cr%C3%A9dito", nil, "")
	list := decode[CustomerListResponse](t, w)
	if list.Total != 1 || len(list.Customers) != 1 {
		t.Errorf("expected 1 search result, got %d", list.Total)
	}

	w = do(t, s, http.MethodDelete, "/api/v1/customers/"+created.ID, nil, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}
	w = do(t, s, http.MethodGet, "/api/v1/customers/"+created.ID, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after delete, got %d", w.Code)
	}
}

type validationResponse struct {
	Error  string                `json:"error"`
	Fields []customer.FieldError `json:"fields"`
}

func TestCustomerValidation(t *testing.T) {
	s := setupTestServer(t, false)

	bad := testCustomer()
	bad.Email = "not-an-email"
	bad.CNPJ = "123"

	w := do(t, s, http.MethodPost, "/api/v1/customers", bad, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", w.Code)
	}

	resp := decode[validationResponse](t, w)

	fields := map[string]bool{}
	for _, f := range resp.Fields {
		fields[f.Field] = true
	}
	if !fields["cnpj"] || !fields["email"] || len(resp.Fields) != 2 {
		t.Errorf("unexpected fields: %+v", resp.Fields)
	}
}

func TestCustomerConflictsAndMissing(t *testing.T) {
	s := setupTestServer(t, false)

	if w := do(t, s, http.MethodPost, "/api/v1/customers", testCustomer(), ""); w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"duplicate cnpj", http.MethodPost, "/api/v1/customers", testCustomer(), http.StatusConflict},
		{"get missing", http.MethodGet, "/api/v1/customers/missing", nil, http.StatusNotFound},
		{"update missing", http.MethodPut, "/api/v1/customers/missing", testCustomer(), http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/v1/customers/missing", nil, http.StatusNotFound},
		{"bad limit", http.MethodGet, "/api/v1/customers?limit=-1", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, tt.method, tt.path, tt.body, "")
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}
