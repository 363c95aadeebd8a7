package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dcadvisors/backoffice/internal/customer"
)

// CustomerResponse is a customer with display-formatted documents
type CustomerResponse struct {
	customer.Customer
	CNPJFormatado     string `json:"cnpjFormatado"`
	TelefoneFormatado string `json:"telefoneFormatado,omitempty"`
	CEPFormatado      string `json:"cepFormatado,omitempty"`
}

// CustomerListResponse is a page of the directory
type CustomerListResponse struct {
	Customers []CustomerResponse `json:"customers"`
	Total     int                `json:"total"`
}

func toCustomerResponse(c customer.Customer) CustomerResponse {
	resp := CustomerResponse{
		Customer:      c,
		CNPJFormatado: customer.FormatCNPJ(c.CNPJ),
	}
	if c.Telefone != nil {
		resp.TelefoneFormatado = customer.FormatPhone(*c.Telefone)
	}
	if c.Endereco != nil {
		resp.CEPFormatado = customer.FormatCEP(c.Endereco.CEP)
	}
	return resp
}

// handleListCustomers handles GET /api/v1/customers
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		sendError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		sendError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	customers, total, err := s.customers.List(r.Context(), customer.ListFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.sendServiceError(w, err)
		return
	}

	resp := CustomerListResponse{Customers: make([]CustomerResponse, 0, len(customers)), Total: total}
	for _, c := range customers {
		resp.Customers = append(resp.Customers, toCustomerResponse(c))
	}
	sendJSON(w, http.StatusOK, resp)
}

// handleCreateCustomer handles POST /api/v1/customers
func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c customer.Customer
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = ""

	if err := s.customers.Create(r.Context(), &c); err != nil {
		s.sendServiceError(w, err)
		return
	}

	s.logger.Info("customer created", "id", c.ID, "cnpj", customer.FormatCNPJ(c.CNPJ))
	sendJSON(w, http.StatusCreated, toCustomerResponse(c))
}

// handleGetCustomer handles GET /api/v1/customers/{id}
func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := s.customers.Get(r.Context(), id)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	if c == nil {
		s.sendServiceError(w, fmt.Errorf("%w: %s", customer.ErrNotFound, id))
		return
	}
	sendJSON(w, http.StatusOK, toCustomerResponse(*c))
}

// handleUpdateCustomer handles PUT /api/v1/customers/{id}
func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var c customer.Customer
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = chi.URLParam(r, "id")

	if err := s.customers.Update(r.Context(), &c); err != nil {
		s.sendServiceError(w, err)
		return
	}

	s.logger.Info("customer updated", "id", c.ID)
	sendJSON(w, http.StatusOK, toCustomerResponse(c))
}

// handleDeleteCustomer handles DELETE /api/v1/customers/{id}
func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := s.customers.Delete(r.Context(), id)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	if !deleted {
		s.sendServiceError(w, fmt.Errorf("%w: %s", customer.ErrNotFound, id))
		return
	}

	s.logger.Info("customer deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
