package handler

import (
	"context"
	"net/http"

	"github.com/iho/emart/internal/adapter/http/dto"
	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// CustomerService defines the behavior needed by CustomerHandler.
type CustomerService interface {
	CreateCustomer(ctx context.Context, input usecase.CustomerInput) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, input usecase.CustomerInput) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	ListCustomers(ctx context.Context, page, size int) (*usecase.Page[*domain.Customer], error)
	SearchCustomers(ctx context.Context, field usecase.CustomerSearchField, query string) ([]*domain.Customer, error)
}

// CustomerHandler handles customer-related HTTP requests.
type CustomerHandler struct {
	customerUC CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerUC CustomerService) *CustomerHandler {
	return &CustomerHandler{customerUC: customerUC}
}

// Create creates a customer.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CustomerRequest
	if !decode(w, r, &req) {
		return
	}

	customer, err := h.customerUC.CreateCustomer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CustomerFromDomain(customer))
}

// Update replaces a customer's details and address.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.CustomerRequest
	if !decode(w, r, &req) {
		return
	}

	customer, err := h.customerUC.UpdateCustomer(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CustomerFromDomain(customer))
}

// Get returns a customer with address and sales.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	customer, err := h.customerUC.GetCustomer(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CustomerFromDomain(customer))
}

// List returns a page of customers.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.customerUC.ListCustomers(r.Context(), parseIntQuery(r, "page", 1), parseIntQuery(r, "size", domain.DefaultPageSize))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PageFromUseCase(page, dto.CustomerFromDomain))
}

// Search matches customers by ?field=firstName|phoneNumber|CNIC&q=...
func (h *CustomerHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	customers, err := h.customerUC.SearchCustomers(r.Context(), usecase.CustomerSearchField(q.Get("field")), q.Get("q"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListFromDomain(customers, dto.CustomerFromDomain))
}
