package handler

import (
	"context"
	"net/http"

	"github.com/iho/emart/internal/adapter/http/dto"
	"github.com/iho/emart/internal/domain"
)

// CatalogService defines the behavior needed by CatalogHandler.
type CatalogService interface {
	CreateCompany(ctx context.Context, name string) (*domain.Company, error)
	ListCompanies(ctx context.Context) ([]*domain.Company, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

// CatalogHandler handles company and category requests.
type CatalogHandler struct {
	catalogUC CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogUC CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogUC: catalogUC}
}

// CreateCompany creates a company.
func (h *CatalogHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req dto.NameRequest
	if !decode(w, r, &req) {
		return
	}

	company, err := h.catalogUC.CreateCompany(r.Context(), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CompanyFromDomain(company))
}

// ListCompanies lists companies.
func (h *CatalogHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.catalogUC.ListCompanies(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListFromDomain(companies, dto.CompanyFromDomain))
}

// CreateCategory creates a category.
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.NameRequest
	if !decode(w, r, &req) {
		return
	}

	category, err := h.catalogUC.CreateCategory(r.Context(), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CategoryFromDomain(category))
}

// ListCategories lists categories.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogUC.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListFromDomain(categories, dto.CategoryFromDomain))
}
