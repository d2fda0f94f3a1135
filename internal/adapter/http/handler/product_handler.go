package handler

import (
	"context"
	"net/http"

	"github.com/iho/emart/internal/adapter/http/dto"
	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// ProductService defines the behavior needed by ProductHandler.
type ProductService interface {
	CreateProduct(ctx context.Context, input usecase.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, input usecase.ProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, page, size int) (*usecase.Page[*domain.Product], error)
	SearchProducts(ctx context.Context, companyID, categoryID int64, model string) ([]*domain.Product, error)
	ListOutOfStock(ctx context.Context) ([]*domain.Product, error)
}

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	productUC ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productUC ProductService) *ProductHandler {
	return &ProductHandler{productUC: productUC}
}

// Create creates a product.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductRequest
	if !decode(w, r, &req) {
		return
	}

	product, err := h.productUC.CreateProduct(r.Context(), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ProductFromDomain(product))
}

// Update updates a product.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.ProductRequest
	if !decode(w, r, &req) {
		return
	}

	product, err := h.productUC.UpdateProduct(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProductFromDomain(product))
}

// Get returns a product.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.productUC.GetProduct(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProductFromDomain(product))
}

// List returns a page of products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.productUC.ListProducts(r.Context(), parseIntQuery(r, "page", 1), parseIntQuery(r, "size", domain.DefaultPageSize))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PageFromUseCase(page, dto.ProductFromDomain))
}

// Search finds products by ?companyId=&categoryId=&model=
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.productUC.SearchProducts(r.Context(),
		parseInt64Query(r, "companyId"),
		parseInt64Query(r, "categoryId"),
		r.URL.Query().Get("model"),
	)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListFromDomain(products, dto.ProductFromDomain))
}

// OutOfStock lists products with zero stock.
func (h *ProductHandler) OutOfStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.productUC.ListOutOfStock(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListFromDomain(products, dto.ProductFromDomain))
}
