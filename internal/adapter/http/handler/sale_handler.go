package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/iho/emart/internal/adapter/http/dto"
	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// SaleService defines the behavior needed by SaleHandler.
type SaleService interface {
	CreateSale(ctx context.Context, input usecase.CreateSaleInput) (*domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	ListSales(ctx context.Context, page, size int) (*usecase.Page[*domain.Sale], error)
}

// InvoiceRenderer renders a sale as a printable document.
type InvoiceRenderer interface {
	Render(w io.Writer, sale *domain.Sale) error
}

// SaleHandler handles sale-related HTTP requests.
type SaleHandler struct {
	saleUC  SaleService
	invoice InvoiceRenderer
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(saleUC SaleService, invoice InvoiceRenderer) *SaleHandler {
	return &SaleHandler{
		saleUC:  saleUC,
		invoice: invoice,
	}
}

// Create records a sale with its line items, book record and payment info.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSaleRequest
	if !decode(w, r, &req) {
		return
	}

	sale, err := h.saleUC.CreateSale(r.Context(), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SaleFromDomain(sale))
}

// Get returns a sale with customer, items and payment records.
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sale, err := h.saleUC.GetSale(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SaleFromDomain(sale))
}

// List returns a page of sales.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.saleUC.ListSales(r.Context(), parseIntQuery(r, "page", 1), parseIntQuery(r, "size", domain.DefaultPageSize))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PageFromUseCase(page, dto.SaleFromDomain))
}

// Invoice streams the sale as a PDF.
func (h *SaleHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sale, err := h.saleUC.GetSale(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.invoice.Render(&buf, sale); err != nil {
		respondError(w, r, fmt.Errorf("render invoice for sale %d: %w", id, err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="invoice-%d.pdf"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
