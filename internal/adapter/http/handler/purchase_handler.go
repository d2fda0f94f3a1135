package handler

import (
	"context"
	"net/http"

	"github.com/iho/emart/internal/adapter/http/dto"
	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// PurchaseService defines the behavior needed by PurchaseHandler.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, input usecase.CreatePurchaseInput) (*domain.Purchase, error)
	GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error)
	ListPurchases(ctx context.Context, page, size int) (*usecase.Page[*domain.Purchase], error)
}

// PurchaseHandler handles purchase-related HTTP requests.
type PurchaseHandler struct {
	purchaseUC PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(purchaseUC PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseUC: purchaseUC}
}

// Create records a purchase.
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePurchaseRequest
	if !decode(w, r, &req) {
		return
	}

	purchase, err := h.purchaseUC.CreatePurchase(r.Context(), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PurchaseFromDomain(purchase))
}

// Get returns a purchase.
func (h *PurchaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	purchase, err := h.purchaseUC.GetPurchase(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PurchaseFromDomain(purchase))
}

// List returns a page of purchases.
func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.purchaseUC.ListPurchases(r.Context(), parseIntQuery(r, "page", 1), parseIntQuery(r, "size", domain.DefaultPageSize))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PageFromUseCase(page, dto.PurchaseFromDomain))
}
