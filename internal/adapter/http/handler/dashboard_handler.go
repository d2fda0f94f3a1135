package handler

import (
	"context"
	"net/http"

	"github.com/iho/emart/internal/adapter/http/dto"
	"github.com/iho/emart/internal/domain"
)

// DashboardService defines the behavior needed by DashboardHandler.
type DashboardService interface {
	Get(ctx context.Context) (*domain.Dashboard, error)
	Refresh(ctx context.Context) (*domain.Dashboard, error)
}

// DashboardHandler serves the shop overview.
type DashboardHandler struct {
	dashboardUC DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardUC DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardUC: dashboardUC}
}

// Get returns the dashboard. ?refresh=true bypasses the cache.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	get := h.dashboardUC.Get
	if r.URL.Query().Get("refresh") == "true" {
		get = h.dashboardUC.Refresh
	}

	dashboard, err := get(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DashboardFromDomain(dashboard))
}
