package handler

import (
	"context"
	"net/http"

	"github.com/iho/emart/internal/adapter/http/dto"
	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// LedgerService defines the payment operations exposed over HTTP.
type LedgerService interface {
	RecordFullPayment(ctx context.Context, input usecase.RecordFullPaymentInput) (*domain.FullPayment, error)
	CreateInstallmentPlan(ctx context.Context, input usecase.CreateInstallmentPlanInput) (*domain.InstallmentPlan, error)
	ScheduleInstallment(ctx context.Context, input usecase.ScheduleInstallmentInput) (*domain.Installment, error)
	RecordInstallmentPayment(ctx context.Context, input usecase.RecordInstallmentPaymentInput) (*usecase.PaymentResult, error)
}

// PaymentHandler handles full payments, installment plans and installments
// of both sales and purchases.
type PaymentHandler struct {
	ledgerUC LedgerService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ledgerUC LedgerService) *PaymentHandler {
	return &PaymentHandler{ledgerUC: ledgerUC}
}

// RecordFullPayment returns a handler settling the sale or purchase {id} in
// one shot.
func (h *PaymentHandler) RecordFullPayment(kind domain.ParentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req dto.FullPaymentRequest
		if !decode(w, r, &req) {
			return
		}

		payment, err := h.ledgerUC.RecordFullPayment(r.Context(), req.ToUseCaseInput(domain.Parent{Kind: kind, ID: id}))
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, dto.FullPaymentFromDomain(payment))
	}
}

// CreateInstallmentPlan returns a handler opening a plan for {id}.
func (h *PaymentHandler) CreateInstallmentPlan(kind domain.ParentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req dto.InstallmentPlanRequest
		if !decode(w, r, &req) {
			return
		}

		plan, err := h.ledgerUC.CreateInstallmentPlan(r.Context(), req.ToUseCaseInput(domain.Parent{Kind: kind, ID: id}))
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, dto.PlanFromDomain(plan))
	}
}

// ScheduleInstallment returns a handler adding an installment to the plan of {id}.
func (h *PaymentHandler) ScheduleInstallment(kind domain.ParentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req dto.ScheduleInstallmentRequest
		if !decode(w, r, &req) {
			return
		}

		installment, err := h.ledgerUC.ScheduleInstallment(r.Context(), req.ToUseCaseInput(domain.Parent{Kind: kind, ID: id}))
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, dto.InstallmentFromDomain(installment))
	}
}

// RecordInstallmentPayment records the actual payment of installment {id}.
func (h *PaymentHandler) RecordInstallmentPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.ledgerUC.RecordInstallmentPayment(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentResultFromUseCase(result))
}
