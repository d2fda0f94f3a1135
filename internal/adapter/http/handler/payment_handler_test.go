package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/adapter/http/dto"
	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

type ledgerServiceStub struct {
	fullPaymentFn func(ctx context.Context, input usecase.RecordFullPaymentInput) (*domain.FullPayment, error)
	planFn        func(ctx context.Context, input usecase.CreateInstallmentPlanInput) (*domain.InstallmentPlan, error)
	scheduleFn    func(ctx context.Context, input usecase.ScheduleInstallmentInput) (*domain.Installment, error)
	payFn         func(ctx context.Context, input usecase.RecordInstallmentPaymentInput) (*usecase.PaymentResult, error)
}

func (s *ledgerServiceStub) RecordFullPayment(ctx context.Context, input usecase.RecordFullPaymentInput) (*domain.FullPayment, error) {
	return s.fullPaymentFn(ctx, input)
}

func (s *ledgerServiceStub) CreateInstallmentPlan(ctx context.Context, input usecase.CreateInstallmentPlanInput) (*domain.InstallmentPlan, error) {
	return s.planFn(ctx, input)
}

func (s *ledgerServiceStub) ScheduleInstallment(ctx context.Context, input usecase.ScheduleInstallmentInput) (*domain.Installment, error) {
	return s.scheduleFn(ctx, input)
}

func (s *ledgerServiceStub) RecordInstallmentPayment(ctx context.Context, input usecase.RecordInstallmentPaymentInput) (*usecase.PaymentResult, error) {
	return s.payFn(ctx, input)
}

func TestPaymentHandlerCreateInstallmentPlan(t *testing.T) {
	stub := &ledgerServiceStub{
		planFn: func(ctx context.Context, input usecase.CreateInstallmentPlanInput) (*domain.InstallmentPlan, error) {
			if input.Parent != domain.SaleParent(5) {
				t.Fatalf("unexpected parent %v", input.Parent)
			}
			return &domain.InstallmentPlan{
				ID:             3,
				Parent:         input.Parent,
				TotalPrice:     input.Info.TotalPrice,
				DownPayment:    input.Info.DownPayment,
				RemainingPrice: input.Info.TotalPrice.Sub(input.Info.DownPayment),
			}, nil
		},
	}
	h := NewPaymentHandler(stub)

	body := `{"totalPrice":100000,"downPayment":20000,"installmentPeriod":4,"dueDate":"2026-11-01","expectedPayment":20000}`
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/sales/5/installment-plan", strings.NewReader(body)), "id", "5")
	rr := httptest.NewRecorder()

	h.CreateInstallmentPlan(domain.ParentSale)(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp dto.InstallmentPlanResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.RemainingPrice.Equal(decimal.NewFromInt(80000)) {
		t.Fatalf("expected remaining 80000, got %s", resp.RemainingPrice)
	}
}

func TestPaymentHandlerScheduleForPurchase(t *testing.T) {
	stub := &ledgerServiceStub{
		scheduleFn: func(ctx context.Context, input usecase.ScheduleInstallmentInput) (*domain.Installment, error) {
			if input.Parent != domain.PurchaseParent(8) || input.PlanID != 2 {
				t.Fatalf("unexpected input %+v", input)
			}
			return &domain.Installment{ID: 10, PlanID: 2, ExpectedPayment: input.ExpectedPayment}, nil
		},
	}
	h := NewPaymentHandler(stub)

	body := `{"planId":2,"expectedPayment":15000,"dueDate":"2026-12-01"}`
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/purchases/8/installments", strings.NewReader(body)), "id", "8")
	rr := httptest.NewRecorder()

	h.ScheduleInstallment(domain.ParentPurchase)(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestPaymentHandlerRecordInstallmentPaymentCompletes(t *testing.T) {
	stub := &ledgerServiceStub{
		payFn: func(ctx context.Context, input usecase.RecordInstallmentPaymentInput) (*usecase.PaymentResult, error) {
			if input.InstallmentID != 12 || !input.ActualPayment.Equal(decimal.NewFromInt(80000)) {
				t.Fatalf("unexpected input %+v", input)
			}
			paid := input.ActualPayment
			return &usecase.PaymentResult{
				Installment: &domain.Installment{ID: 12, ActualPayment: &paid},
				Plan:        &domain.InstallmentPlan{ID: 3, TotalPrice: decimal.NewFromInt(100000), RemainingPrice: decimal.Zero},
				Completed:   true,
			}, nil
		},
	}
	h := NewPaymentHandler(stub)

	body := `{"actualPayment":80000,"dueDate":"2026-11-01","paidAt":"2026-10-30"}`
	req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/installments/12/payment", strings.NewReader(body)), "id", "12")
	rr := httptest.NewRecorder()

	h.RecordInstallmentPayment(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp dto.PaymentResultResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Completed || !resp.Plan.RemainingPrice.IsZero() {
		t.Fatalf("expected completed plan, got %+v", resp)
	}
}

func TestPaymentHandlerRecordInstallmentPaymentOverpayment(t *testing.T) {
	stub := &ledgerServiceStub{
		payFn: func(ctx context.Context, input usecase.RecordInstallmentPaymentInput) (*usecase.PaymentResult, error) {
			return nil, domain.NewValidationError("actualPayment", domain.MsgPaymentExceedsRemaining)
		},
	}
	h := NewPaymentHandler(stub)

	body := `{"actualPayment":90000,"dueDate":"2026-11-01","paidAt":"2026-10-30"}`
	req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/installments/12/payment", strings.NewReader(body)), "id", "12")
	rr := httptest.NewRecorder()

	h.RecordInstallmentPayment(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Fields["actualPayment"] != domain.MsgPaymentExceedsRemaining {
		t.Fatalf("unexpected fields %+v", resp.Fields)
	}
}

func TestPaymentHandlerRecordFullPaymentInternalError(t *testing.T) {
	stub := &ledgerServiceStub{
		fullPaymentFn: func(ctx context.Context, input usecase.RecordFullPaymentInput) (*domain.FullPayment, error) {
			return nil, errors.New("deadlock detected")
		},
	}
	h := NewPaymentHandler(stub)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/sales/5/full-payment",
		strings.NewReader(`{"purchaseAmount":85000,"discount":5000}`)), "id", "5")
	rr := httptest.NewRecorder()

	h.RecordFullPayment(domain.ParentSale)(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}
