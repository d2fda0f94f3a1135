package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/infrastructure/metrics"
)

// LedgerUseCase records full payments, installment plans and installment
// payments, and keeps each parent's payment status in step with its balance.
type LedgerUseCase struct {
	txManager       TransactionManager
	parentRepo      ParentRepository
	fullPaymentRepo FullPaymentRepository
	planRepo        InstallmentPlanRepository
	installmentRepo InstallmentRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator
	cache           Cache
	metrics         *metrics.Metrics
	now             func() time.Time
}

// NewLedgerUseCase creates a new LedgerUseCase. cache and m may be nil.
func NewLedgerUseCase(
	txManager TransactionManager,
	parentRepo ParentRepository,
	fullPaymentRepo FullPaymentRepository,
	planRepo InstallmentPlanRepository,
	installmentRepo InstallmentRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cache Cache,
	m *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:       txManager,
		parentRepo:      parentRepo,
		fullPaymentRepo: fullPaymentRepo,
		planRepo:        planRepo,
		installmentRepo: installmentRepo,
		outboxRepo:      outboxRepo,
		idGen:           idGen,
		cache:           cache,
		metrics:         m,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// RecordFullPaymentInput represents input for settling a transaction in one shot.
type RecordFullPaymentInput struct {
	Parent         domain.Parent
	PurchaseAmount decimal.Decimal
	Discount       decimal.Decimal
}

// CreateInstallmentPlanInput represents input for opening an installment plan.
type CreateInstallmentPlanInput struct {
	Parent domain.Parent
	Info   domain.InstallmentPlanInfo
}

// RecordInstallmentPaymentInput represents input for paying an installment.
type RecordInstallmentPaymentInput struct {
	InstallmentID int64
	ActualPayment decimal.Decimal
	DueDate       string
	PaidAt        string
}

// ScheduleInstallmentInput represents input for adding an installment to a plan.
type ScheduleInstallmentInput struct {
	PlanID          int64
	Parent          domain.Parent
	ExpectedPayment decimal.Decimal
	DueDate         string
}

// PaymentResult is the outcome of an installment payment.
type PaymentResult struct {
	Installment *domain.Installment
	Plan        *domain.InstallmentPlan
	Completed   bool
}

// AppliedPayment holds whichever payment record ApplyPaymentInfoTx created.
type AppliedPayment struct {
	FullPayment     *domain.FullPayment
	InstallmentPlan *domain.InstallmentPlan
}

// RecordFullPayment attaches a full payment to an existing sale or purchase
// and completes it.
func (uc *LedgerUseCase) RecordFullPayment(ctx context.Context, input RecordFullPaymentInput) (*domain.FullPayment, error) {
	start := time.Now()
	info := domain.FullPaymentInfo{PurchaseAmount: input.PurchaseAmount, Discount: input.Discount}

	applied, err := uc.attach(ctx, input.Parent, info)
	if err != nil {
		uc.observeError("full_payment", err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.FullPaymentsRecorded.Inc()
		uc.metrics.LedgerDuration.WithLabelValues("full_payment").Observe(time.Since(start).Seconds())
	}

	return applied.FullPayment, nil
}

// CreateInstallmentPlan attaches an installment plan and its first
// installment to an existing sale or purchase.
func (uc *LedgerUseCase) CreateInstallmentPlan(ctx context.Context, input CreateInstallmentPlanInput) (*domain.InstallmentPlan, error) {
	start := time.Now()

	applied, err := uc.attach(ctx, input.Parent, input.Info)
	if err != nil {
		uc.observeError("create_plan", err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PlansCreated.Inc()
		uc.metrics.LedgerDuration.WithLabelValues("create_plan").Observe(time.Since(start).Seconds())
	}

	return applied.InstallmentPlan, nil
}

func (uc *LedgerUseCase) attach(ctx context.Context, parent domain.Parent, info domain.PaymentInfo) (*AppliedPayment, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	state, err := uc.parentRepo.GetStateForUpdate(txCtx, tx, parent)
	if err != nil {
		return nil, err
	}

	if state.HasPaymentRow {
		return nil, domain.NewValidationError("paymentInfo", domain.MsgPaymentAlreadyRecorded)
	}

	if state.Option != info.Option() {
		return nil, domain.NewValidationError("paymentOption", domain.MsgPaymentOptionMismatch)
	}

	applied, err := uc.ApplyPaymentInfoTx(txCtx, tx, state, info, uc.now())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.invalidateDashboard(ctx)

	return applied, nil
}

// ApplyPaymentInfoTx persists info for the parent described by state inside
// tx. A full payment completes the parent; a plan with nothing left to pay
// does too.
func (uc *LedgerUseCase) ApplyPaymentInfoTx(
	ctx context.Context,
	tx Transaction,
	state *ParentState,
	info domain.PaymentInfo,
	now time.Time,
) (*AppliedPayment, error) {
	switch v := info.(type) {
	case domain.FullPaymentInfo:
		payment := &domain.FullPayment{
			Parent:         state.Parent,
			PurchaseAmount: v.PurchaseAmount,
			Discount:       v.Discount,
			CreatedAt:      now,
		}
		if err := uc.fullPaymentRepo.Create(ctx, tx, payment); err != nil {
			return nil, err
		}

		if err := uc.complete(ctx, tx, state, 0, v.PurchaseAmount, now); err != nil {
			return nil, err
		}

		return &AppliedPayment{FullPayment: payment}, nil

	case domain.InstallmentPlanInfo:
		plan, first, err := domain.NewInstallmentPlan(state.Parent, v, now)
		if err != nil {
			return nil, err
		}

		if err := uc.planRepo.Create(ctx, tx, plan); err != nil {
			return nil, err
		}

		first.PlanID = plan.ID
		if err := uc.installmentRepo.Create(ctx, tx, first); err != nil {
			return nil, err
		}
		plan.Installments = []*domain.Installment{first}

		// A down payment covering the whole total leaves nothing to pay, and
		// settled plans reject payments, so the parent completes here.
		if plan.IsSettled() {
			if err := uc.complete(ctx, tx, state, plan.ID, plan.TotalPrice, now); err != nil {
				return nil, err
			}
		}

		return &AppliedPayment{InstallmentPlan: plan}, nil

	default:
		return nil, domain.NewValidationError("paymentInfo", "Payment information is required")
	}
}

// RecordInstallmentPayment records the actual payment of an installment,
// decrements the plan balance, and completes the parent when the balance
// reaches zero. All three writes commit together or not at all.
func (uc *LedgerUseCase) RecordInstallmentPayment(ctx context.Context, input RecordInstallmentPaymentInput) (*PaymentResult, error) {
	start := time.Now()

	result, err := uc.recordInstallmentPayment(ctx, input)
	if err != nil {
		uc.observeError("record_payment", err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsRecorded.Inc()
		uc.metrics.PaymentAmount.Observe(input.ActualPayment.InexactFloat64())
		uc.metrics.LedgerDuration.WithLabelValues("record_payment").Observe(time.Since(start).Seconds())
		if result.Completed {
			uc.metrics.PlansCompleted.WithLabelValues(string(result.Plan.Parent.Kind)).Inc()
		}
	}

	return result, nil
}

func (uc *LedgerUseCase) recordInstallmentPayment(ctx context.Context, input RecordInstallmentPaymentInput) (*PaymentResult, error) {
	ve := &domain.ValidationError{}
	domain.ValidateMoney(ve, "actualPayment", "Actual payment", input.ActualPayment)

	dueDate, err := domain.ParseDate(input.DueDate)
	if err != nil {
		ve.Add("dueDate", "Invalid date")
	}

	paidAt, err := domain.ParseDate(input.PaidAt)
	if err != nil {
		ve.Add("paidAt", "Invalid date")
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	installment, err := uc.installmentRepo.GetByIDTx(txCtx, tx, input.InstallmentID)
	if err != nil {
		return nil, err
	}

	if installment.IsPaid() {
		return nil, domain.NewValidationError("actualPayment", domain.MsgInstallmentAlreadyPaid)
	}

	// Lock the plan so concurrent payments against it serialize.
	plan, err := uc.planRepo.GetByIDForUpdate(txCtx, tx, installment.PlanID)
	if err != nil {
		return nil, err
	}

	if err := plan.ValidatePayment(input.ActualPayment); err != nil {
		return nil, err
	}

	now := uc.now()

	installment.RecordPayment(input.ActualPayment, dueDate, paidAt, now)
	if err := uc.installmentRepo.UpdatePayment(txCtx, tx, installment); err != nil {
		return nil, err
	}

	remaining, completed := plan.ApplyPayment(input.ActualPayment)
	if err := uc.planRepo.UpdateRemainingPrice(txCtx, tx, plan.ID, remaining, now); err != nil {
		return nil, err
	}
	plan.RemainingPrice = remaining
	plan.UpdatedAt = now

	err = uc.emit(txCtx, tx, domain.AggregateTypeInstallment, installment.ID, domain.EventTypePaymentRecorded, map[string]any{
		"installment_id":  installment.ID,
		"plan_id":         plan.ID,
		"parent_kind":     string(plan.Parent.Kind),
		"parent_id":       plan.Parent.ID,
		"amount":          input.ActualPayment.String(),
		"remaining_price": remaining.String(),
		"paid_at":         paidAt.Format(time.RFC3339),
	}, now)
	if err != nil {
		return nil, err
	}

	if completed {
		state := &ParentState{Parent: plan.Parent, Option: domain.PaymentOptionInstallment, Status: domain.PaymentStatusPending}
		if err := uc.complete(txCtx, tx, state, plan.ID, plan.TotalPrice, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.invalidateDashboard(ctx)

	return &PaymentResult{Installment: installment, Plan: plan, Completed: completed}, nil
}

// ScheduleInstallment adds a new unpaid installment to a plan. It never
// changes the plan balance.
func (uc *LedgerUseCase) ScheduleInstallment(ctx context.Context, input ScheduleInstallmentInput) (*domain.Installment, error) {
	ve := &domain.ValidationError{}
	if input.PlanID == 0 {
		ve.Add("planId", "Installment plan is required")
	}
	if input.Parent.ID == 0 {
		field := "saleId"
		if input.Parent.Kind == domain.ParentPurchase {
			field = "purchaseId"
		}
		ve.Add(field, "Transaction is required")
	}
	domain.ValidateMoney(ve, "expectedPayment", "Expected payment", input.ExpectedPayment)

	dueDate, err := domain.ParseDate(input.DueDate)
	if err != nil {
		ve.Add("dueDate", "Invalid date")
	}

	if err := ve.OrNil(); err != nil {
		uc.observeError("schedule", err)
		return nil, err
	}

	plan, err := uc.planRepo.GetByID(ctx, input.PlanID)
	if err != nil {
		uc.observeError("schedule", err)
		return nil, err
	}

	if plan.Parent != input.Parent {
		err := domain.NewValidationError("planId", domain.MsgPlanParentMismatch)
		uc.observeError("schedule", err)
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := uc.now()
	installment := &domain.Installment{
		PlanID:          plan.ID,
		ExpectedPayment: input.ExpectedPayment,
		DueDate:         dueDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.installmentRepo.Create(txCtx, tx, installment); err != nil {
		uc.observeError("schedule", err)
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.InstallmentsAdded.Inc()
	}

	return installment, nil
}

// GetPlan returns the plan of a parent together with its installments.
func (uc *LedgerUseCase) GetPlan(ctx context.Context, parent domain.Parent) (*domain.InstallmentPlan, error) {
	plan, err := uc.planRepo.GetByParent(ctx, parent)
	if err != nil {
		return nil, err
	}

	installments, err := uc.installmentRepo.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	plan.Installments = installments

	return plan, nil
}

// GetFullPayment returns the full payment of a parent.
func (uc *LedgerUseCase) GetFullPayment(ctx context.Context, parent domain.Parent) (*domain.FullPayment, error) {
	return uc.fullPaymentRepo.GetByParent(ctx, parent)
}

func (uc *LedgerUseCase) complete(ctx context.Context, tx Transaction, state *ParentState, planID int64, total decimal.Decimal, now time.Time) error {
	if state.Status == domain.PaymentStatusCompleted {
		return nil
	}

	if err := uc.parentRepo.UpdatePaymentStatus(ctx, tx, state.Parent, domain.PaymentStatusCompleted, now); err != nil {
		return err
	}
	state.Status = domain.PaymentStatusCompleted

	payload := map[string]any{
		"parent_kind": string(state.Parent.Kind),
		"parent_id":   state.Parent.ID,
		"total":       total.String(),
		"event_at":    now.Format(time.RFC3339),
	}
	if planID != 0 {
		payload["plan_id"] = planID
	}

	return uc.emit(ctx, tx, string(state.Parent.Kind), state.Parent.ID, domain.CompletedEventType(state.Parent.Kind), payload, now)
}

func (uc *LedgerUseCase) emit(ctx context.Context, tx Transaction, aggregateType string, aggregateID int64, eventType string, payload map[string]any, now time.Time) error {
	event := newOutboxEvent(uc.idGen, aggregateType, aggregateID, eventType, payload, now)
	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *LedgerUseCase) invalidateDashboard(ctx context.Context) {
	invalidateDashboard(ctx, uc.cache)
}

func (uc *LedgerUseCase) observeError(operation string, err error) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.LedgerErrors.WithLabelValues(operation, ErrorKind(err)).Inc()

	var ve *domain.ValidationError
	if errors.As(err, &ve) && ve.Fields["actualPayment"] == domain.MsgPaymentExceedsRemaining {
		uc.metrics.OverpaymentsRejected.Inc()
	}
}

// ErrorKind classifies err as validation, not_found or internal.
func ErrorKind(err error) string {
	switch {
	case domain.IsValidation(err):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
