package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/infrastructure/metrics"
)

// PurchaseUseCase handles purchase business logic.
type PurchaseUseCase struct {
	txManager    TransactionManager
	purchaseRepo PurchaseRepository
	customerRepo CustomerRepository
	outboxRepo   OutboxRepository
	ledger       *LedgerUseCase
	idGen        IDGenerator
	cache        Cache
	metrics      *metrics.Metrics
}

// NewPurchaseUseCase creates a new PurchaseUseCase.
func NewPurchaseUseCase(
	txManager TransactionManager,
	purchaseRepo PurchaseRepository,
	customerRepo CustomerRepository,
	outboxRepo OutboxRepository,
	ledger *LedgerUseCase,
	idGen IDGenerator,
	cache Cache,
	m *metrics.Metrics,
) *PurchaseUseCase {
	return &PurchaseUseCase{
		txManager:    txManager,
		purchaseRepo: purchaseRepo,
		customerRepo: customerRepo,
		outboxRepo:   outboxRepo,
		ledger:       ledger,
		idGen:        idGen,
		cache:        cache,
		metrics:      m,
	}
}

// CreatePurchaseInput represents input for recording goods bought for stock.
type CreatePurchaseInput struct {
	CustomerID    int64
	PaymentOption domain.PaymentOption
	PaymentInfo   domain.PaymentInfo
	Items         []LineItemInput
}

// CreatePurchase creates the purchase, its payment record and line items in
// one transaction. Stock is not touched.
func (uc *PurchaseUseCase) CreatePurchase(ctx context.Context, input CreatePurchaseInput) (*domain.Purchase, error) {
	ve := &domain.ValidationError{}
	if input.CustomerID == 0 {
		ve.Add("customerId", "Customer is required")
	}
	validateItems(ve, input.Items)
	option := resolveOption(ve, input.PaymentOption, input.PaymentInfo)

	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	customer, err := uc.customerRepo.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	purchase := &domain.Purchase{
		CustomerID:    customer.ID,
		Customer:      customer,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentOption: option,
		Items:         toLineItems(input.Items),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.purchaseRepo.Create(txCtx, tx, purchase); err != nil {
		return nil, err
	}

	for _, item := range purchase.Items {
		if err := uc.purchaseRepo.CreateItem(txCtx, tx, purchase.ID, item); err != nil {
			return nil, err
		}
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypePurchase, purchase.ID, domain.EventTypePurchaseCreated, map[string]any{
		"parent_kind":    string(domain.ParentPurchase),
		"parent_id":      purchase.ID,
		"customer_id":    purchase.CustomerID,
		"payment_option": string(option),
		"total":          purchase.Total().String(),
	}, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if input.PaymentInfo != nil {
		state := &ParentState{Parent: domain.PurchaseParent(purchase.ID), Option: option, Status: purchase.PaymentStatus}
		applied, err := uc.ledger.ApplyPaymentInfoTx(txCtx, tx, state, input.PaymentInfo, now)
		if err != nil {
			return nil, err
		}
		purchase.PaymentStatus = state.Status
		purchase.FullPayment = applied.FullPayment
		purchase.InstallmentPlan = applied.InstallmentPlan
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	invalidateDashboard(ctx, uc.cache)

	if uc.metrics != nil {
		uc.metrics.PurchasesCreated.WithLabelValues(string(option)).Inc()
	}

	return purchase, nil
}

// GetPurchase returns a purchase with its customer, items and payment.
func (uc *PurchaseUseCase) GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error) {
	purchase, err := uc.purchaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	parent := domain.PurchaseParent(purchase.ID)

	switch purchase.PaymentOption {
	case domain.PaymentOptionFull:
		fp, err := uc.ledger.GetFullPayment(ctx, parent)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		purchase.FullPayment = fp
	case domain.PaymentOptionInstallment:
		plan, err := uc.ledger.GetPlan(ctx, parent)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		purchase.InstallmentPlan = plan
	}

	return purchase, nil
}

// ListPurchases returns a page of purchases, newest first.
func (uc *PurchaseUseCase) ListPurchases(ctx context.Context, page, size int) (*Page[*domain.Purchase], error) {
	page, size = domain.ValidatePagination(page, size)

	purchases, err := uc.purchaseRepo.List(ctx, size, domain.Offset(page, size))
	if err != nil {
		return nil, err
	}

	total, err := uc.purchaseRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &Page[*domain.Purchase]{Items: purchases, Total: total, Page: page, Size: size}, nil
}
