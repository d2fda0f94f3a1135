package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/infrastructure/metrics"
)

// SaleUseCase handles sale business logic.
type SaleUseCase struct {
	txManager    TransactionManager
	saleRepo     SaleRepository
	customerRepo CustomerRepository
	productRepo  ProductRepository
	outboxRepo   OutboxRepository
	ledger       *LedgerUseCase
	idGen        IDGenerator
	cache        Cache
	metrics      *metrics.Metrics
}

// NewSaleUseCase creates a new SaleUseCase.
func NewSaleUseCase(
	txManager TransactionManager,
	saleRepo SaleRepository,
	customerRepo CustomerRepository,
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	ledger *LedgerUseCase,
	idGen IDGenerator,
	cache Cache,
	m *metrics.Metrics,
) *SaleUseCase {
	return &SaleUseCase{
		txManager:    txManager,
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		outboxRepo:   outboxRepo,
		ledger:       ledger,
		idGen:        idGen,
		cache:        cache,
		metrics:      m,
	}
}

// BookRecordInput points at the paper ledger page of a sale.
type BookRecordInput struct {
	BookName    string
	PageNumber  int
	Description string
}

// CreateSaleInput represents input for creating a sale. PaymentInfo may be
// nil, in which case the payment is attached later through the ledger.
type CreateSaleInput struct {
	CustomerID    int64
	PaymentOption domain.PaymentOption
	PaymentInfo   domain.PaymentInfo
	Items         []LineItemInput
	BookRecord    *BookRecordInput
}

// CreateSale checks stock, then creates the sale, its payment record, stock
// decrements, line items and book record in one transaction.
func (uc *SaleUseCase) CreateSale(ctx context.Context, input CreateSaleInput) (*domain.Sale, error) {
	ve := &domain.ValidationError{}
	if input.CustomerID == 0 {
		ve.Add("customerId", "Customer is required")
	}
	validateItems(ve, input.Items)
	option := resolveOption(ve, input.PaymentOption, input.PaymentInfo)

	if br := input.BookRecord; br != nil {
		domain.ValidateLength(ve, "bookRecord.bookName", "Book name", br.BookName, 1, domain.MaxNameLength)
		if br.PageNumber < 0 {
			ve.Add("bookRecord.pageNumber", "Page number cannot be negative")
		}
	}

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

	if err := uc.reserveStock(txCtx, tx, input.Items); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sale := &domain.Sale{
		CustomerID:    customer.ID,
		Customer:      customer,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentOption: option,
		Items:         toLineItems(input.Items),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.saleRepo.Create(txCtx, tx, sale); err != nil {
		return nil, err
	}

	for _, item := range sale.Items {
		if err := uc.saleRepo.CreateItem(txCtx, tx, sale.ID, item); err != nil {
			return nil, err
		}
	}

	if br := input.BookRecord; br != nil {
		sale.BookRecord = &domain.BookRecord{
			SaleID:      sale.ID,
			BookName:    br.BookName,
			PageNumber:  br.PageNumber,
			Description: br.Description,
		}
		if err := uc.saleRepo.CreateBookRecord(txCtx, tx, sale.BookRecord); err != nil {
			return nil, err
		}
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeSale, sale.ID, domain.EventTypeSaleCreated, map[string]any{
		"parent_kind":    string(domain.ParentSale),
		"parent_id":      sale.ID,
		"customer_id":    sale.CustomerID,
		"payment_option": string(option),
		"total":          sale.Total().String(),
	}, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if input.PaymentInfo != nil {
		state := &ParentState{Parent: domain.SaleParent(sale.ID), Option: option, Status: sale.PaymentStatus}
		applied, err := uc.ledger.ApplyPaymentInfoTx(txCtx, tx, state, input.PaymentInfo, now)
		if err != nil {
			return nil, err
		}
		sale.PaymentStatus = state.Status
		sale.FullPayment = applied.FullPayment
		sale.InstallmentPlan = applied.InstallmentPlan
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	invalidateDashboard(ctx, uc.cache)

	if uc.metrics != nil {
		uc.metrics.SalesCreated.WithLabelValues(string(option)).Inc()
	}

	return sale, nil
}

// reserveStock locks the sold products, rejects the sale when any of them is
// short, and decrements stock otherwise.
func (uc *SaleUseCase) reserveStock(ctx context.Context, tx Transaction, items []LineItemInput) error {
	qty, ids := quantitiesByProduct(items)

	products, err := uc.productRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return err
	}

	if len(products) != len(ids) {
		return domain.ErrProductNotFound
	}

	ve := &domain.ValidationError{}
	for _, p := range products {
		if !p.HasStock(qty[p.ID]) {
			ve.Add(fmt.Sprintf("stock.%d", p.ID), domain.MsgNotEnoughStock)
		}
	}
	if err := ve.OrNil(); err != nil {
		if uc.metrics != nil {
			uc.metrics.StockRejections.Inc()
		}
		return err
	}

	for _, id := range ids {
		if err := uc.productRepo.AdjustStock(ctx, tx, id, -qty[id]); err != nil {
			return err
		}
	}

	return nil
}

// GetSale returns a sale with its customer, items, book record and payment.
func (uc *SaleUseCase) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	parent := domain.SaleParent(sale.ID)

	switch sale.PaymentOption {
	case domain.PaymentOptionFull:
		fp, err := uc.ledger.GetFullPayment(ctx, parent)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		sale.FullPayment = fp
	case domain.PaymentOptionInstallment:
		plan, err := uc.ledger.GetPlan(ctx, parent)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		sale.InstallmentPlan = plan
	}

	return sale, nil
}

// ListSales returns a page of sales, newest first.
func (uc *SaleUseCase) ListSales(ctx context.Context, page, size int) (*Page[*domain.Sale], error) {
	page, size = domain.ValidatePagination(page, size)

	sales, err := uc.saleRepo.List(ctx, size, domain.Offset(page, size))
	if err != nil {
		return nil, err
	}

	total, err := uc.saleRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &Page[*domain.Sale]{Items: sales, Total: total, Page: page, Size: size}, nil
}
