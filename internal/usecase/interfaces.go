package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
)

// ParentState is the payment-relevant state of a sale or purchase.
type ParentState struct {
	Parent        domain.Parent
	Option        domain.PaymentOption
	Status        domain.PaymentStatus
	HasPaymentRow bool
}

// ParentRepository reads and updates the payment status of sales and purchases.
type ParentRepository interface {
	GetStateForUpdate(ctx context.Context, tx Transaction, parent domain.Parent) (*ParentState, error)
	UpdatePaymentStatus(ctx context.Context, tx Transaction, parent domain.Parent, status domain.PaymentStatus, updatedAt time.Time) error
}

// FullPaymentRepository defines data access for full payments.
type FullPaymentRepository interface {
	Create(ctx context.Context, tx Transaction, payment *domain.FullPayment) error
	GetByParent(ctx context.Context, parent domain.Parent) (*domain.FullPayment, error)
}

// InstallmentPlanRepository defines data access for installment plans.
type InstallmentPlanRepository interface {
	Create(ctx context.Context, tx Transaction, plan *domain.InstallmentPlan) error
	GetByID(ctx context.Context, id int64) (*domain.InstallmentPlan, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id int64) (*domain.InstallmentPlan, error)
	GetByParent(ctx context.Context, parent domain.Parent) (*domain.InstallmentPlan, error)
	UpdateRemainingPrice(ctx context.Context, tx Transaction, id int64, remaining decimal.Decimal, updatedAt time.Time) error
}

// InstallmentRepository defines data access for installments.
type InstallmentRepository interface {
	Create(ctx context.Context, tx Transaction, installment *domain.Installment) error
	GetByIDTx(ctx context.Context, tx Transaction, id int64) (*domain.Installment, error)
	UpdatePayment(ctx context.Context, tx Transaction, installment *domain.Installment) error
	ListByPlan(ctx context.Context, planID int64) ([]*domain.Installment, error)
}

// SaleRepository defines data access for sales.
type SaleRepository interface {
	Create(ctx context.Context, tx Transaction, sale *domain.Sale) error
	CreateItem(ctx context.Context, tx Transaction, saleID int64, item *domain.LineItem) error
	CreateBookRecord(ctx context.Context, tx Transaction, record *domain.BookRecord) error
	GetByID(ctx context.Context, id int64) (*domain.Sale, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Sale, error)
	Count(ctx context.Context) (int, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Sale, error)
}

// PurchaseRepository defines data access for purchases.
type PurchaseRepository interface {
	Create(ctx context.Context, tx Transaction, purchase *domain.Purchase) error
	CreateItem(ctx context.Context, tx Transaction, purchaseID int64, item *domain.LineItem) error
	GetByID(ctx context.Context, id int64) (*domain.Purchase, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Purchase, error)
	Count(ctx context.Context) (int, error)
}

// DashboardRepository aggregates reporting figures.
type DashboardRepository interface {
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	CountPendingPayments(ctx context.Context) (int, error)
	CountCompanies(ctx context.Context) (int, error)
	CompanySummaries(ctx context.Context) ([]domain.CompanySummary, error)
	PendingSales(ctx context.Context, limit int) ([]*domain.Sale, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// EventPublisher delivers outbox events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not succeed so it can be retried.
	Release(ctx context.Context, key string) error
}
