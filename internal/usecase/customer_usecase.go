package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/emart/internal/domain"
)

// CustomerSearchLimit caps customer search results.
const CustomerSearchLimit = 20

// CustomerUseCase handles customer business logic.
type CustomerUseCase struct {
	txManager    TransactionManager
	customerRepo CustomerRepository
	saleRepo     SaleRepository
}

// NewCustomerUseCase creates a new CustomerUseCase.
func NewCustomerUseCase(txManager TransactionManager, customerRepo CustomerRepository, saleRepo SaleRepository) *CustomerUseCase {
	return &CustomerUseCase{
		txManager:    txManager,
		customerRepo: customerRepo,
		saleRepo:     saleRepo,
	}
}

// AddressInput represents a customer address.
type AddressInput struct {
	District string
	Tehsil   string
	City     string
	Detail   string
}

// CustomerInput represents input for creating or updating a customer.
type CustomerInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	CNIC        string
	Address     *AddressInput
}

func (in CustomerInput) apply(c *domain.Customer) {
	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	c.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	c.CNIC = strings.TrimSpace(in.CNIC)

	if in.Address == nil {
		return
	}
	if c.Address == nil {
		c.Address = &domain.Address{CustomerID: c.ID}
	}
	c.Address.District = strings.TrimSpace(in.Address.District)
	c.Address.Tehsil = strings.TrimSpace(in.Address.Tehsil)
	c.Address.City = strings.TrimSpace(in.Address.City)
	c.Address.Detail = strings.TrimSpace(in.Address.Detail)
}

// CreateCustomer creates a customer and, if given, its address.
func (uc *CustomerUseCase) CreateCustomer(ctx context.Context, input CustomerInput) (*domain.Customer, error) {
	now := time.Now().UTC()
	customer := &domain.Customer{CreatedAt: now, UpdatedAt: now}
	input.apply(customer)

	if err := customer.Validate(); err != nil {
		return nil, err
	}

	return customer, uc.save(ctx, customer, true)
}

// UpdateCustomer replaces a customer's fields and upserts the address.
func (uc *CustomerUseCase) UpdateCustomer(ctx context.Context, id int64, input CustomerInput) (*domain.Customer, error) {
	customer, err := uc.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	input.apply(customer)
	customer.UpdatedAt = time.Now().UTC()

	if err := customer.Validate(); err != nil {
		return nil, err
	}

	return customer, uc.save(ctx, customer, false)
}

func (uc *CustomerUseCase) save(ctx context.Context, customer *domain.Customer, create bool) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if create {
		err = uc.customerRepo.Create(txCtx, tx, customer)
	} else {
		err = uc.customerRepo.Update(txCtx, tx, customer)
	}
	if err != nil {
		return err
	}

	if customer.Address != nil {
		customer.Address.CustomerID = customer.ID
		if err := uc.customerRepo.UpsertAddress(txCtx, tx, customer.Address); err != nil {
			return err
		}
	}

	return tx.Commit(txCtx)
}

// GetCustomer returns a customer with address and sales.
func (uc *CustomerUseCase) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, err := uc.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sales, err := uc.saleRepo.ListByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	customer.Sales = sales

	return customer, nil
}

// ListCustomers returns a page of customers.
func (uc *CustomerUseCase) ListCustomers(ctx context.Context, page, size int) (*Page[*domain.Customer], error) {
	page, size = domain.ValidatePagination(page, size)

	customers, err := uc.customerRepo.List(ctx, size, domain.Offset(page, size))
	if err != nil {
		return nil, err
	}

	total, err := uc.customerRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &Page[*domain.Customer]{Items: customers, Total: total, Page: page, Size: size}, nil
}

// SearchCustomers matches query against one customer field.
func (uc *CustomerUseCase) SearchCustomers(ctx context.Context, field CustomerSearchField, query string) ([]*domain.Customer, error) {
	ve := &domain.ValidationError{}
	if !field.IsValid() {
		ve.Add("field", "Search field must be firstName, phoneNumber or CNIC")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		ve.Add("query", "Search query is required")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	return uc.customerRepo.Search(ctx, field, query, CustomerSearchLimit)
}
