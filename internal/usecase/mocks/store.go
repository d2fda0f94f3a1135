package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// ErrTxClosed is returned when committing a finished transaction.
var ErrTxClosed = errors.New("transaction already closed")

type state struct {
	nextID        int64
	customers     map[int64]domain.Customer
	addresses     map[int64]domain.Address
	products      map[int64]domain.Product
	sales         map[int64]domain.Sale
	purchases     map[int64]domain.Purchase
	saleItems     map[int64][]domain.LineItem
	purchaseItems map[int64][]domain.LineItem
	bookRecords   map[int64]domain.BookRecord
	fullPayments  map[domain.Parent]domain.FullPayment
	plans         map[int64]domain.InstallmentPlan
	installments  map[int64]domain.Installment
	outbox        []domain.OutboxEvent
}

func newState() *state {
	return &state{
		customers:     make(map[int64]domain.Customer),
		addresses:     make(map[int64]domain.Address),
		products:      make(map[int64]domain.Product),
		sales:         make(map[int64]domain.Sale),
		purchases:     make(map[int64]domain.Purchase),
		saleItems:     make(map[int64][]domain.LineItem),
		purchaseItems: make(map[int64][]domain.LineItem),
		bookRecords:   make(map[int64]domain.BookRecord),
		fullPayments:  make(map[domain.Parent]domain.FullPayment),
		plans:         make(map[int64]domain.InstallmentPlan),
		installments:  make(map[int64]domain.Installment),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneItems(m map[int64][]domain.LineItem) map[int64][]domain.LineItem {
	out := make(map[int64][]domain.LineItem, len(m))
	for k, v := range m {
		out[k] = append([]domain.LineItem(nil), v...)
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		nextID:        s.nextID,
		customers:     cloneMap(s.customers),
		addresses:     cloneMap(s.addresses),
		products:      cloneMap(s.products),
		sales:         cloneMap(s.sales),
		purchases:     cloneMap(s.purchases),
		saleItems:     cloneItems(s.saleItems),
		purchaseItems: cloneItems(s.purchaseItems),
		bookRecords:   cloneMap(s.bookRecords),
		fullPayments:  cloneMap(s.fullPayments),
		plans:         cloneMap(s.plans),
		installments:  cloneMap(s.installments),
		outbox:        append([]domain.OutboxEvent(nil), s.outbox...),
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is an in-memory, transactional stand-in for the Postgres
// repositories. Begin snapshots the committed state; Commit publishes the
// snapshot and Rollback discards it.
type Store struct {
	mu        sync.Mutex
	committed *state
	failures  map[string]error

	Commits   int
	Rollbacks int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		committed: newState(),
		failures:  make(map[string]error),
	}
}

// FailOn makes the named operation (for example "Plans.UpdateRemainingPrice"
// or "Commit") return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[op]
}

// Tx is a Store transaction.
type Tx struct {
	store *Store
	state *state
	done  bool
}

// Begin starts a transaction on a snapshot of the committed state.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := s.fail("Begin"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return &Tx{store: s, state: s.committed.clone()}, nil
}

// Commit publishes the transaction's writes.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	if err := t.store.fail("Commit"); err != nil {
		return err
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.committed = t.state
	t.store.Commits++
	t.done = true
	return nil
}

// Rollback discards the transaction's writes. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.Rollbacks++
	t.done = true
	return nil
}

// view runs fn against the tx snapshot, or the committed state when tx is nil.
func (s *Store) view(tx usecase.Transaction, fn func(st *state) error) error {
	if tx != nil {
		mt, ok := tx.(*Tx)
		if !ok {
			return fmt.Errorf("unexpected transaction type %T", tx)
		}
		if mt.done {
			return ErrTxClosed
		}
		return fn(mt.state)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.committed)
}

// Seed helpers write straight into the committed state.

// SeedCustomer stores c and returns its id.
func (s *Store) SeedCustomer(c domain.Customer) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.committed.id()
	s.committed.customers[c.ID] = c
	return c.ID
}

// SeedProduct stores p and returns its id.
func (s *Store) SeedProduct(p domain.Product) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.committed.id()
	s.committed.products[p.ID] = p
	return p.ID
}

// SeedSale stores a sale and returns its id.
func (s *Store) SeedSale(sale domain.Sale) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale.ID = s.committed.id()
	s.committed.sales[sale.ID] = sale
	return sale.ID
}

// SeedPurchase stores a purchase and returns its id.
func (s *Store) SeedPurchase(p domain.Purchase) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.committed.id()
	s.committed.purchases[p.ID] = p
	return p.ID
}

// SeedPlan stores a plan and returns its id.
func (s *Store) SeedPlan(p domain.InstallmentPlan) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.committed.id()
	p.Installments = nil
	s.committed.plans[p.ID] = p
	return p.ID
}

// SeedInstallment stores an installment and returns its id.
func (s *Store) SeedInstallment(i domain.Installment) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	i.ID = s.committed.id()
	s.committed.installments[i.ID] = i
	return i.ID
}

// Committed-state readers for assertions.

// Sale returns the committed sale with id.
func (s *Store) Sale(id int64) (domain.Sale, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.committed.sales[id]
	return v, ok
}

// Purchase returns the committed purchase with id.
func (s *Store) Purchase(id int64) (domain.Purchase, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.committed.purchases[id]
	return v, ok
}

// Plan returns the committed plan with id.
func (s *Store) Plan(id int64) (domain.InstallmentPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.committed.plans[id]
	return v, ok
}

// Installment returns the committed installment with id.
func (s *Store) Installment(id int64) (domain.Installment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.committed.installments[id]
	return v, ok
}

// Product returns the committed product with id.
func (s *Store) Product(id int64) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.committed.products[id]
	return v, ok
}

// InstallmentCount returns the number of committed installments of a plan.
func (s *Store) InstallmentCount(planID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, i := range s.committed.installments {
		if i.PlanID == planID {
			n++
		}
	}
	return n
}

// Events returns the committed outbox events in insertion order.
func (s *Store) Events() []domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutboxEvent(nil), s.committed.outbox...)
}

// EventTypes returns the committed outbox event types in insertion order.
func (s *Store) EventTypes() []string {
	events := s.Events()
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventType)
	}
	return out
}

// Repository views.

// TxManager returns the store as a usecase.TransactionManager.
func (s *Store) TxManager() usecase.TransactionManager { return s }

// Parents returns a usecase.ParentRepository.
func (s *Store) Parents() *ParentRepo { return &ParentRepo{s: s} }

// FullPayments returns a usecase.FullPaymentRepository.
func (s *Store) FullPayments() *FullPaymentRepo { return &FullPaymentRepo{s: s} }

// Plans returns a usecase.InstallmentPlanRepository.
func (s *Store) Plans() *PlanRepo { return &PlanRepo{s: s} }

// Installments returns a usecase.InstallmentRepository.
func (s *Store) Installments() *InstallmentRepo { return &InstallmentRepo{s: s} }

// Sales returns a usecase.SaleRepository.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{s: s} }

// Purchases returns a usecase.PurchaseRepository.
func (s *Store) Purchases() *PurchaseRepo { return &PurchaseRepo{s: s} }

// Customers returns a usecase.CustomerRepository.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{s: s} }

// Products returns a usecase.ProductRepository.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Outbox returns a usecase.OutboxRepository.
func (s *Store) Outbox() *OutboxRepo { return &OutboxRepo{s: s} }

// ParentRepo implements usecase.ParentRepository.
type ParentRepo struct{ s *Store }

func (r *ParentRepo) GetStateForUpdate(ctx context.Context, tx usecase.Transaction, parent domain.Parent) (*usecase.ParentState, error) {
	if err := r.s.fail("Parents.GetStateForUpdate"); err != nil {
		return nil, err
	}

	var out *usecase.ParentState
	err := r.s.view(tx, func(st *state) error {
		ps := &usecase.ParentState{Parent: parent}
		switch parent.Kind {
		case domain.ParentSale:
			sale, ok := st.sales[parent.ID]
			if !ok {
				return domain.ErrSaleNotFound
			}
			ps.Option, ps.Status = sale.PaymentOption, sale.PaymentStatus
		case domain.ParentPurchase:
			p, ok := st.purchases[parent.ID]
			if !ok {
				return domain.ErrPurchaseNotFound
			}
			ps.Option, ps.Status = p.PaymentOption, p.PaymentStatus
		default:
			return fmt.Errorf("unknown parent kind %q", parent.Kind)
		}

		_, ps.HasPaymentRow = st.fullPayments[parent]
		for _, plan := range st.plans {
			if plan.Parent == parent {
				ps.HasPaymentRow = true
			}
		}
		out = ps
		return nil
	})
	return out, err
}

func (r *ParentRepo) UpdatePaymentStatus(ctx context.Context, tx usecase.Transaction, parent domain.Parent, status domain.PaymentStatus, updatedAt time.Time) error {
	if err := r.s.fail("Parents.UpdatePaymentStatus"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		switch parent.Kind {
		case domain.ParentSale:
			sale, ok := st.sales[parent.ID]
			if !ok {
				return domain.ErrSaleNotFound
			}
			sale.PaymentStatus, sale.UpdatedAt = status, updatedAt
			st.sales[parent.ID] = sale
		case domain.ParentPurchase:
			p, ok := st.purchases[parent.ID]
			if !ok {
				return domain.ErrPurchaseNotFound
			}
			p.PaymentStatus, p.UpdatedAt = status, updatedAt
			st.purchases[parent.ID] = p
		default:
			return fmt.Errorf("unknown parent kind %q", parent.Kind)
		}
		return nil
	})
}

// FullPaymentRepo implements usecase.FullPaymentRepository.
type FullPaymentRepo struct{ s *Store }

func (r *FullPaymentRepo) Create(ctx context.Context, tx usecase.Transaction, payment *domain.FullPayment) error {
	if err := r.s.fail("FullPayments.Create"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		if _, exists := st.fullPayments[payment.Parent]; exists {
			return fmt.Errorf("duplicate full payment for %s", payment.Parent)
		}
		payment.ID = st.id()
		st.fullPayments[payment.Parent] = *payment
		return nil
	})
}

func (r *FullPaymentRepo) GetByParent(ctx context.Context, parent domain.Parent) (*domain.FullPayment, error) {
	var out *domain.FullPayment
	err := r.s.view(nil, func(st *state) error {
		fp, ok := st.fullPayments[parent]
		if !ok {
			return domain.ErrNotFound
		}
		out = &fp
		return nil
	})
	return out, err
}

// PlanRepo implements usecase.InstallmentPlanRepository.
type PlanRepo struct{ s *Store }

func (r *PlanRepo) Create(ctx context.Context, tx usecase.Transaction, plan *domain.InstallmentPlan) error {
	if err := r.s.fail("Plans.Create"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		plan.ID = st.id()
		stored := *plan
		stored.Installments = nil
		st.plans[plan.ID] = stored
		return nil
	})
}

func (r *PlanRepo) get(tx usecase.Transaction, id int64) (*domain.InstallmentPlan, error) {
	var out *domain.InstallmentPlan
	err := r.s.view(tx, func(st *state) error {
		plan, ok := st.plans[id]
		if !ok {
			return domain.ErrInstallmentPlanNotFound
		}
		out = &plan
		return nil
	})
	return out, err
}

func (r *PlanRepo) GetByID(ctx context.Context, id int64) (*domain.InstallmentPlan, error) {
	return r.get(nil, id)
}

func (r *PlanRepo) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.InstallmentPlan, error) {
	if err := r.s.fail("Plans.GetByIDForUpdate"); err != nil {
		return nil, err
	}
	return r.get(tx, id)
}

func (r *PlanRepo) GetByParent(ctx context.Context, parent domain.Parent) (*domain.InstallmentPlan, error) {
	var out *domain.InstallmentPlan
	err := r.s.view(nil, func(st *state) error {
		for _, plan := range st.plans {
			if plan.Parent == parent {
				p := plan
				out = &p
				return nil
			}
		}
		return domain.ErrInstallmentPlanNotFound
	})
	return out, err
}

func (r *PlanRepo) UpdateRemainingPrice(ctx context.Context, tx usecase.Transaction, id int64, remaining decimal.Decimal, updatedAt time.Time) error {
	if err := r.s.fail("Plans.UpdateRemainingPrice"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		plan, ok := st.plans[id]
		if !ok {
			return domain.ErrInstallmentPlanNotFound
		}
		if remaining.IsNegative() {
			return fmt.Errorf("remaining price check constraint violated: %s", remaining)
		}
		plan.RemainingPrice, plan.UpdatedAt = remaining, updatedAt
		st.plans[id] = plan
		return nil
	})
}

// InstallmentRepo implements usecase.InstallmentRepository.
type InstallmentRepo struct{ s *Store }

func (r *InstallmentRepo) Create(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	if err := r.s.fail("Installments.Create"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		if _, ok := st.plans[installment.PlanID]; !ok {
			return fmt.Errorf("installment plan %d: foreign key violation", installment.PlanID)
		}
		installment.ID = st.id()
		st.installments[installment.ID] = *installment
		return nil
	})
}

func (r *InstallmentRepo) GetByIDTx(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Installment, error) {
	var out *domain.Installment
	err := r.s.view(tx, func(st *state) error {
		inst, ok := st.installments[id]
		if !ok {
			return domain.ErrInstallmentNotFound
		}
		out = &inst
		return nil
	})
	return out, err
}

func (r *InstallmentRepo) UpdatePayment(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	if err := r.s.fail("Installments.UpdatePayment"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		if _, ok := st.installments[installment.ID]; !ok {
			return domain.ErrInstallmentNotFound
		}
		st.installments[installment.ID] = *installment
		return nil
	})
}

func (r *InstallmentRepo) ListByPlan(ctx context.Context, planID int64) ([]*domain.Installment, error) {
	var out []*domain.Installment
	err := r.s.view(nil, func(st *state) error {
		for _, inst := range st.installments {
			if inst.PlanID == planID {
				i := inst
				out = append(out, &i)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out, err
}

// SaleRepo implements usecase.SaleRepository.
type SaleRepo struct{ s *Store }

func (r *SaleRepo) Create(ctx context.Context, tx usecase.Transaction, sale *domain.Sale) error {
	if err := r.s.fail("Sales.Create"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		sale.ID = st.id()
		stored := *sale
		stored.Items, stored.Customer, stored.BookRecord = nil, nil, nil
		st.sales[sale.ID] = stored
		return nil
	})
}

func (r *SaleRepo) CreateItem(ctx context.Context, tx usecase.Transaction, saleID int64, item *domain.LineItem) error {
	if err := r.s.fail("Sales.CreateItem"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		item.ID = st.id()
		st.saleItems[saleID] = append(st.saleItems[saleID], *item)
		return nil
	})
}

func (r *SaleRepo) CreateBookRecord(ctx context.Context, tx usecase.Transaction, record *domain.BookRecord) error {
	if err := r.s.fail("Sales.CreateBookRecord"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		record.ID = st.id()
		st.bookRecords[record.SaleID] = *record
		return nil
	})
}

func (st *state) loadSale(sale domain.Sale) *domain.Sale {
	out := sale
	if c, ok := st.customers[sale.CustomerID]; ok {
		out.Customer = &c
	}
	for _, item := range st.saleItems[sale.ID] {
		it := item
		if p, ok := st.products[it.ProductID]; ok {
			it.Product = &p
		}
		out.Items = append(out.Items, &it)
	}
	if br, ok := st.bookRecords[sale.ID]; ok {
		out.BookRecord = &br
	}
	return &out
}

func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*domain.Sale, error) {
	var out *domain.Sale
	err := r.s.view(nil, func(st *state) error {
		sale, ok := st.sales[id]
		if !ok {
			return domain.ErrSaleNotFound
		}
		out = st.loadSale(sale)
		return nil
	})
	return out, err
}

func (r *SaleRepo) List(ctx context.Context, limit, offset int) ([]*domain.Sale, error) {
	var out []*domain.Sale
	err := r.s.view(nil, func(st *state) error {
		for _, sale := range st.sales {
			out = append(out, st.loadSale(sale))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), err
}

func (r *SaleRepo) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.s.view(nil, func(st *state) error {
		n = len(st.sales)
		return nil
	})
	return n, err
}

func (r *SaleRepo) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Sale, error) {
	var out []*domain.Sale
	err := r.s.view(nil, func(st *state) error {
		for _, sale := range st.sales {
			if sale.CustomerID == customerID {
				out = append(out, st.loadSale(sale))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

// PurchaseRepo implements usecase.PurchaseRepository.
type PurchaseRepo struct{ s *Store }

func (r *PurchaseRepo) Create(ctx context.Context, tx usecase.Transaction, purchase *domain.Purchase) error {
	if err := r.s.fail("Purchases.Create"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		purchase.ID = st.id()
		stored := *purchase
		stored.Items, stored.Customer = nil, nil
		st.purchases[purchase.ID] = stored
		return nil
	})
}

func (r *PurchaseRepo) CreateItem(ctx context.Context, tx usecase.Transaction, purchaseID int64, item *domain.LineItem) error {
	if err := r.s.fail("Purchases.CreateItem"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		item.ID = st.id()
		st.purchaseItems[purchaseID] = append(st.purchaseItems[purchaseID], *item)
		return nil
	})
}

func (st *state) loadPurchase(p domain.Purchase) *domain.Purchase {
	out := p
	if c, ok := st.customers[p.CustomerID]; ok {
		out.Customer = &c
	}
	for _, item := range st.purchaseItems[p.ID] {
		it := item
		out.Items = append(out.Items, &it)
	}
	return &out
}

func (r *PurchaseRepo) GetByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	var out *domain.Purchase
	err := r.s.view(nil, func(st *state) error {
		p, ok := st.purchases[id]
		if !ok {
			return domain.ErrPurchaseNotFound
		}
		out = st.loadPurchase(p)
		return nil
	})
	return out, err
}

func (r *PurchaseRepo) List(ctx context.Context, limit, offset int) ([]*domain.Purchase, error) {
	var out []*domain.Purchase
	err := r.s.view(nil, func(st *state) error {
		for _, p := range st.purchases {
			out = append(out, st.loadPurchase(p))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), err
}

func (r *PurchaseRepo) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.s.view(nil, func(st *state) error {
		n = len(st.purchases)
		return nil
	})
	return n, err
}

// CustomerRepo implements usecase.CustomerRepository.
type CustomerRepo struct{ s *Store }

func (r *CustomerRepo) Create(ctx context.Context, tx usecase.Transaction, customer *domain.Customer) error {
	if err := r.s.fail("Customers.Create"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		customer.ID = st.id()
		stored := *customer
		stored.Address, stored.Sales = nil, nil
		st.customers[customer.ID] = stored
		return nil
	})
}

func (r *CustomerRepo) Update(ctx context.Context, tx usecase.Transaction, customer *domain.Customer) error {
	return r.s.view(tx, func(st *state) error {
		if _, ok := st.customers[customer.ID]; !ok {
			return domain.ErrCustomerNotFound
		}
		stored := *customer
		stored.Address, stored.Sales = nil, nil
		st.customers[customer.ID] = stored
		return nil
	})
}

func (r *CustomerRepo) UpsertAddress(ctx context.Context, tx usecase.Transaction, address *domain.Address) error {
	if err := r.s.fail("Customers.UpsertAddress"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		if existing, ok := st.addresses[address.CustomerID]; ok {
			address.ID = existing.ID
		} else {
			address.ID = st.id()
		}
		st.addresses[address.CustomerID] = *address
		return nil
	})
}

func (st *state) loadCustomer(c domain.Customer) *domain.Customer {
	out := c
	if a, ok := st.addresses[c.ID]; ok {
		out.Address = &a
	}
	return &out
}

func (r *CustomerRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var out *domain.Customer
	err := r.s.view(nil, func(st *state) error {
		c, ok := st.customers[id]
		if !ok {
			return domain.ErrCustomerNotFound
		}
		out = st.loadCustomer(c)
		return nil
	})
	return out, err
}

func (r *CustomerRepo) List(ctx context.Context, limit, offset int) ([]*domain.Customer, error) {
	var out []*domain.Customer
	err := r.s.view(nil, func(st *state) error {
		for _, c := range st.customers {
			out = append(out, st.loadCustomer(c))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), err
}

func (r *CustomerRepo) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.s.view(nil, func(st *state) error {
		n = len(st.customers)
		return nil
	})
	return n, err
}

func (r *CustomerRepo) Search(ctx context.Context, field usecase.CustomerSearchField, query string, limit int) ([]*domain.Customer, error) {
	var out []*domain.Customer
	q := strings.ToLower(query)
	err := r.s.view(nil, func(st *state) error {
		for _, c := range st.customers {
			var v string
			switch field {
			case usecase.SearchByFirstName:
				v = c.FirstName
			case usecase.SearchByPhone:
				v = c.PhoneNumber
			case usecase.SearchByCNIC:
				v = c.CNIC
			}
			if strings.Contains(strings.ToLower(v), q) {
				out = append(out, st.loadCustomer(c))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, limit, 0), err
}

// ProductRepo implements usecase.ProductRepository.
type ProductRepo struct{ s *Store }

func (r *ProductRepo) Create(ctx context.Context, product *domain.Product) error {
	return r.s.view(nil, func(st *state) error {
		product.ID = st.id()
		st.products[product.ID] = *product
		return nil
	})
}

func (r *ProductRepo) Update(ctx context.Context, product *domain.Product) error {
	return r.s.view(nil, func(st *state) error {
		if _, ok := st.products[product.ID]; !ok {
			return domain.ErrProductNotFound
		}
		st.products[product.ID] = *product
		return nil
	})
}

func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var out *domain.Product
	err := r.s.view(nil, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []int64) ([]*domain.Product, error) {
	var out []*domain.Product
	err := r.s.view(tx, func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) AdjustStock(ctx context.Context, tx usecase.Transaction, id int64, delta int) error {
	if err := r.s.fail("Products.AdjustStock"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		if p.Stock+delta < 0 {
			return fmt.Errorf("product %d stock check constraint violated", id)
		}
		p.Stock += delta
		st.products[id] = p
		return nil
	})
}

func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	var out []*domain.Product
	err := r.s.view(nil, func(st *state) error {
		for _, p := range st.products {
			product := p
			out = append(out, &product)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), err
}

func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.s.view(nil, func(st *state) error {
		n = len(st.products)
		return nil
	})
	return n, err
}

func (r *ProductRepo) Search(ctx context.Context, companyID, categoryID int64, model string) ([]*domain.Product, error) {
	var out []*domain.Product
	q := strings.ToLower(model)
	err := r.s.view(nil, func(st *state) error {
		for _, p := range st.products {
			if p.CompanyID == companyID && p.CategoryID == categoryID && strings.Contains(strings.ToLower(p.Model), q) {
				product := p
				out = append(out, &product)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *ProductRepo) ListOutOfStock(ctx context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	err := r.s.view(nil, func(st *state) error {
		for _, p := range st.products {
			if p.Stock == 0 {
				product := p
				out = append(out, &product)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// OutboxRepo implements usecase.OutboxRepository.
type OutboxRepo struct{ s *Store }

func (r *OutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if err := r.s.fail("Outbox.Create"); err != nil {
		return err
	}

	return r.s.view(tx, func(st *state) error {
		st.outbox = append(st.outbox, *event)
		return nil
	})
}

func (r *OutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var out []*domain.OutboxEvent
	err := r.s.view(nil, func(st *state) error {
		for _, e := range st.outbox {
			if !e.Published {
				event := e
				out = append(out, &event)
			}
		}
		return nil
	})
	return paginate(out, limit, 0), err
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.s.view(nil, func(st *state) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				at := publishedAt
				st.outbox[i].Published = true
				st.outbox[i].PublishedAt = &at
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *OutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	return r.s.view(nil, func(st *state) error {
		kept := st.outbox[:0]
		for _, e := range st.outbox {
			if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
				continue
			}
			kept = append(kept, e)
		}
		st.outbox = kept
		return nil
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
