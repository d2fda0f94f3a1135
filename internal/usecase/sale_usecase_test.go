package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/infrastructure/metrics"
	"github.com/iho/emart/internal/usecase"
	"github.com/iho/emart/internal/usecase/mocks"
)

type tradeFixture struct {
	store      *mocks.Store
	metrics    *metrics.Metrics
	sales      *usecase.SaleUseCase
	purchases  *usecase.PurchaseUseCase
	customerID int64
	fridgeID   int64
	tvID       int64
}

func newTradeFixture(t *testing.T) *tradeFixture {
	t.Helper()

	store := mocks.NewStore()
	cache := mocks.NewMemoryCache()
	idGen := &mocks.SequentialIDGenerator{}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	ledger := usecase.NewLedgerUseCase(
		store.TxManager(), store.Parents(), store.FullPayments(), store.Plans(),
		store.Installments(), store.Outbox(), idGen, cache, m,
	)

	f := &tradeFixture{
		store:   store,
		metrics: m,
		sales: usecase.NewSaleUseCase(
			store.TxManager(), store.Sales(), store.Customers(), store.Products(),
			store.Outbox(), ledger, idGen, cache, m,
		),
		purchases: usecase.NewPurchaseUseCase(
			store.TxManager(), store.Purchases(), store.Customers(),
			store.Outbox(), ledger, idGen, cache, m,
		),
	}

	f.customerID = store.SeedCustomer(domain.Customer{FirstName: "Ahmed", PhoneNumber: "0300-1234567", CNIC: "35202-12345678"})
	f.fridgeID = store.SeedProduct(domain.Product{Model: "DW-9193", Price: amount(85000), Stock: 3})
	f.tvID = store.SeedProduct(domain.Product{Model: "LE-43", Price: amount(60000), Stock: 1})

	return f
}

func TestSale_CreateWithFullPayment(t *testing.T) {
	f := newTradeFixture(t)

	sale, err := f.sales.CreateSale(context.Background(), usecase.CreateSaleInput{
		CustomerID:  f.customerID,
		PaymentInfo: domain.FullPaymentInfo{PurchaseAmount: amount(145000), Discount: amount(5000)},
		Items: []usecase.LineItemInput{
			{ProductID: f.fridgeID, Quantity: 1, Price: amount(85000)},
			{ProductID: f.tvID, Quantity: 1, Price: amount(60000)},
		},
		BookRecord: &usecase.BookRecordInput{BookName: "Register 2024", PageNumber: 12},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentOptionFull, sale.PaymentOption)
	assert.Equal(t, domain.PaymentStatusCompleted, sale.PaymentStatus)
	require.NotNil(t, sale.FullPayment)
	assert.True(t, sale.Total().Equal(amount(145000)))

	stored, ok := f.store.Sale(sale.ID)
	require.True(t, ok)
	assert.Equal(t, domain.PaymentStatusCompleted, stored.PaymentStatus)

	fridge, _ := f.store.Product(f.fridgeID)
	tv, _ := f.store.Product(f.tvID)
	assert.Equal(t, 2, fridge.Stock)
	assert.Equal(t, 0, tv.Stock)

	got, err := f.sales.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	require.NotNil(t, got.BookRecord)
	assert.Equal(t, 12, got.BookRecord.PageNumber)
	require.NotNil(t, got.FullPayment)
	assert.True(t, got.FullPayment.TotalAfterDiscount().Equal(amount(140000)))
	require.NotNil(t, got.Customer)
	assert.Equal(t, "Ahmed", got.Customer.FirstName)

	assert.Equal(t, []string{domain.EventTypeSaleCreated, domain.EventTypeSaleCompleted}, f.store.EventTypes())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SalesCreated.WithLabelValues("FULL_PAYMENT")))
}

func TestSale_CreateWithInstallmentPlan(t *testing.T) {
	f := newTradeFixture(t)

	sale, err := f.sales.CreateSale(context.Background(), usecase.CreateSaleInput{
		CustomerID: f.customerID,
		PaymentInfo: domain.InstallmentPlanInfo{
			TotalPrice:        amount(100000),
			DownPayment:       amount(20000),
			InstallmentPeriod: 8,
			DueDate:           "2024-03-01",
			ExpectedPayment:   amount(10000),
		},
		Items: []usecase.LineItemInput{{ProductID: f.fridgeID, Quantity: 1, Price: amount(100000)}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPending, sale.PaymentStatus)
	require.NotNil(t, sale.InstallmentPlan)
	assert.True(t, sale.InstallmentPlan.RemainingPrice.Equal(amount(80000)))

	got, err := f.sales.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	require.NotNil(t, got.InstallmentPlan)
	assert.Len(t, got.InstallmentPlan.Installments, 1)
}

func TestSale_CreateWithoutPaymentInfo(t *testing.T) {
	f := newTradeFixture(t)

	sale, err := f.sales.CreateSale(context.Background(), usecase.CreateSaleInput{
		CustomerID:    f.customerID,
		PaymentOption: domain.PaymentOptionInstallment,
		Items:         []usecase.LineItemInput{{ProductID: f.fridgeID, Quantity: 1, Price: amount(85000)}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, sale.PaymentStatus)
	assert.Nil(t, sale.InstallmentPlan)

	got, err := f.sales.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Nil(t, got.InstallmentPlan, "no plan attached yet")
}

func TestSale_NotEnoughStock(t *testing.T) {
	f := newTradeFixture(t)

	_, err := f.sales.CreateSale(context.Background(), usecase.CreateSaleInput{
		CustomerID:  f.customerID,
		PaymentInfo: domain.FullPaymentInfo{PurchaseAmount: amount(180000)},
		Items: []usecase.LineItemInput{
			{ProductID: f.fridgeID, Quantity: 1, Price: amount(85000)},
			{ProductID: f.tvID, Quantity: 1, Price: amount(60000)},
			{ProductID: f.tvID, Quantity: 1, Price: amount(60000)},
		},
	})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	for _, msg := range ve.Fields {
		assert.Equal(t, domain.MsgNotEnoughStock, msg)
	}

	fridge, _ := f.store.Product(f.fridgeID)
	assert.Equal(t, 3, fridge.Stock, "stock must not change")
	page, err := f.sales.ListSales(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.StockRejections))
}

func TestSale_RollsBackOnFailure(t *testing.T) {
	f := newTradeFixture(t)
	boom := errors.New("disk full")
	f.store.FailOn("Sales.CreateBookRecord", boom)

	_, err := f.sales.CreateSale(context.Background(), usecase.CreateSaleInput{
		CustomerID:  f.customerID,
		PaymentInfo: domain.FullPaymentInfo{PurchaseAmount: amount(85000)},
		Items:       []usecase.LineItemInput{{ProductID: f.fridgeID, Quantity: 2, Price: amount(170000)}},
		BookRecord:  &usecase.BookRecordInput{BookName: "Register", PageNumber: 1},
	})
	require.ErrorIs(t, err, boom)

	fridge, _ := f.store.Product(f.fridgeID)
	assert.Equal(t, 3, fridge.Stock)
	assert.Empty(t, f.store.Events())
}

func TestSale_Validation(t *testing.T) {
	f := newTradeFixture(t)

	tests := []struct {
		name  string
		input usecase.CreateSaleInput
		field string
	}{
		{
			name:  "no customer",
			input: usecase.CreateSaleInput{PaymentOption: domain.PaymentOptionFull, Items: []usecase.LineItemInput{{ProductID: 1, Quantity: 1}}},
			field: "customerId",
		},
		{
			name:  "no items",
			input: usecase.CreateSaleInput{CustomerID: f.customerID, PaymentOption: domain.PaymentOptionFull},
			field: "items",
		},
		{
			name:  "zero quantity",
			input: usecase.CreateSaleInput{CustomerID: f.customerID, PaymentOption: domain.PaymentOptionFull, Items: []usecase.LineItemInput{{ProductID: 1}}},
			field: "items[0].quantity",
		},
		{
			name:  "unknown option",
			input: usecase.CreateSaleInput{CustomerID: f.customerID, PaymentOption: "CASH", Items: []usecase.LineItemInput{{ProductID: 1, Quantity: 1}}},
			field: "paymentOption",
		},
		{
			name: "option conflicts with info",
			input: usecase.CreateSaleInput{
				CustomerID:    f.customerID,
				PaymentOption: domain.PaymentOptionInstallment,
				PaymentInfo:   domain.FullPaymentInfo{PurchaseAmount: amount(1)},
				Items:         []usecase.LineItemInput{{ProductID: 1, Quantity: 1}},
			},
			field: "paymentOption",
		},
		{
			name: "invalid plan info",
			input: usecase.CreateSaleInput{
				CustomerID:  f.customerID,
				PaymentInfo: domain.InstallmentPlanInfo{TotalPrice: amount(10), DueDate: "never"},
				Items:       []usecase.LineItemInput{{ProductID: 1, Quantity: 1}},
			},
			field: "paymentInfo.dueDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sales.CreateSale(context.Background(), tt.input)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestSale_NotFound(t *testing.T) {
	f := newTradeFixture(t)

	_, err := f.sales.CreateSale(context.Background(), usecase.CreateSaleInput{
		CustomerID:    9999,
		PaymentOption: domain.PaymentOptionFull,
		Items:         []usecase.LineItemInput{{ProductID: f.fridgeID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	_, err = f.sales.CreateSale(context.Background(), usecase.CreateSaleInput{
		CustomerID:    f.customerID,
		PaymentOption: domain.PaymentOptionFull,
		Items:         []usecase.LineItemInput{{ProductID: 9999, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.sales.GetSale(context.Background(), 9999)
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}

func TestSale_ListCountsSales(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.sales.CreateSale(ctx, usecase.CreateSaleInput{
			CustomerID:    f.customerID,
			PaymentOption: domain.PaymentOptionFull,
			Items: []usecase.LineItemInput{
				{ProductID: f.fridgeID, Quantity: 1, Price: amount(85000)},
			},
		})
		require.NoError(t, err)
	}

	page, err := f.sales.ListSales(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total, "total counts sales, not line items")
	assert.Len(t, page.Items, 2)
	assert.Greater(t, page.Items[0].ID, page.Items[1].ID)
}

func TestPurchase_Create(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()

	purchase, err := f.purchases.CreatePurchase(ctx, usecase.CreatePurchaseInput{
		CustomerID: f.customerID,
		PaymentInfo: domain.InstallmentPlanInfo{
			TotalPrice:      amount(300000),
			DownPayment:     amount(100000),
			DueDate:         "2024-03-01",
			ExpectedPayment: amount(50000),
		},
		Items: []usecase.LineItemInput{{ProductID: f.tvID, Quantity: 5, Price: amount(300000)}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, purchase.PaymentStatus)

	tv, _ := f.store.Product(f.tvID)
	assert.Equal(t, 1, tv.Stock, "purchases do not touch stock")

	got, err := f.purchases.GetPurchase(ctx, purchase.ID)
	require.NoError(t, err)
	require.NotNil(t, got.InstallmentPlan)
	assert.True(t, got.InstallmentPlan.RemainingPrice.Equal(amount(200000)))

	page, err := f.purchases.ListPurchases(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, domain.DefaultPageSize, page.Size)

	assert.Equal(t, []string{domain.EventTypePurchaseCreated}, f.store.EventTypes())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.PurchasesCreated.WithLabelValues("INSTALLMENT")))
}

func TestPurchase_FullPaymentCompletes(t *testing.T) {
	f := newTradeFixture(t)

	purchase, err := f.purchases.CreatePurchase(context.Background(), usecase.CreatePurchaseInput{
		CustomerID:  f.customerID,
		PaymentInfo: domain.FullPaymentInfo{PurchaseAmount: amount(50000)},
		Items:       []usecase.LineItemInput{{ProductID: f.tvID, Quantity: 1, Price: amount(50000)}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, purchase.PaymentStatus)

	_, err = f.purchases.GetPurchase(context.Background(), 4242)
	assert.ErrorIs(t, err, domain.ErrPurchaseNotFound)
}
