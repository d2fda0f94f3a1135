package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
)

var (
	tradeHeaderColumns = []string{
		"id", "customer_id", "payment_status", "payment_option", "created_at", "updated_at",
		"first_name", "last_name", "phone_number", "cnic",
	}
	tradeItemColumns = []string{
		"sale_id", "id", "product_id", "quantity", "price",
		"model", "unit_price", "stock", "company_id", "category_id",
	}
)

func TestSaleRepository_GetByID(t *testing.T) {
	pool := newMockPool(t)
	now := time.Now()

	pool.ExpectQuery(regexp.QuoteMeta("FROM sales t")).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(tradeHeaderColumns).
			AddRow(int64(5), int64(2), "PENDING", "INSTALLMENT", now, now, "Bilal", "Khan", "0300-1234567", "35202-12345678"))
	pool.ExpectQuery(regexp.QuoteMeta("FROM product_sales i")).
		WithArgs([]int64{5}).
		WillReturnRows(pgxmock.NewRows(tradeItemColumns).
			AddRow(int64(5), int64(1), int64(9), 2, "170000", "DW-9193", "85000", 4, int64(1), int64(2)))
	pool.ExpectQuery(regexp.QuoteMeta("FROM book_records WHERE sale_id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "sale_id", "book_name", "page_number", "description"}).
			AddRow(int64(3), int64(5), "Register 2024", 12, nil))

	sale, err := NewSaleRepository(pool).GetByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sale.Customer == nil || sale.Customer.FullName() != "Bilal Khan" {
		t.Errorf("unexpected customer %+v", sale.Customer)
	}
	if len(sale.Items) != 1 || sale.Items[0].Product.Model != "DW-9193" {
		t.Fatalf("unexpected items %+v", sale.Items)
	}
	if !sale.Total().Equal(decimal.NewFromInt(170000)) {
		t.Errorf("expected total 170000, got %s", sale.Total())
	}
	if sale.BookRecord == nil || sale.BookRecord.PageNumber != 12 {
		t.Errorf("unexpected book record %+v", sale.BookRecord)
	}

	assertExpectations(t, pool)
}

func TestSaleRepository_GetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)

	pool.ExpectQuery(regexp.QuoteMeta("FROM sales t")).
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows(tradeHeaderColumns))

	if _, err := NewSaleRepository(pool).GetByID(context.Background(), 404); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Fatalf("expected sale not found, got %v", err)
	}
}

func TestSaleRepository_CreateWithinTransaction(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	now := time.Now()

	pool.ExpectQuery(regexp.QuoteMeta("INSERT INTO sales")).
		WithArgs(int64(2), "PENDING", "FULL_PAYMENT", now, now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))
	pool.ExpectQuery(regexp.QuoteMeta("INSERT INTO product_sales (sale_id, product_id, quantity, price)")).
		WithArgs(int64(42), int64(9), 1, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(100)))
	pool.ExpectCommit()

	repo := NewSaleRepository(pool)
	sale := &domain.Sale{
		CustomerID:    2,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentOption: domain.PaymentOptionFull,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.Create(context.Background(), tx, sale); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	item := &domain.LineItem{ProductID: 9, Quantity: 1, Price: decimal.NewFromInt(85000)}
	if err := repo.CreateItem(context.Background(), tx, sale.ID, item); err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if sale.ID != 42 || item.ID != 100 {
		t.Fatalf("expected ids 42/100, got %d/%d", sale.ID, item.ID)
	}

	assertExpectations(t, pool)
}

func TestPurchaseRepository_ListEmpty(t *testing.T) {
	pool := newMockPool(t)

	pool.ExpectQuery(regexp.QuoteMeta("FROM purchases t")).
		WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows(tradeHeaderColumns))

	purchases, err := NewPurchaseRepository(pool).List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(purchases) != 0 {
		t.Fatalf("expected no purchases, got %d", len(purchases))
	}

	assertExpectations(t, pool)
}

func TestDashboardRepository_Aggregates(t *testing.T) {
	pool := newMockPool(t)

	pool.ExpectQuery(regexp.QuoteMeta("SUM(price), 0) FROM product_sales")).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow("250000"))
	pool.ExpectQuery(regexp.QuoteMeta("FROM companies c")).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "products", "stock", "sales", "purchases"}).
			AddRow(int64(1), "Dawlance", 3, 9, "170000", "0"))

	repo := NewDashboardRepository(pool)

	revenue, err := repo.TotalRevenue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !revenue.Equal(decimal.NewFromInt(250000)) {
		t.Errorf("expected 250000, got %s", revenue)
	}

	summaries, err := repo.CompanySummaries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 1 || summaries[0].TotalStock != 9 || !summaries[0].SaleTotal.Equal(decimal.NewFromInt(170000)) {
		t.Fatalf("unexpected summaries %+v", summaries)
	}

	assertExpectations(t, pool)
}
