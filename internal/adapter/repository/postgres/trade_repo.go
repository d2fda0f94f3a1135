package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// tradeTables names the tables of one trade kind.
type tradeTables struct {
	table     string
	itemTable string
	fk        string
}

var (
	saleTables     = tradeTables{table: "sales", itemTable: "product_sales", fk: "sale_id"}
	purchaseTables = tradeTables{table: "purchases", itemTable: "product_purchases", fk: "purchase_id"}
)

// tradeRow is the common header of a sale or purchase.
type tradeRow struct {
	ID            int64
	CustomerID    int64
	PaymentStatus domain.PaymentStatus
	PaymentOption domain.PaymentOption
	Customer      *domain.Customer
	Items         []*domain.LineItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t tradeTables) insert(ctx context.Context, db DB, customerID int64, status domain.PaymentStatus, option domain.PaymentOption, createdAt, updatedAt time.Time) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (customer_id, payment_status, payment_option, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, t.table)

	var id int64
	err := db.QueryRow(ctx, query, customerID, string(status), string(option), createdAt, updatedAt).Scan(&id)
	return id, err
}

func (t tradeTables) insertItem(ctx context.Context, db DB, parentID int64, item *domain.LineItem) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, t.itemTable, t.fk)

	return db.QueryRow(ctx, query, parentID, item.ProductID, item.Quantity, decimalToNumeric(item.Price)).Scan(&item.ID)
}

// list loads trade headers with their customers, filtered by where, and then
// their line items.
func (t tradeTables) list(ctx context.Context, db DB, where, tail string, args ...any) ([]*tradeRow, error) {
	query := fmt.Sprintf(`
		SELECT t.id, t.customer_id, t.payment_status, t.payment_option, t.created_at, t.updated_at,
			c.first_name, COALESCE(c.last_name, ''), c.phone_number, c.cnic
		FROM %s t
		JOIN customers c ON c.id = t.customer_id
		%s
		ORDER BY t.created_at DESC, t.id DESC
		%s
	`, t.table, where, tail)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out []*tradeRow
		ids []int64
	)
	for rows.Next() {
		var (
			row            tradeRow
			status, option string
			c              domain.Customer
		)
		if err := rows.Scan(
			&row.ID,
			&row.CustomerID,
			&status,
			&option,
			&row.CreatedAt,
			&row.UpdatedAt,
			&c.FirstName,
			&c.LastName,
			&c.PhoneNumber,
			&c.CNIC,
		); err != nil {
			return nil, err
		}
		c.ID = row.CustomerID
		row.Customer = &c
		row.PaymentStatus = domain.PaymentStatus(status)
		row.PaymentOption = domain.PaymentOption(option)
		out = append(out, &row)
		ids = append(ids, row.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return out, nil
	}

	items, err := t.items(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range out {
		row.Items = items[row.ID]
	}

	return out, nil
}

func (t tradeTables) items(ctx context.Context, db DB, parentIDs []int64) (map[int64][]*domain.LineItem, error) {
	query := fmt.Sprintf(`
		SELECT i.%s, i.id, i.product_id, i.quantity, i.price,
			p.model, p.price, p.stock, p.company_id, p.category_id
		FROM %s i
		JOIN products p ON p.id = i.product_id
		WHERE i.%s = ANY($1)
		ORDER BY i.id
	`, t.fk, t.itemTable, t.fk)

	rows, err := db.Query(ctx, query, parentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]*domain.LineItem, len(parentIDs))
	for rows.Next() {
		var (
			parentID         int64
			item             domain.LineItem
			product          domain.Product
			price, unitPrice pgtype.Numeric
		)
		if err := rows.Scan(
			&parentID,
			&item.ID,
			&item.ProductID,
			&item.Quantity,
			&price,
			&product.Model,
			&unitPrice,
			&product.Stock,
			&product.CompanyID,
			&product.CategoryID,
		); err != nil {
			return nil, err
		}
		item.Price = numericToDecimal(price)
		product.ID = item.ProductID
		product.Price = numericToDecimal(unitPrice)
		item.Product = &product
		out[parentID] = append(out[parentID], &item)
	}

	return out, rows.Err()
}

func (t tradeTables) count(ctx context.Context, db DB) (int, error) {
	var n int
	err := db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, t.table)).Scan(&n)
	return n, err
}

func (row *tradeRow) sale() *domain.Sale {
	return &domain.Sale{
		ID:            row.ID,
		CustomerID:    row.CustomerID,
		Customer:      row.Customer,
		PaymentStatus: row.PaymentStatus,
		PaymentOption: row.PaymentOption,
		Items:         row.Items,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func (row *tradeRow) purchase() *domain.Purchase {
	return &domain.Purchase{
		ID:            row.ID,
		CustomerID:    row.CustomerID,
		Customer:      row.Customer,
		PaymentStatus: row.PaymentStatus,
		PaymentOption: row.PaymentOption,
		Items:         row.Items,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

// SaleRepository implements usecase.SaleRepository.
type SaleRepository struct {
	db DB
}

// NewSaleRepository creates a new SaleRepository.
func NewSaleRepository(db DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// Create inserts a sale header within a transaction.
func (r *SaleRepository) Create(ctx context.Context, tx usecase.Transaction, sale *domain.Sale) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	id, err := saleTables.insert(ctx, db, sale.CustomerID, sale.PaymentStatus, sale.PaymentOption, sale.CreatedAt, sale.UpdatedAt)
	if err != nil {
		return err
	}
	sale.ID = id

	return nil
}

// CreateItem inserts a sold product line.
func (r *SaleRepository) CreateItem(ctx context.Context, tx usecase.Transaction, saleID int64, item *domain.LineItem) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	return saleTables.insertItem(ctx, db, saleID, item)
}

// CreateBookRecord inserts the paper-ledger reference of a sale.
func (r *SaleRepository) CreateBookRecord(ctx context.Context, tx usecase.Transaction, record *domain.BookRecord) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO book_records (sale_id, book_name, page_number, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	return db.QueryRow(ctx, query, record.SaleID, record.BookName, record.PageNumber, textOrNull(record.Description)).Scan(&record.ID)
}

// GetByID returns a sale with customer, items and book record.
func (r *SaleRepository) GetByID(ctx context.Context, id int64) (*domain.Sale, error) {
	rows, err := saleTables.list(ctx, r.db, "WHERE t.id = $1", "", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrSaleNotFound
	}

	sale := rows[0].sale()

	var (
		record      domain.BookRecord
		description pgtype.Text
	)
	err = r.db.QueryRow(ctx,
		`SELECT id, sale_id, book_name, page_number, description FROM book_records WHERE sale_id = $1`,
		id,
	).Scan(&record.ID, &record.SaleID, &record.BookName, &record.PageNumber, &description)
	switch {
	case err == nil:
		record.Description = description.String
		sale.BookRecord = &record
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	return sale, nil
}

// List returns a page of sales, newest first.
func (r *SaleRepository) List(ctx context.Context, limit, offset int) ([]*domain.Sale, error) {
	rows, err := saleTables.list(ctx, r.db, "", "LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}
	return toSales(rows), nil
}

// Count returns the number of sales.
func (r *SaleRepository) Count(ctx context.Context) (int, error) {
	return saleTables.count(ctx, r.db)
}

// ListByCustomer returns all sales of a customer, newest first.
func (r *SaleRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Sale, error) {
	rows, err := saleTables.list(ctx, r.db, "WHERE t.customer_id = $1", "", customerID)
	if err != nil {
		return nil, err
	}
	return toSales(rows), nil
}

func toSales(rows []*tradeRow) []*domain.Sale {
	sales := make([]*domain.Sale, 0, len(rows))
	for _, row := range rows {
		sales = append(sales, row.sale())
	}
	return sales
}

// PurchaseRepository implements usecase.PurchaseRepository.
type PurchaseRepository struct {
	db DB
}

// NewPurchaseRepository creates a new PurchaseRepository.
func NewPurchaseRepository(db DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// Create inserts a purchase header within a transaction.
func (r *PurchaseRepository) Create(ctx context.Context, tx usecase.Transaction, purchase *domain.Purchase) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	id, err := purchaseTables.insert(ctx, db, purchase.CustomerID, purchase.PaymentStatus, purchase.PaymentOption, purchase.CreatedAt, purchase.UpdatedAt)
	if err != nil {
		return err
	}
	purchase.ID = id

	return nil
}

// CreateItem inserts a bought product line.
func (r *PurchaseRepository) CreateItem(ctx context.Context, tx usecase.Transaction, purchaseID int64, item *domain.LineItem) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	return purchaseTables.insertItem(ctx, db, purchaseID, item)
}

// GetByID returns a purchase with customer and items.
func (r *PurchaseRepository) GetByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	rows, err := purchaseTables.list(ctx, r.db, "WHERE t.id = $1", "", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrPurchaseNotFound
	}

	return rows[0].purchase(), nil
}

// List returns a page of purchases, newest first.
func (r *PurchaseRepository) List(ctx context.Context, limit, offset int) ([]*domain.Purchase, error) {
	rows, err := purchaseTables.list(ctx, r.db, "", "LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}

	purchases := make([]*domain.Purchase, 0, len(rows))
	for _, row := range rows {
		purchases = append(purchases, row.purchase())
	}
	return purchases, nil
}

// Count returns the number of purchases.
func (r *PurchaseRepository) Count(ctx context.Context) (int, error) {
	return purchaseTables.count(ctx, r.db)
}
