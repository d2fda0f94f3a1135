package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// namedRow is a row of companies or categories.
type namedRow struct {
	ID        int64
	Name      string
	CreatedAt pgtype.Timestamptz
}

func createNamed(ctx context.Context, db DB, table, name string, row *namedRow) error {
	query := fmt.Sprintf(`INSERT INTO %s (name, created_at) VALUES ($1, $2) RETURNING id`, table)
	return db.QueryRow(ctx, query, name, row.CreatedAt).Scan(&row.ID)
}

func getNamed(ctx context.Context, db DB, table, name string) (*namedRow, error) {
	var row namedRow
	query := fmt.Sprintf(`SELECT id, name, created_at FROM %s WHERE name = $1`, table)
	if err := db.QueryRow(ctx, query, name).Scan(&row.ID, &row.Name, &row.CreatedAt); err != nil {
		return nil, err
	}
	return &row, nil
}

func listNamed(ctx context.Context, db DB, table string) ([]*namedRow, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`SELECT id, name, created_at FROM %s ORDER BY name`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*namedRow
	for rows.Next() {
		var row namedRow
		if err := rows.Scan(&row.ID, &row.Name, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}

	return out, rows.Err()
}

// CompanyRepository implements usecase.CompanyRepository.
type CompanyRepository struct {
	db DB
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(db DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create inserts a company.
func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	row := namedRow{CreatedAt: timeToPgTimestamptz(company.CreatedAt)}
	if err := createNamed(ctx, r.db, "companies", company.Name, &row); err != nil {
		return err
	}
	company.ID = row.ID
	return nil
}

// GetByName returns the company with the exact name.
func (r *CompanyRepository) GetByName(ctx context.Context, name string) (*domain.Company, error) {
	row, err := getNamed(ctx, r.db, "companies", name)
	if err != nil {
		return nil, notFound(err, domain.ErrCompanyNotFound)
	}
	return &domain.Company{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.Time}, nil
}

// List returns all companies by name.
func (r *CompanyRepository) List(ctx context.Context) ([]*domain.Company, error) {
	rows, err := listNamed(ctx, r.db, "companies")
	if err != nil {
		return nil, err
	}

	companies := make([]*domain.Company, 0, len(rows))
	for _, row := range rows {
		companies = append(companies, &domain.Company{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.Time})
	}
	return companies, nil
}

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	db DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category.
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	row := namedRow{CreatedAt: timeToPgTimestamptz(category.CreatedAt)}
	if err := createNamed(ctx, r.db, "categories", category.Name, &row); err != nil {
		return err
	}
	category.ID = row.ID
	return nil
}

// GetByName returns the category with the exact name.
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	row, err := getNamed(ctx, r.db, "categories", name)
	if err != nil {
		return nil, notFound(err, domain.ErrCategoryNotFound)
	}
	return &domain.Category{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.Time}, nil
}

// List returns all categories by name.
func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := listNamed(ctx, r.db, "categories")
	if err != nil {
		return nil, err
	}

	categories := make([]*domain.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, &domain.Category{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.Time})
	}
	return categories, nil
}

// ProductRepository implements usecase.ProductRepository.
type ProductRepository struct {
	db DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productSelect = `
	SELECT p.id, p.company_id, co.name, p.category_id, ca.name, p.model, p.price, p.stock,
		COALESCE(p.description, ''), p.created_at, p.updated_at
	FROM products p
	JOIN companies co ON co.id = p.company_id
	JOIN categories ca ON ca.id = p.category_id
`

// Create inserts a product.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (company_id, category_id, model, price, stock, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return r.db.QueryRow(ctx, query,
		product.CompanyID,
		product.CategoryID,
		product.Model,
		decimalToNumeric(product.Price),
		product.Stock,
		textOrNull(product.Description),
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID)
}

// Update replaces a product's fields.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET company_id = $2, category_id = $3, model = $4, price = $5, stock = $6, description = $7, updated_at = $8
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		product.ID,
		product.CompanyID,
		product.CategoryID,
		product.Model,
		decimalToNumeric(product.Price),
		product.Stock,
		textOrNull(product.Description),
		product.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// GetByID returns a product with company and category.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrProductNotFound)
	}
	return product, nil
}

// GetByIDsForUpdate locks the given products in id order. Missing ids are
// simply absent from the result.
func (r *ProductRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []int64) ([]*domain.Product, error) {
	db, err := txDB(tx)
	if err != nil {
		return nil, err
	}

	return queryProducts(ctx, db, productSelect+` WHERE p.id = ANY($1) ORDER BY p.id FOR UPDATE OF p`, ids)
}

// AdjustStock adds delta to a product's stock. The stock CHECK constraint
// rejects a result below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, tx usecase.Transaction, id int64, delta int) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	tag, err := db.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// List returns a page of products, newest first.
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	return queryProducts(ctx, r.db, productSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT $1 OFFSET $2`, limit, offset)
}

// Count returns the number of products.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

// Search returns products of a company and category whose model contains
// model, case-insensitively.
func (r *ProductRepository) Search(ctx context.Context, companyID, categoryID int64, model string) ([]*domain.Product, error) {
	query := productSelect + `
		WHERE p.company_id = $1 AND p.category_id = $2 AND p.model ILIKE '%' || $3 || '%'
		ORDER BY p.model, p.id
	`
	return queryProducts(ctx, r.db, query, companyID, categoryID, model)
}

// ListOutOfStock returns products with zero stock.
func (r *ProductRepository) ListOutOfStock(ctx context.Context) ([]*domain.Product, error) {
	return queryProducts(ctx, r.db, productSelect+` WHERE p.stock = 0 ORDER BY p.id`)
}

func queryProducts(ctx context.Context, db DB, sql string, args ...any) ([]*domain.Product, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                         domain.Product
		companyName, categoryName string
		price                     pgtype.Numeric
	)

	err := row.Scan(
		&p.ID,
		&p.CompanyID,
		&companyName,
		&p.CategoryID,
		&categoryName,
		&p.Model,
		&price,
		&p.Stock,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Price = numericToDecimal(price)
	p.Company = &domain.Company{ID: p.CompanyID, Name: companyName}
	p.Category = &domain.Category{ID: p.CategoryID, Name: categoryName}

	return &p, nil
}
