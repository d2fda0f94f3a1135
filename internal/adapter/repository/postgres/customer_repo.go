package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// CustomerRepository implements usecase.CustomerRepository.
type CustomerRepository struct {
	db DB
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(db DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerSelect = `
	SELECT c.id, c.first_name, COALESCE(c.last_name, ''), c.phone_number, c.cnic, c.created_at, c.updated_at,
		a.id, a.district, a.tehsil, a.city, a.detail
	FROM customers c
	LEFT JOIN addresses a ON a.customer_id = c.id
`

// Create inserts a customer within a transaction.
func (r *CustomerRepository) Create(ctx context.Context, tx usecase.Transaction, customer *domain.Customer) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO customers (first_name, last_name, phone_number, cnic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return db.QueryRow(ctx, query,
		customer.FirstName,
		textOrNull(customer.LastName),
		customer.PhoneNumber,
		customer.CNIC,
		customer.CreatedAt,
		customer.UpdatedAt,
	).Scan(&customer.ID)
}

// Update replaces a customer's fields within a transaction.
func (r *CustomerRepository) Update(ctx context.Context, tx usecase.Transaction, customer *domain.Customer) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE customers
		SET first_name = $2, last_name = $3, phone_number = $4, cnic = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := db.Exec(ctx, query,
		customer.ID,
		customer.FirstName,
		textOrNull(customer.LastName),
		customer.PhoneNumber,
		customer.CNIC,
		customer.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}

	return nil
}

// UpsertAddress creates or replaces the customer's single address.
func (r *CustomerRepository) UpsertAddress(ctx context.Context, tx usecase.Transaction, address *domain.Address) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO addresses (customer_id, district, tehsil, city, detail)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer_id) DO UPDATE
		SET district = EXCLUDED.district, tehsil = EXCLUDED.tehsil, city = EXCLUDED.city, detail = EXCLUDED.detail
		RETURNING id
	`

	return db.QueryRow(ctx, query,
		address.CustomerID,
		address.District,
		address.Tehsil,
		address.City,
		address.Detail,
	).Scan(&address.ID)
}

// GetByID returns a customer with address.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, err := scanCustomer(r.db.QueryRow(ctx, customerSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrCustomerNotFound)
	}
	return customer, nil
}

// List returns a page of customers, newest first.
func (r *CustomerRepository) List(ctx context.Context, limit, offset int) ([]*domain.Customer, error) {
	return r.query(ctx, customerSelect+` ORDER BY c.created_at DESC, c.id DESC LIMIT $1 OFFSET $2`, limit, offset)
}

// Count returns the number of customers.
func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n)
	return n, err
}

// Search returns customers whose field contains query, case-insensitively.
func (r *CustomerRepository) Search(ctx context.Context, field usecase.CustomerSearchField, query string, limit int) ([]*domain.Customer, error) {
	var column string
	switch field {
	case usecase.SearchByFirstName:
		column = "c.first_name"
	case usecase.SearchByPhone:
		column = "c.phone_number"
	case usecase.SearchByCNIC:
		column = "c.cnic"
	default:
		return nil, fmt.Errorf("unknown search field %q", field)
	}

	sql := customerSelect + fmt.Sprintf(` WHERE %s ILIKE '%%' || $1 || '%%' ORDER BY c.id LIMIT $2`, column)
	return r.query(ctx, sql, query, limit)
}

func (r *CustomerRepository) query(ctx context.Context, sql string, args ...any) ([]*domain.Customer, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}

	return customers, rows.Err()
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var (
		c                              domain.Customer
		addressID                      pgtype.Int8
		district, tehsil, city, detail pgtype.Text
	)

	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.PhoneNumber,
		&c.CNIC,
		&c.CreatedAt,
		&c.UpdatedAt,
		&addressID,
		&district,
		&tehsil,
		&city,
		&detail,
	)
	if err != nil {
		return nil, err
	}

	if addressID.Valid {
		c.Address = &domain.Address{
			ID:         addressID.Int64,
			CustomerID: c.ID,
			District:   district.String,
			Tehsil:     tehsil.String,
			City:       city.String,
			Detail:     detail.String,
		}
	}

	return &c, nil
}
