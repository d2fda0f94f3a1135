//go:generate mockgen -source=catalog_interfaces.go -destination=mocks/mock_catalog.go -package=mocks

package usecase

import (
	"context"

	"github.com/iho/emart/internal/domain"
)

// CustomerSearchField selects which column a customer search matches.
type CustomerSearchField string

const (
	SearchByFirstName CustomerSearchField = "firstName"
	SearchByPhone     CustomerSearchField = "phoneNumber"
	SearchByCNIC      CustomerSearchField = "CNIC"
)

// IsValid reports whether f is a searchable field.
func (f CustomerSearchField) IsValid() bool {
	return f == SearchByFirstName || f == SearchByPhone || f == SearchByCNIC
}

// CustomerRepository defines data access for customers.
type CustomerRepository interface {
	Create(ctx context.Context, tx Transaction, customer *domain.Customer) error
	Update(ctx context.Context, tx Transaction, customer *domain.Customer) error
	UpsertAddress(ctx context.Context, tx Transaction, address *domain.Address) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Customer, error)
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, field CustomerSearchField, query string, limit int) ([]*domain.Customer, error)
}

// CompanyRepository defines data access for companies.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	GetByName(ctx context.Context, name string) (*domain.Company, error)
	List(ctx context.Context) ([]*domain.Company, error)
}

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
}

// ProductRepository defines data access for products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []int64) ([]*domain.Product, error)
	AdjustStock(ctx context.Context, tx Transaction, id int64, delta int) error
	List(ctx context.Context, limit, offset int) ([]*domain.Product, error)
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, companyID, categoryID int64, model string) ([]*domain.Product, error)
	ListOutOfStock(ctx context.Context) ([]*domain.Product, error)
}
