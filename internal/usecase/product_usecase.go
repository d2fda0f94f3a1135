package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
)

// ProductUseCase handles product business logic.
type ProductUseCase struct {
	productRepo  ProductRepository
	companyRepo  CompanyRepository
	categoryRepo CategoryRepository
}

// NewProductUseCase creates a new ProductUseCase.
func NewProductUseCase(productRepo ProductRepository, companyRepo CompanyRepository, categoryRepo CategoryRepository) *ProductUseCase {
	return &ProductUseCase{
		productRepo:  productRepo,
		companyRepo:  companyRepo,
		categoryRepo: categoryRepo,
	}
}

// ProductInput represents input for creating or updating a product.
// Company and category are given by name.
type ProductInput struct {
	CompanyName  string
	CategoryName string
	Model        string
	Price        decimal.Decimal
	Stock        int
	Description  string
}

// CreateProduct adds a product to the catalog.
func (uc *ProductUseCase) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	now := time.Now().UTC()
	product := &domain.Product{CreatedAt: now, UpdatedAt: now}

	if err := uc.apply(ctx, product, input, true); err != nil {
		return nil, err
	}

	if err := uc.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// UpdateProduct replaces a product's fields.
func (uc *ProductUseCase) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.UpdatedAt = time.Now().UTC()
	if err := uc.apply(ctx, product, input, false); err != nil {
		return nil, err
	}

	if err := uc.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (uc *ProductUseCase) apply(ctx context.Context, product *domain.Product, input ProductInput, creating bool) error {
	ve := &domain.ValidationError{}

	company, err := uc.companyRepo.GetByName(ctx, strings.TrimSpace(input.CompanyName))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		ve.Add("company", "Unknown company")
	case err != nil:
		return err
	}

	category, err := uc.categoryRepo.GetByName(ctx, strings.TrimSpace(input.CategoryName))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		ve.Add("category", "Unknown category")
	case err != nil:
		return err
	}

	product.Model = strings.TrimSpace(input.Model)
	product.Price = input.Price
	product.Stock = input.Stock
	product.Description = strings.TrimSpace(input.Description)

	if err := product.Validate(creating); err != nil {
		if pve, ok := err.(*domain.ValidationError); ok {
			for field, msg := range pve.Fields {
				ve.Add(field, msg)
			}
		}
	}

	if err := ve.OrNil(); err != nil {
		return err
	}

	product.CompanyID = company.ID
	product.Company = company
	product.CategoryID = category.ID
	product.Category = category

	return nil
}

// GetProduct returns a product with company and category.
func (uc *ProductUseCase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return uc.productRepo.GetByID(ctx, id)
}

// ListProducts returns a page of products.
func (uc *ProductUseCase) ListProducts(ctx context.Context, page, size int) (*Page[*domain.Product], error) {
	page, size = domain.ValidatePagination(page, size)

	products, err := uc.productRepo.List(ctx, size, domain.Offset(page, size))
	if err != nil {
		return nil, err
	}

	total, err := uc.productRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &Page[*domain.Product]{Items: products, Total: total, Page: page, Size: size}, nil
}

// SearchProducts finds products of one company and category whose model
// contains the query. All three filters are required.
func (uc *ProductUseCase) SearchProducts(ctx context.Context, companyID, categoryID int64, model string) ([]*domain.Product, error) {
	ve := &domain.ValidationError{}
	if companyID == 0 {
		ve.Add("companyId", "Company is required")
	}
	if categoryID == 0 {
		ve.Add("categoryId", "Category is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		ve.Add("model", "Model is required")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	return uc.productRepo.Search(ctx, companyID, categoryID, model)
}

// ListOutOfStock returns products with zero stock.
func (uc *ProductUseCase) ListOutOfStock(ctx context.Context) ([]*domain.Product, error) {
	return uc.productRepo.ListOutOfStock(ctx)
}
