package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iho/emart/internal/domain"
)

// CatalogUseCase manages companies and categories.
type CatalogUseCase struct {
	companyRepo  CompanyRepository
	categoryRepo CategoryRepository
}

// NewCatalogUseCase creates a new CatalogUseCase.
func NewCatalogUseCase(companyRepo CompanyRepository, categoryRepo CategoryRepository) *CatalogUseCase {
	return &CatalogUseCase{
		companyRepo:  companyRepo,
		categoryRepo: categoryRepo,
	}
}

// CreateCompany adds a company with a unique name.
func (uc *CatalogUseCase) CreateCompany(ctx context.Context, name string) (*domain.Company, error) {
	name, err := uniqueName(ctx, "Company", name, func(ctx context.Context, n string) error {
		_, err := uc.companyRepo.GetByName(ctx, n)
		return err
	})
	if err != nil {
		return nil, err
	}

	company := &domain.Company{Name: name, CreatedAt: time.Now().UTC()}
	if err := uc.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}

	return company, nil
}

// ListCompanies returns all companies by name.
func (uc *CatalogUseCase) ListCompanies(ctx context.Context) ([]*domain.Company, error) {
	return uc.companyRepo.List(ctx)
}

// CreateCategory adds a category with a unique name.
func (uc *CatalogUseCase) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name, err := uniqueName(ctx, "Category", name, func(ctx context.Context, n string) error {
		_, err := uc.categoryRepo.GetByName(ctx, n)
		return err
	})
	if err != nil {
		return nil, err
	}

	category := &domain.Category{Name: name, CreatedAt: time.Now().UTC()}
	if err := uc.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// ListCategories returns all categories by name.
func (uc *CatalogUseCase) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return uc.categoryRepo.List(ctx)
}

// SeedDefaults creates the default companies and categories that are missing.
// It returns how many rows were added.
func (uc *CatalogUseCase) SeedDefaults(ctx context.Context) (int, error) {
	added := 0

	for _, name := range domain.DefaultCompanies {
		_, err := uc.CreateCompany(ctx, name)
		switch {
		case err == nil:
			added++
		case domain.IsValidation(err):
		default:
			return added, err
		}
	}

	for _, name := range domain.DefaultCategories {
		_, err := uc.CreateCategory(ctx, name)
		switch {
		case err == nil:
			added++
		case domain.IsValidation(err):
		default:
			return added, err
		}
	}

	return added, nil
}

func uniqueName(ctx context.Context, label, name string, lookup func(context.Context, string) error) (string, error) {
	name = strings.TrimSpace(name)

	ve := &domain.ValidationError{}
	domain.ValidateLength(ve, "name", label+" name", name, 1, domain.MaxNameLength)
	if err := ve.OrNil(); err != nil {
		return "", err
	}

	err := lookup(ctx, name)
	switch {
	case err == nil:
		return "", domain.NewValidationError("name", label+" already exists")
	case errors.Is(err, domain.ErrNotFound):
		return name, nil
	default:
		return "", err
	}
}
