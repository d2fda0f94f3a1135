package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/emart/internal/adapter/http/dto"
	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

type catalogServiceStub struct {
	companies  []*domain.Company
	categories []*domain.Category
	createErr  error
}

func (s *catalogServiceStub) CreateCompany(ctx context.Context, name string) (*domain.Company, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Company{ID: 1, Name: name}, nil
}

func (s *catalogServiceStub) ListCompanies(ctx context.Context) ([]*domain.Company, error) {
	return s.companies, nil
}

func (s *catalogServiceStub) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	return &domain.Category{ID: 1, Name: name}, nil
}

func (s *catalogServiceStub) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories, nil
}

type productServiceStub struct {
	searchFn     func(ctx context.Context, companyID, categoryID int64, model string) ([]*domain.Product, error)
	outOfStockFn func(ctx context.Context) ([]*domain.Product, error)
}

func (s *productServiceStub) CreateProduct(ctx context.Context, input usecase.ProductInput) (*domain.Product, error) {
	return &domain.Product{ID: 1, Model: input.Model, Price: input.Price, Stock: input.Stock}, nil
}

func (s *productServiceStub) UpdateProduct(ctx context.Context, id int64, input usecase.ProductInput) (*domain.Product, error) {
	return nil, domain.ErrProductNotFound
}

func (s *productServiceStub) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return &domain.Product{ID: id}, nil
}

func (s *productServiceStub) ListProducts(ctx context.Context, page, size int) (*usecase.Page[*domain.Product], error) {
	return &usecase.Page[*domain.Product]{Page: page, Size: size}, nil
}

func (s *productServiceStub) SearchProducts(ctx context.Context, companyID, categoryID int64, model string) ([]*domain.Product, error) {
	return s.searchFn(ctx, companyID, categoryID, model)
}

func (s *productServiceStub) ListOutOfStock(ctx context.Context) ([]*domain.Product, error) {
	return s.outOfStockFn(ctx)
}

func TestCatalogHandlerCreateCompanyDuplicate(t *testing.T) {
	h := NewCatalogHandler(&catalogServiceStub{
		createErr: domain.NewValidationError("name", "Company already exists"),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/companies", strings.NewReader(`{"name":"Dawlance"}`))
	rr := httptest.NewRecorder()

	h.CreateCompany(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestCatalogHandlerListCategories(t *testing.T) {
	h := NewCatalogHandler(&catalogServiceStub{
		categories: []*domain.Category{{ID: 1, Name: "LED TV"}, {ID: 2, Name: "Refrigerator"}},
	})

	rr := httptest.NewRecorder()
	h.ListCategories(rr, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	var resp []dto.NamedResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 || resp[1].Name != "Refrigerator" {
		t.Fatalf("unexpected categories %+v", resp)
	}
}

func TestProductHandlerSearchForwardsFilters(t *testing.T) {
	stub := &productServiceStub{
		searchFn: func(ctx context.Context, companyID, categoryID int64, model string) ([]*domain.Product, error) {
			if companyID != 3 || categoryID != 4 || model != "LF" {
				t.Fatalf("unexpected filters %d/%d/%q", companyID, categoryID, model)
			}
			return []*domain.Product{{ID: 8}}, nil
		},
	}
	h := NewProductHandler(stub)

	rr := httptest.NewRecorder()
	h.Search(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products/search?companyId=3&categoryId=4&model=LF", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestProductHandlerUpdateNotFound(t *testing.T) {
	h := NewProductHandler(&productServiceStub{})

	body := `{"companyName":"Dawlance","categoryName":"Refrigerator","model":"9193 LF","price":85000,"stock":2}`
	req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/products/77", strings.NewReader(body)), "id", "77")
	rr := httptest.NewRecorder()

	h.Update(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestProductHandlerOutOfStockEmpty(t *testing.T) {
	stub := &productServiceStub{
		outOfStockFn: func(ctx context.Context) ([]*domain.Product, error) { return nil, nil },
	}
	h := NewProductHandler(stub)

	rr := httptest.NewRecorder()
	h.OutOfStock(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products/out-of-stock", nil))

	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Fatalf("expected empty array, got %s", body)
	}
}
