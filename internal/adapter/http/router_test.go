package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/emart/internal/adapter/http/handler"
	apimiddleware "github.com/iho/emart/internal/adapter/http/middleware"
	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/infrastructure/auth"
	"github.com/iho/emart/internal/infrastructure/metrics"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1, nil)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/companies", strings.NewReader(`{"name":"Dawlance"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.checkCalled || !store.updateCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_AuthAndRoles(t *testing.T) {
	manager := auth.NewJWTManager("router-secret", time.Hour)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.TokenVerifier = manager
	}))

	viewer, err := manager.Generate("guard", domain.RoleViewer)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	admin, err := manager.Generate("owner", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	tests := []struct {
		name     string
		token    string
		method   string
		path     string
		body     string
		expected int
	}{
		{"no token", "", http.MethodGet, "/api/v1/companies", "", http.StatusUnauthorized},
		{"viewer reads", viewer, http.MethodGet, "/api/v1/companies", "", http.StatusOK},
		{"viewer cannot create", viewer, http.MethodPost, "/api/v1/companies", `{"name":"Haier"}`, http.StatusForbidden},
		{"admin creates", admin, http.MethodPost, "/api/v1/companies", `{"name":"Haier"}`, http.StatusCreated},
		{"health stays public", "", http.MethodGet, "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = metrics.NewWithRegistry(reg)
		cfg.MetricsGatherer = reg
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "emart_http_requests_total") {
		t.Fatalf("expected http metrics to be exported")
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Routes)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/customers/",
		"GET /api/v1/customers/search",
		"PUT /api/v1/customers/{id}",
		"POST /api/v1/companies",
		"GET /api/v1/categories",
		"GET /api/v1/products/out-of-stock",
		"PUT /api/v1/products/{id}",
		"POST /api/v1/sales/",
		"GET /api/v1/sales/{id}/invoice.pdf",
		"POST /api/v1/sales/{id}/full-payment",
		"POST /api/v1/sales/{id}/installment-plan",
		"POST /api/v1/sales/{id}/installments",
		"POST /api/v1/purchases/{id}/full-payment",
		"POST /api/v1/purchases/{id}/installment-plan",
		"POST /api/v1/purchases/{id}/installments",
		"PUT /api/v1/installments/{id}/payment",
		"GET /api/v1/dashboard",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	ok := handler.PingFunc(func(ctx context.Context) error { return nil })

	cfg := RouterConfig{
		CustomerHandler:  handler.NewCustomerHandler(nil),
		CatalogHandler:   handler.NewCatalogHandler(stubCatalogService{}),
		ProductHandler:   handler.NewProductHandler(nil),
		SaleHandler:      handler.NewSaleHandler(nil, nil),
		PurchaseHandler:  handler.NewPurchaseHandler(nil),
		PaymentHandler:   handler.NewPaymentHandler(nil),
		DashboardHandler: handler.NewDashboardHandler(nil),
		HealthHandler:    handler.NewHealthHandler(ok, nil),
		Logger:           zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubCatalogService struct{}

func (stubCatalogService) CreateCompany(ctx context.Context, name string) (*domain.Company, error) {
	return &domain.Company{ID: 1, Name: name}, nil
}

func (stubCatalogService) ListCompanies(ctx context.Context) ([]*domain.Company, error) {
	return []*domain.Company{}, nil
}

func (stubCatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	return &domain.Category{ID: 1, Name: name}, nil
}

func (stubCatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return []*domain.Category{}, nil
}

type stubIdempotencyStore struct {
	checkCalled  bool
	updateCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updateCalled = true
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
