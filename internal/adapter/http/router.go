package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/emart/internal/adapter/http/handler"
	"github.com/iho/emart/internal/adapter/http/middleware"
	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/infrastructure/metrics"
	"github.com/iho/emart/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	CustomerHandler  *handler.CustomerHandler
	CatalogHandler   *handler.CatalogHandler
	ProductHandler   *handler.ProductHandler
	SaleHandler      *handler.SaleHandler
	PurchaseHandler  *handler.PurchaseHandler
	PaymentHandler   *handler.PaymentHandler
	DashboardHandler *handler.DashboardHandler
	HealthHandler    *handler.HealthHandler

	Logger zerolog.Logger

	// Optional
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	TokenVerifier    middleware.TokenVerifier
	Metrics          *metrics.Metrics
	MetricsGatherer  prometheus.Gatherer
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier, cfg.Metrics))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		// Catalog
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.Role.CanManageCatalog))

			r.Post("/companies", cfg.CatalogHandler.CreateCompany)
			r.Get("/companies", cfg.CatalogHandler.ListCompanies)
			r.Post("/categories", cfg.CatalogHandler.CreateCategory)
			r.Get("/categories", cfg.CatalogHandler.ListCategories)

			r.Route("/products", func(r chi.Router) {
				r.Post("/", cfg.ProductHandler.Create)
				r.Get("/", cfg.ProductHandler.List)
				r.Get("/search", cfg.ProductHandler.Search)
				r.Get("/out-of-stock", cfg.ProductHandler.OutOfStock)
				r.Get("/{id}", cfg.ProductHandler.Get)
				r.Put("/{id}", cfg.ProductHandler.Update)
			})
		})

		// Customers, trade and payments
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.Role.CanWrite))

			r.Route("/customers", func(r chi.Router) {
				r.Post("/", cfg.CustomerHandler.Create)
				r.Get("/", cfg.CustomerHandler.List)
				r.Get("/search", cfg.CustomerHandler.Search)
				r.Get("/{id}", cfg.CustomerHandler.Get)
				r.Put("/{id}", cfg.CustomerHandler.Update)
			})

			r.Route("/sales", func(r chi.Router) {
				r.Post("/", cfg.SaleHandler.Create)
				r.Get("/", cfg.SaleHandler.List)
				r.Get("/{id}", cfg.SaleHandler.Get)
				r.Get("/{id}/invoice.pdf", cfg.SaleHandler.Invoice)
				r.Post("/{id}/full-payment", cfg.PaymentHandler.RecordFullPayment(domain.ParentSale))
				r.Post("/{id}/installment-plan", cfg.PaymentHandler.CreateInstallmentPlan(domain.ParentSale))
				r.Post("/{id}/installments", cfg.PaymentHandler.ScheduleInstallment(domain.ParentSale))
			})

			r.Route("/purchases", func(r chi.Router) {
				r.Post("/", cfg.PurchaseHandler.Create)
				r.Get("/", cfg.PurchaseHandler.List)
				r.Get("/{id}", cfg.PurchaseHandler.Get)
				r.Post("/{id}/full-payment", cfg.PaymentHandler.RecordFullPayment(domain.ParentPurchase))
				r.Post("/{id}/installment-plan", cfg.PaymentHandler.CreateInstallmentPlan(domain.ParentPurchase))
				r.Post("/{id}/installments", cfg.PaymentHandler.ScheduleInstallment(domain.ParentPurchase))
			})

			r.Put("/installments/{id}/payment", cfg.PaymentHandler.RecordInstallmentPayment)
			r.Get("/dashboard", cfg.DashboardHandler.Get)
		})
	})

	return r
}
