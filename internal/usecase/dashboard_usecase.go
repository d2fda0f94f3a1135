package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/infrastructure/metrics"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// DashboardUseCase builds the shop overview.
type DashboardUseCase struct {
	dashboardRepo DashboardRepository
	productRepo   ProductRepository
	cache         Cache
	ttl           time.Duration
	metrics       *metrics.Metrics
}

// NewDashboardUseCase creates a new DashboardUseCase. cache and m may be nil.
func NewDashboardUseCase(
	dashboardRepo DashboardRepository,
	productRepo ProductRepository,
	cache Cache,
	ttl time.Duration,
	m *metrics.Metrics,
) *DashboardUseCase {
	if ttl <= 0 {
		ttl = DefaultDashboardTTL
	}

	return &DashboardUseCase{
		dashboardRepo: dashboardRepo,
		productRepo:   productRepo,
		cache:         cache,
		ttl:           ttl,
		metrics:       m,
	}
}

// Get returns the dashboard, from cache when fresh.
func (uc *DashboardUseCase) Get(ctx context.Context) (*domain.Dashboard, error) {
	if uc.cache != nil {
		raw, err := uc.cache.Get(ctx, DashboardCacheKey)
		if err == nil {
			var cached domain.Dashboard
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				uc.countLookup("hit")
				return &cached, nil
			}
		}
		uc.countLookup("miss")
	}

	dashboard, err := uc.build(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(dashboard); err == nil {
			_ = uc.cache.Set(ctx, DashboardCacheKey, raw, uc.ttl)
		}
	}

	return dashboard, nil
}

// Refresh drops the cached dashboard and rebuilds it.
func (uc *DashboardUseCase) Refresh(ctx context.Context) (*domain.Dashboard, error) {
	invalidateDashboard(ctx, uc.cache)
	return uc.Get(ctx)
}

func (uc *DashboardUseCase) build(ctx context.Context) (*domain.Dashboard, error) {
	revenue, err := uc.dashboardRepo.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := uc.dashboardRepo.CountPendingPayments(ctx)
	if err != nil {
		return nil, err
	}

	companies, err := uc.dashboardRepo.CountCompanies(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := uc.dashboardRepo.CompanySummaries(ctx)
	if err != nil {
		return nil, err
	}

	outOfStock, err := uc.productRepo.ListOutOfStock(ctx)
	if err != nil {
		return nil, err
	}

	pendingSales, err := uc.dashboardRepo.PendingSales(ctx, PendingSalesLimit)
	if err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		TotalRevenue:        revenue,
		PendingPaymentCount: pending,
		CompanyCount:        companies,
		Companies:           summaries,
		OutOfStockProducts:  outOfStock,
		PendingSales:        pendingSales,
		GeneratedAt:         time.Now().UTC(),
	}, nil
}

func (uc *DashboardUseCase) countLookup(result string) {
	if uc.metrics != nil {
		uc.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func invalidateDashboard(ctx context.Context, cache Cache) {
	if cache == nil {
		return
	}
	_ = cache.Delete(ctx, DashboardCacheKey)
}
