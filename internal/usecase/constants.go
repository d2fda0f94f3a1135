package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DashboardCacheKey holds the cached dashboard payload
	DashboardCacheKey = "emart:dashboard"

	// DefaultDashboardTTL applies when no TTL is configured
	DefaultDashboardTTL = 30 * time.Second

	// PendingSalesLimit caps the pending sales shown on the dashboard
	PendingSalesLimit = 20
)
