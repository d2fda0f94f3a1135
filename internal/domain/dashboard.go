package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompanySummary aggregates stock and trade totals for one company.
type CompanySummary struct {
	CompanyID     int64
	CompanyName   string
	ProductCount  int
	TotalStock    int
	SaleTotal     decimal.Decimal
	PurchaseTotal decimal.Decimal
}

// Dashboard is the shop overview.
type Dashboard struct {
	TotalRevenue        decimal.Decimal
	PendingPaymentCount int
	CompanyCount        int
	Companies           []CompanySummary
	OutOfStockProducts  []*Product
	PendingSales        []*Sale
	GeneratedAt         time.Time
}
