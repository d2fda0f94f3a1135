package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
)

// DashboardRepository implements usecase.DashboardRepository.
type DashboardRepository struct {
	db DB
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(db DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// TotalRevenue sums the prices of all sold line items.
func (r *DashboardRepository) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total pgtype.Numeric
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(price), 0) FROM product_sales`).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return numericToDecimal(total), nil
}

// CountPendingPayments counts sales and purchases still awaiting payment.
func (r *DashboardRepository) CountPendingPayments(ctx context.Context) (int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM sales WHERE payment_status = 'PENDING')
			+ (SELECT COUNT(*) FROM purchases WHERE payment_status = 'PENDING')
	`

	var n int
	err := r.db.QueryRow(ctx, query).Scan(&n)
	return n, err
}

// CountCompanies returns the number of companies.
func (r *DashboardRepository) CountCompanies(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n)
	return n, err
}

// CompanySummaries aggregates products, stock and trade totals per company.
func (r *DashboardRepository) CompanySummaries(ctx context.Context) ([]domain.CompanySummary, error) {
	query := `
		SELECT c.id, c.name,
			COUNT(p.id),
			COALESCE(SUM(p.stock), 0),
			COALESCE((
				SELECT SUM(ps.price) FROM product_sales ps
				JOIN products sp ON sp.id = ps.product_id
				WHERE sp.company_id = c.id
			), 0),
			COALESCE((
				SELECT SUM(pp.price) FROM product_purchases pp
				JOIN products bp ON bp.id = pp.product_id
				WHERE bp.company_id = c.id
			), 0)
		FROM companies c
		LEFT JOIN products p ON p.company_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.CompanySummary
	for rows.Next() {
		var (
			s                domain.CompanySummary
			sales, purchases pgtype.Numeric
		)
		if err := rows.Scan(&s.CompanyID, &s.CompanyName, &s.ProductCount, &s.TotalStock, &sales, &purchases); err != nil {
			return nil, err
		}
		s.SaleTotal = numericToDecimal(sales)
		s.PurchaseTotal = numericToDecimal(purchases)
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// PendingSales returns the most recent sales still awaiting payment.
func (r *DashboardRepository) PendingSales(ctx context.Context, limit int) ([]*domain.Sale, error) {
	rows, err := saleTables.list(ctx, r.db, "WHERE t.payment_status = 'PENDING'", "LIMIT $1", limit)
	if err != nil {
		return nil, err
	}
	return toSales(rows), nil
}
