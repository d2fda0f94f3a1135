package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// parentTable returns the table holding parent.
func parentTable(parent domain.Parent) (string, error) {
	switch parent.Kind {
	case domain.ParentSale:
		return "sales", nil
	case domain.ParentPurchase:
		return "purchases", nil
	default:
		return "", fmt.Errorf("unknown parent kind %q", parent.Kind)
	}
}

func parentNotFound(parent domain.Parent) error {
	if parent.Kind == domain.ParentPurchase {
		return domain.ErrPurchaseNotFound
	}
	return domain.ErrSaleNotFound
}

// ParentRepository implements usecase.ParentRepository over sales and
// purchases.
type ParentRepository struct{}

// NewParentRepository creates a new ParentRepository.
func NewParentRepository() *ParentRepository {
	return &ParentRepository{}
}

// GetStateForUpdate locks the parent row and reports whether a payment row
// already exists for it.
func (r *ParentRepository) GetStateForUpdate(ctx context.Context, tx usecase.Transaction, parent domain.Parent) (*usecase.ParentState, error) {
	db, err := txDB(tx)
	if err != nil {
		return nil, err
	}

	table, err := parentTable(parent)
	if err != nil {
		return nil, err
	}
	column, _ := parentColumn(parent)

	query := fmt.Sprintf(`
		SELECT p.payment_option, p.payment_status,
			EXISTS (SELECT 1 FROM full_payments WHERE %[2]s = p.id)
				OR EXISTS (SELECT 1 FROM installment_plans WHERE %[2]s = p.id)
		FROM %[1]s p
		WHERE p.id = $1
		FOR UPDATE OF p
	`, table, column)

	state := &usecase.ParentState{Parent: parent}
	var option, status string
	err = db.QueryRow(ctx, query, parent.ID).Scan(&option, &status, &state.HasPaymentRow)
	if err != nil {
		return nil, notFound(err, parentNotFound(parent))
	}

	state.Option = domain.PaymentOption(option)
	state.Status = domain.PaymentStatus(status)

	return state, nil
}

// UpdatePaymentStatus sets the payment status of a sale or purchase.
func (r *ParentRepository) UpdatePaymentStatus(ctx context.Context, tx usecase.Transaction, parent domain.Parent, status domain.PaymentStatus, updatedAt time.Time) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	table, err := parentTable(parent)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET payment_status = $2, updated_at = $3 WHERE id = $1`, table)
	tag, err := db.Exec(ctx, query, parent.ID, string(status), updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return parentNotFound(parent)
	}

	return nil
}

// FullPaymentRepository implements usecase.FullPaymentRepository.
type FullPaymentRepository struct {
	db DB
}

// NewFullPaymentRepository creates a new FullPaymentRepository.
func NewFullPaymentRepository(db DB) *FullPaymentRepository {
	return &FullPaymentRepository{db: db}
}

// Create inserts a full payment within a transaction.
func (r *FullPaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.FullPayment) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	saleID, purchaseID := parentColumns(payment.Parent)
	query := `
		INSERT INTO full_payments (sale_id, purchase_id, purchase_amount, discount, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return db.QueryRow(ctx, query,
		saleID,
		purchaseID,
		decimalToNumeric(payment.PurchaseAmount),
		decimalToNumeric(payment.Discount),
		payment.CreatedAt,
	).Scan(&payment.ID)
}

// GetByParent returns the full payment of a sale or purchase.
func (r *FullPaymentRepository) GetByParent(ctx context.Context, parent domain.Parent) (*domain.FullPayment, error) {
	column, err := parentColumn(parent)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, purchase_amount, discount, created_at
		FROM full_payments
		WHERE %s = $1
	`, column)

	payment := &domain.FullPayment{Parent: parent}
	var amount, discount pgtype.Numeric
	err = r.db.QueryRow(ctx, query, parent.ID).Scan(&payment.ID, &amount, &discount, &payment.CreatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}

	payment.PurchaseAmount = numericToDecimal(amount)
	payment.Discount = numericToDecimal(discount)

	return payment, nil
}

// InstallmentPlanRepository implements usecase.InstallmentPlanRepository.
type InstallmentPlanRepository struct {
	db DB
}

// NewInstallmentPlanRepository creates a new InstallmentPlanRepository.
func NewInstallmentPlanRepository(db DB) *InstallmentPlanRepository {
	return &InstallmentPlanRepository{db: db}
}

const planColumns = `id, sale_id, purchase_id, total_price, down_payment, installment_period, remaining_price, created_at, updated_at`

// Create inserts a plan within a transaction.
func (r *InstallmentPlanRepository) Create(ctx context.Context, tx usecase.Transaction, plan *domain.InstallmentPlan) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	saleID, purchaseID := parentColumns(plan.Parent)
	query := `
		INSERT INTO installment_plans (sale_id, purchase_id, total_price, down_payment, installment_period, remaining_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return db.QueryRow(ctx, query,
		saleID,
		purchaseID,
		decimalToNumeric(plan.TotalPrice),
		decimalToNumeric(plan.DownPayment),
		plan.InstallmentPeriod,
		decimalToNumeric(plan.RemainingPrice),
		plan.CreatedAt,
		plan.UpdatedAt,
	).Scan(&plan.ID)
}

// GetByID returns a plan without installments.
func (r *InstallmentPlanRepository) GetByID(ctx context.Context, id int64) (*domain.InstallmentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM installment_plans WHERE id = $1`
	return scanPlan(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate returns a plan and locks its row until the transaction
// ends, serializing concurrent payments against the same plan.
func (r *InstallmentPlanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.InstallmentPlan, error) {
	db, err := txDB(tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM installment_plans WHERE id = $1 FOR UPDATE`
	return scanPlan(db.QueryRow(ctx, query, id))
}

// GetByParent returns the plan of a sale or purchase.
func (r *InstallmentPlanRepository) GetByParent(ctx context.Context, parent domain.Parent) (*domain.InstallmentPlan, error) {
	column, err := parentColumn(parent)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM installment_plans WHERE %s = $1`, planColumns, column)
	return scanPlan(r.db.QueryRow(ctx, query, parent.ID))
}

// UpdateRemainingPrice stores the plan's new running balance.
func (r *InstallmentPlanRepository) UpdateRemainingPrice(ctx context.Context, tx usecase.Transaction, id int64, remaining decimal.Decimal, updatedAt time.Time) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	tag, err := db.Exec(ctx,
		`UPDATE installment_plans SET remaining_price = $2, updated_at = $3 WHERE id = $1`,
		id, decimalToNumeric(remaining), updatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInstallmentPlanNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*domain.InstallmentPlan, error) {
	var (
		plan                         domain.InstallmentPlan
		saleID, purchaseID           pgtype.Int8
		total, down, remainingAmount pgtype.Numeric
	)

	err := row.Scan(
		&plan.ID,
		&saleID,
		&purchaseID,
		&total,
		&down,
		&plan.InstallmentPeriod,
		&remainingAmount,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrInstallmentPlanNotFound)
	}

	plan.Parent = parentFromColumns(saleID, purchaseID)
	plan.TotalPrice = numericToDecimal(total)
	plan.DownPayment = numericToDecimal(down)
	plan.RemainingPrice = numericToDecimal(remainingAmount)

	return &plan, nil
}

// InstallmentRepository implements usecase.InstallmentRepository.
type InstallmentRepository struct {
	db DB
}

// NewInstallmentRepository creates a new InstallmentRepository.
func NewInstallmentRepository(db DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

const installmentColumns = `id, plan_id, expected_payment, actual_payment, due_date, paid_at, created_at, updated_at`

// Create inserts an installment within a transaction.
func (r *InstallmentRepository) Create(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO installments (plan_id, expected_payment, actual_payment, due_date, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	return db.QueryRow(ctx, query,
		installment.PlanID,
		decimalToNumeric(installment.ExpectedPayment),
		nullableDecimalToNumeric(installment.ActualPayment),
		dateToPg(installment.DueDate),
		nullableTimeToPg(installment.PaidAt),
		installment.CreatedAt,
		installment.UpdatedAt,
	).Scan(&installment.ID)
}

// GetByIDTx reads an installment inside a transaction.
func (r *InstallmentRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Installment, error) {
	db, err := txDB(tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + installmentColumns + ` FROM installments WHERE id = $1 FOR UPDATE`
	return scanInstallment(db.QueryRow(ctx, query, id))
}

// UpdatePayment stores the recorded payment of an installment.
func (r *InstallmentRepository) UpdatePayment(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE installments
		SET actual_payment = $2, due_date = $3, paid_at = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := db.Exec(ctx, query,
		installment.ID,
		nullableDecimalToNumeric(installment.ActualPayment),
		dateToPg(installment.DueDate),
		nullableTimeToPg(installment.PaidAt),
		installment.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInstallmentNotFound
	}

	return nil
}

// ListByPlan returns a plan's installments by due date.
func (r *InstallmentRepository) ListByPlan(ctx context.Context, planID int64) ([]*domain.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE plan_id = $1 ORDER BY due_date, id`

	rows, err := r.db.Query(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var installments []*domain.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}

	return installments, rows.Err()
}

func scanInstallment(row rowScanner) (*domain.Installment, error) {
	var (
		inst             domain.Installment
		expected, actual pgtype.Numeric
		dueDate          pgtype.Date
		paidAt           pgtype.Timestamptz
	)

	err := row.Scan(
		&inst.ID,
		&inst.PlanID,
		&expected,
		&actual,
		&dueDate,
		&paidAt,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrInstallmentNotFound)
	}

	inst.ExpectedPayment = numericToDecimal(expected)
	inst.ActualPayment = numericToNullableDecimal(actual)
	inst.DueDate = dueDate.Time
	inst.PaidAt = pgToNullableTime(paidAt)

	return &inst, nil
}
