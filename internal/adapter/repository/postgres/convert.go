package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
)

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func nullableDecimalToNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return decimalToNumeric(*d)
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func numericToNullableDecimal(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := numericToDecimal(n)
	return &d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func nullableTimeToPg(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(*t)
}

func pgToNullableTime(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func dateToPg(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// notFound maps pgx.ErrNoRows to the given sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

// parentColumn is the foreign key column that points at parent on payment
// tables.
func parentColumn(parent domain.Parent) (string, error) {
	switch parent.Kind {
	case domain.ParentSale:
		return "sale_id", nil
	case domain.ParentPurchase:
		return "purchase_id", nil
	default:
		return "", fmt.Errorf("unknown parent kind %q", parent.Kind)
	}
}

func parentFromColumns(saleID, purchaseID pgtype.Int8) domain.Parent {
	if saleID.Valid {
		return domain.SaleParent(saleID.Int64)
	}
	return domain.PurchaseParent(purchaseID.Int64)
}

func parentColumns(parent domain.Parent) (saleID, purchaseID pgtype.Int8) {
	if parent.Kind == domain.ParentPurchase {
		return pgtype.Int8{}, pgtype.Int8{Int64: parent.ID, Valid: true}
	}
	return pgtype.Int8{Int64: parent.ID, Valid: true}, pgtype.Int8{}
}
