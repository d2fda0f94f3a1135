package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentOption selects how a sale or purchase is settled.
type PaymentOption string

const (
	PaymentOptionFull        PaymentOption = "FULL_PAYMENT"
	PaymentOptionInstallment PaymentOption = "INSTALLMENT"
)

// IsValid reports whether o is a known payment option.
func (o PaymentOption) IsValid() bool {
	return o == PaymentOptionFull || o == PaymentOptionInstallment
}

// PaymentStatus is the settlement state of a sale or purchase.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// IsValid reports whether s is a known payment status.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentInfo is the settlement payload of a sale or purchase. It is either a
// FullPaymentInfo or an InstallmentPlanInfo.
type PaymentInfo interface {
	Option() PaymentOption
	Validate() error
	isPaymentInfo()
}

// FullPaymentInfo settles a transaction in one shot.
type FullPaymentInfo struct {
	PurchaseAmount decimal.Decimal
	Discount       decimal.Decimal
}

func (FullPaymentInfo) Option() PaymentOption { return PaymentOptionFull }
func (FullPaymentInfo) isPaymentInfo()        {}

// Validate checks that amount and discount are whole and non-negative.
func (f FullPaymentInfo) Validate() error {
	ve := &ValidationError{}
	ValidateMoney(ve, "purchaseAmount", "Payment", f.PurchaseAmount)
	ValidateMoney(ve, "discount", "Discount", f.Discount)
	return ve.OrNil()
}

// InstallmentPlanInfo opens an installment plan together with its first installment.
type InstallmentPlanInfo struct {
	TotalPrice        decimal.Decimal
	DownPayment       decimal.Decimal
	InstallmentPeriod int
	DueDate           string
	ExpectedPayment   decimal.Decimal
}

func (InstallmentPlanInfo) Option() PaymentOption { return PaymentOptionInstallment }
func (InstallmentPlanInfo) isPaymentInfo()        {}

// Validate checks amounts, period and the first due date.
func (i InstallmentPlanInfo) Validate() error {
	ve := &ValidationError{}
	ValidateMoney(ve, "totalPrice", "Total price", i.TotalPrice)
	ValidateMoney(ve, "downPayment", "Down payment", i.DownPayment)
	ValidateMoney(ve, "expectedPayment", "Expected payment", i.ExpectedPayment)

	if i.InstallmentPeriod < 0 {
		ve.Add("installmentPeriod", "Installment period cannot be negative")
	}

	if _, err := ParseDate(i.DueDate); err != nil {
		ve.Add("dueDate", "Invalid date")
	}

	if i.DownPayment.GreaterThan(i.TotalPrice) {
		ve.Add("downPayment", "Down payment cannot exceed total price")
	}

	return ve.OrNil()
}

// FullPayment is the persisted one-shot settlement of a sale or purchase.
type FullPayment struct {
	ID             int64
	Parent         Parent
	PurchaseAmount decimal.Decimal
	Discount       decimal.Decimal
	CreatedAt      time.Time
}

// TotalAfterDiscount is the amount shown to the customer. It does not feed
// back into any stored balance.
func (f *FullPayment) TotalAfterDiscount() decimal.Decimal {
	return f.PurchaseAmount.Sub(f.Discount)
}

// InstallmentPlan tracks the outstanding balance of a transaction paid in parts.
type InstallmentPlan struct {
	ID                int64
	Parent            Parent
	TotalPrice        decimal.Decimal
	DownPayment       decimal.Decimal
	InstallmentPeriod int
	RemainingPrice    decimal.Decimal
	Installments      []*Installment
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewInstallmentPlan builds a plan and its first installment from info.
// IDs are assigned by the repository.
func NewInstallmentPlan(parent Parent, info InstallmentPlanInfo, now time.Time) (*InstallmentPlan, *Installment, error) {
	if err := info.Validate(); err != nil {
		return nil, nil, err
	}

	dueDate, _ := ParseDate(info.DueDate)

	plan := &InstallmentPlan{
		Parent:            parent,
		TotalPrice:        info.TotalPrice,
		DownPayment:       info.DownPayment,
		InstallmentPeriod: info.InstallmentPeriod,
		RemainingPrice:    info.TotalPrice.Sub(info.DownPayment),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	first := &Installment{
		ExpectedPayment: info.ExpectedPayment,
		DueDate:         dueDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	return plan, first, nil
}

// IsSettled reports whether nothing remains to be paid.
func (p *InstallmentPlan) IsSettled() bool {
	return p.RemainingPrice.IsZero()
}

// ValidatePayment checks a proposed actual payment against the running balance.
func (p *InstallmentPlan) ValidatePayment(amount decimal.Decimal) error {
	ve := &ValidationError{}
	ValidateMoney(ve, "actualPayment", "Actual payment", amount)
	if ve.HasErrors() {
		return ve
	}

	if p.IsSettled() {
		return NewValidationError("actualPayment", MsgPlanAlreadyCompleted)
	}

	if amount.GreaterThan(p.RemainingPrice) {
		return NewValidationError("actualPayment", MsgPaymentExceedsRemaining)
	}

	return nil
}

// ApplyPayment returns the balance after amount is paid and whether that
// balance settles the plan. ValidatePayment must have accepted amount.
func (p *InstallmentPlan) ApplyPayment(amount decimal.Decimal) (remaining decimal.Decimal, completed bool) {
	remaining = p.RemainingPrice.Sub(amount)
	return remaining, remaining.IsZero()
}

// PaidSoFar is the down payment plus every recorded installment payment.
func (p *InstallmentPlan) PaidSoFar() decimal.Decimal {
	return p.TotalPrice.Sub(p.RemainingPrice)
}

// Installment is one scheduled payment of a plan.
type Installment struct {
	ID              int64
	PlanID          int64
	ExpectedPayment decimal.Decimal
	ActualPayment   *decimal.Decimal
	DueDate         time.Time
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsPaid reports whether a payment has been recorded.
func (i *Installment) IsPaid() bool {
	return i.ActualPayment != nil
}

// RecordPayment stores the actual payment details on the installment.
func (i *Installment) RecordPayment(amount decimal.Decimal, dueDate, paidAt, now time.Time) {
	i.ActualPayment = &amount
	i.DueDate = dueDate
	i.PaidAt = &paidAt
	i.UpdatedAt = now
}

// IsOverdue reports whether the installment is unpaid past its due date.
func (i *Installment) IsOverdue(now time.Time) bool {
	return !i.IsPaid() && now.After(i.DueDate)
}
