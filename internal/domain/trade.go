package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ParentKind identifies which kind of transaction owns a payment record.
type ParentKind string

const (
	ParentSale     ParentKind = "sale"
	ParentPurchase ParentKind = "purchase"
)

// Parent references the sale or purchase a payment record belongs to.
type Parent struct {
	Kind ParentKind
	ID   int64
}

// SaleParent references a sale.
func SaleParent(id int64) Parent { return Parent{Kind: ParentSale, ID: id} }

// PurchaseParent references a purchase.
func PurchaseParent(id int64) Parent { return Parent{Kind: ParentPurchase, ID: id} }

func (p Parent) String() string {
	return fmt.Sprintf("%s:%d", p.Kind, p.ID)
}

// LineItem is a product sold or bought within a transaction.
type LineItem struct {
	ID        int64
	ProductID int64
	Product   *Product
	Quantity  int
	Price     decimal.Decimal
}

// BookRecord points at the paper ledger page a sale was written into.
type BookRecord struct {
	ID          int64
	SaleID      int64
	BookName    string
	PageNumber  int
	Description string
}

// Sale is goods sold to a customer.
type Sale struct {
	ID              int64
	CustomerID      int64
	Customer        *Customer
	PaymentStatus   PaymentStatus
	PaymentOption   PaymentOption
	Items           []*LineItem
	FullPayment     *FullPayment
	InstallmentPlan *InstallmentPlan
	BookRecord      *BookRecord
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Total is the sum of line-item prices.
func (s *Sale) Total() decimal.Decimal {
	return sumItems(s.Items)
}

// Purchase is goods bought for stock.
type Purchase struct {
	ID              int64
	CustomerID      int64
	Customer        *Customer
	PaymentStatus   PaymentStatus
	PaymentOption   PaymentOption
	Items           []*LineItem
	FullPayment     *FullPayment
	InstallmentPlan *InstallmentPlan
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Total is the sum of line-item prices.
func (p *Purchase) Total() decimal.Decimal {
	return sumItems(p.Items)
}

func sumItems(items []*LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}
