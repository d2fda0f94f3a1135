package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// PageResponse wraps a page of results.
type PageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

// PageFromUseCase converts a use case page with conv applied to every item.
func PageFromUseCase[D, T any](p *usecase.Page[D], conv func(D) T) PageResponse[T] {
	items := make([]T, len(p.Items))
	for i, item := range p.Items {
		items[i] = conv(item)
	}
	return PageResponse[T]{Items: items, Total: p.Total, Page: p.Page, Size: p.Size}
}

// ListFromDomain converts a slice with conv.
func ListFromDomain[D, T any](in []D, conv func(D) T) []T {
	out := make([]T, len(in))
	for i, item := range in {
		out[i] = conv(item)
	}
	return out
}

// AddressResponse represents a customer address.
type AddressResponse struct {
	ID       int64  `json:"id"`
	District string `json:"district"`
	Tehsil   string `json:"tehsil"`
	City     string `json:"city"`
	Detail   string `json:"detail"`
}

// CustomerResponse represents a customer in API responses.
type CustomerResponse struct {
	ID          int64            `json:"id"`
	FirstName   string           `json:"firstName"`
	LastName    string           `json:"lastName,omitempty"`
	FullName    string           `json:"fullName"`
	PhoneNumber string           `json:"phoneNumber"`
	CNIC        string           `json:"CNIC"`
	Address     *AddressResponse `json:"address,omitempty"`
	Sales       []*SaleResponse  `json:"sales,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// CustomerFromDomain converts a domain customer to response.
func CustomerFromDomain(c *domain.Customer) *CustomerResponse {
	if c == nil {
		return nil
	}

	resp := &CustomerResponse{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		FullName:    c.FullName(),
		PhoneNumber: c.PhoneNumber,
		CNIC:        c.CNIC,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.Address != nil {
		resp.Address = &AddressResponse{
			ID:       c.Address.ID,
			District: c.Address.District,
			Tehsil:   c.Address.Tehsil,
			City:     c.Address.City,
			Detail:   c.Address.Detail,
		}
	}
	if len(c.Sales) > 0 {
		resp.Sales = ListFromDomain(c.Sales, SaleFromDomain)
	}
	return resp
}

// NamedResponse represents a company or category.
type NamedResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// CompanyFromDomain converts a domain company to response.
func CompanyFromDomain(c *domain.Company) *NamedResponse {
	return &NamedResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

// CategoryFromDomain converts a domain category to response.
func CategoryFromDomain(c *domain.Category) *NamedResponse {
	return &NamedResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID           int64           `json:"id"`
	CompanyID    int64           `json:"companyId"`
	CompanyName  string          `json:"companyName,omitempty"`
	CategoryID   int64           `json:"categoryId"`
	CategoryName string          `json:"categoryName,omitempty"`
	Model        string          `json:"model"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ProductFromDomain converts a domain product to response.
func ProductFromDomain(p *domain.Product) *ProductResponse {
	if p == nil {
		return nil
	}

	resp := &ProductResponse{
		ID:          p.ID,
		CompanyID:   p.CompanyID,
		CategoryID:  p.CategoryID,
		Model:       p.Model,
		Price:       p.Price,
		Stock:       p.Stock,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Company != nil {
		resp.CompanyName = p.Company.Name
	}
	if p.Category != nil {
		resp.CategoryName = p.Category.Name
	}
	return resp
}

// LineItemResponse represents a product line.
type LineItemResponse struct {
	ID        int64            `json:"id"`
	ProductID int64            `json:"productId"`
	Product   *ProductResponse `json:"product,omitempty"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
}

func lineItemsFromDomain(items []*domain.LineItem) []*LineItemResponse {
	return ListFromDomain(items, func(item *domain.LineItem) *LineItemResponse {
		return &LineItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Product:   ProductFromDomain(item.Product),
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	})
}

// FullPaymentResponse represents a full payment.
type FullPaymentResponse struct {
	ID                 int64           `json:"id"`
	PurchaseAmount     decimal.Decimal `json:"purchaseAmount"`
	Discount           decimal.Decimal `json:"discount"`
	TotalAfterDiscount decimal.Decimal `json:"totalAfterDiscount"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// FullPaymentFromDomain converts a domain full payment to response.
func FullPaymentFromDomain(fp *domain.FullPayment) *FullPaymentResponse {
	if fp == nil {
		return nil
	}
	return &FullPaymentResponse{
		ID:                 fp.ID,
		PurchaseAmount:     fp.PurchaseAmount,
		Discount:           fp.Discount,
		TotalAfterDiscount: fp.TotalAfterDiscount(),
		CreatedAt:          fp.CreatedAt,
	}
}

// InstallmentResponse represents an installment.
type InstallmentResponse struct {
	ID              int64            `json:"id"`
	PlanID          int64            `json:"planId"`
	ExpectedPayment decimal.Decimal  `json:"expectedPayment"`
	ActualPayment   *decimal.Decimal `json:"actualPayment"`
	DueDate         string           `json:"dueDate"`
	PaidAt          *time.Time       `json:"paidAt"`
	Paid            bool             `json:"paid"`
}

// InstallmentFromDomain converts a domain installment to response.
func InstallmentFromDomain(i *domain.Installment) *InstallmentResponse {
	return &InstallmentResponse{
		ID:              i.ID,
		PlanID:          i.PlanID,
		ExpectedPayment: i.ExpectedPayment,
		ActualPayment:   i.ActualPayment,
		DueDate:         i.DueDate.Format(domain.DateLayout),
		PaidAt:          i.PaidAt,
		Paid:            i.IsPaid(),
	}
}

// InstallmentPlanResponse represents an installment plan.
type InstallmentPlanResponse struct {
	ID                int64                  `json:"id"`
	TotalPrice        decimal.Decimal        `json:"totalPrice"`
	DownPayment       decimal.Decimal        `json:"downPayment"`
	InstallmentPeriod int                    `json:"installmentPeriod"`
	RemainingPrice    decimal.Decimal        `json:"remainingPrice"`
	PaidSoFar         decimal.Decimal        `json:"paidSoFar"`
	Installments      []*InstallmentResponse `json:"installments"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

// PlanFromDomain converts a domain installment plan to response.
func PlanFromDomain(p *domain.InstallmentPlan) *InstallmentPlanResponse {
	if p == nil {
		return nil
	}
	return &InstallmentPlanResponse{
		ID:                p.ID,
		TotalPrice:        p.TotalPrice,
		DownPayment:       p.DownPayment,
		InstallmentPeriod: p.InstallmentPeriod,
		RemainingPrice:    p.RemainingPrice,
		PaidSoFar:         p.PaidSoFar(),
		Installments:      ListFromDomain(p.Installments, InstallmentFromDomain),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// PaymentResultResponse is the outcome of an installment payment.
type PaymentResultResponse struct {
	Installment *InstallmentResponse     `json:"installment"`
	Plan        *InstallmentPlanResponse `json:"plan"`
	Completed   bool                     `json:"completed"`
}

// PaymentResultFromUseCase converts a payment result to response.
func PaymentResultFromUseCase(r *usecase.PaymentResult) *PaymentResultResponse {
	return &PaymentResultResponse{
		Installment: InstallmentFromDomain(r.Installment),
		Plan:        PlanFromDomain(r.Plan),
		Completed:   r.Completed,
	}
}

// BookRecordResponse represents a book record.
type BookRecordResponse struct {
	ID          int64  `json:"id"`
	BookName    string `json:"bookName"`
	PageNumber  int    `json:"pageNumber"`
	Description string `json:"description,omitempty"`
}

// SaleResponse represents a sale in API responses.
type SaleResponse struct {
	ID              int64                    `json:"id"`
	CustomerID      int64                    `json:"customerId"`
	Customer        *CustomerResponse        `json:"customer,omitempty"`
	PaymentStatus   domain.PaymentStatus     `json:"paymentStatus"`
	PaymentOption   domain.PaymentOption     `json:"paymentOption"`
	Total           decimal.Decimal          `json:"total"`
	Items           []*LineItemResponse      `json:"items"`
	FullPayment     *FullPaymentResponse     `json:"fullPayment,omitempty"`
	InstallmentPlan *InstallmentPlanResponse `json:"installmentPlan,omitempty"`
	BookRecord      *BookRecordResponse      `json:"bookRecord,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
}

// SaleFromDomain converts a domain sale to response.
func SaleFromDomain(s *domain.Sale) *SaleResponse {
	resp := &SaleResponse{
		ID:              s.ID,
		CustomerID:      s.CustomerID,
		Customer:        CustomerFromDomain(s.Customer),
		PaymentStatus:   s.PaymentStatus,
		PaymentOption:   s.PaymentOption,
		Total:           s.Total(),
		Items:           lineItemsFromDomain(s.Items),
		FullPayment:     FullPaymentFromDomain(s.FullPayment),
		InstallmentPlan: PlanFromDomain(s.InstallmentPlan),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.BookRecord != nil {
		resp.BookRecord = &BookRecordResponse{
			ID:          s.BookRecord.ID,
			BookName:    s.BookRecord.BookName,
			PageNumber:  s.BookRecord.PageNumber,
			Description: s.BookRecord.Description,
		}
	}
	return resp
}

// PurchaseResponse represents a purchase in API responses.
type PurchaseResponse struct {
	ID              int64                    `json:"id"`
	CustomerID      int64                    `json:"customerId"`
	Customer        *CustomerResponse        `json:"customer,omitempty"`
	PaymentStatus   domain.PaymentStatus     `json:"paymentStatus"`
	PaymentOption   domain.PaymentOption     `json:"paymentOption"`
	Total           decimal.Decimal          `json:"total"`
	Items           []*LineItemResponse      `json:"items"`
	FullPayment     *FullPaymentResponse     `json:"fullPayment,omitempty"`
	InstallmentPlan *InstallmentPlanResponse `json:"installmentPlan,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
}

// PurchaseFromDomain converts a domain purchase to response.
func PurchaseFromDomain(p *domain.Purchase) *PurchaseResponse {
	return &PurchaseResponse{
		ID:              p.ID,
		CustomerID:      p.CustomerID,
		Customer:        CustomerFromDomain(p.Customer),
		PaymentStatus:   p.PaymentStatus,
		PaymentOption:   p.PaymentOption,
		Total:           p.Total(),
		Items:           lineItemsFromDomain(p.Items),
		FullPayment:     FullPaymentFromDomain(p.FullPayment),
		InstallmentPlan: PlanFromDomain(p.InstallmentPlan),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// CompanySummaryResponse aggregates one company.
type CompanySummaryResponse struct {
	CompanyID     int64           `json:"companyId"`
	CompanyName   string          `json:"companyName"`
	ProductCount  int             `json:"productCount"`
	TotalStock    int             `json:"totalStock"`
	SaleTotal     decimal.Decimal `json:"saleTotal"`
	PurchaseTotal decimal.Decimal `json:"purchaseTotal"`
}

// DashboardResponse is the shop overview.
type DashboardResponse struct {
	TotalRevenue        decimal.Decimal          `json:"totalRevenue"`
	PendingPaymentCount int                      `json:"pendingPaymentCount"`
	CompanyCount        int                      `json:"companyCount"`
	Companies           []CompanySummaryResponse `json:"companies"`
	OutOfStockProducts  []*ProductResponse       `json:"outOfStockProducts"`
	PendingSales        []*SaleResponse          `json:"pendingSales"`
	GeneratedAt         time.Time                `json:"generatedAt"`
}

// DashboardFromDomain converts the dashboard to response.
func DashboardFromDomain(d *domain.Dashboard) *DashboardResponse {
	companies := make([]CompanySummaryResponse, len(d.Companies))
	for i, c := range d.Companies {
		companies[i] = CompanySummaryResponse(c)
	}

	return &DashboardResponse{
		TotalRevenue:        d.TotalRevenue,
		PendingPaymentCount: d.PendingPaymentCount,
		CompanyCount:        d.CompanyCount,
		Companies:           companies,
		OutOfStockProducts:  ListFromDomain(d.OutOfStockProducts, ProductFromDomain),
		PendingSales:        ListFromDomain(d.PendingSales, SaleFromDomain),
		GeneratedAt:         d.GeneratedAt,
	}
}
