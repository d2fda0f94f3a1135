package dto

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// AddressRequest is a customer address.
type AddressRequest struct {
	District string `json:"district" validate:"required"`
	Tehsil   string `json:"tehsil"   validate:"required"`
	City     string `json:"city"     validate:"required"`
	Detail   string `json:"detail"   validate:"required"`
}

// CustomerRequest creates or updates a customer.
type CustomerRequest struct {
	FirstName   string          `json:"firstName"   validate:"required,max=255"`
	LastName    string          `json:"lastName"    validate:"max=255"`
	PhoneNumber string          `json:"phoneNumber" validate:"required"`
	CNIC        string          `json:"CNIC"        validate:"required"`
	Address     *AddressRequest `json:"address"`
}

// ToUseCaseInput converts to use case input.
func (r *CustomerRequest) ToUseCaseInput() usecase.CustomerInput {
	in := usecase.CustomerInput{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		PhoneNumber: r.PhoneNumber,
		CNIC:        r.CNIC,
	}
	if r.Address != nil {
		in.Address = &usecase.AddressInput{
			District: r.Address.District,
			Tehsil:   r.Address.Tehsil,
			City:     r.Address.City,
			Detail:   r.Address.Detail,
		}
	}
	return in
}

// NameRequest creates a company or category.
type NameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ProductRequest creates or updates a product.
type ProductRequest struct {
	CompanyName  string          `json:"companyName"  validate:"required"`
	CategoryName string          `json:"categoryName" validate:"required"`
	Model        string          `json:"model"        validate:"required,max=255"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"        validate:"gte=0"`
	Description  string          `json:"description"`
}

// ToUseCaseInput converts to use case input.
func (r *ProductRequest) ToUseCaseInput() usecase.ProductInput {
	return usecase.ProductInput{
		CompanyName:  r.CompanyName,
		CategoryName: r.CategoryName,
		Model:        r.Model,
		Price:        r.Price,
		Stock:        r.Stock,
		Description:  r.Description,
	}
}

// PaymentInfo decodes the payment union of a sale or purchase. The "option"
// field selects between a full payment and an installment plan.
type PaymentInfo struct {
	Info domain.PaymentInfo
}

type fullPaymentBody struct {
	PurchaseAmount decimal.Decimal `json:"purchaseAmount"`
	Discount       decimal.Decimal `json:"discount"`
}

type installmentPlanBody struct {
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	DownPayment       decimal.Decimal `json:"downPayment"`
	InstallmentPeriod int             `json:"installmentPeriod"`
	DueDate           string          `json:"dueDate"`
	ExpectedPayment   decimal.Decimal `json:"expectedPayment"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PaymentInfo) UnmarshalJSON(data []byte) error {
	var head struct {
		Option domain.PaymentOption `json:"option"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	switch head.Option {
	case domain.PaymentOptionFull:
		var body fullPaymentBody
		if err := json.Unmarshal(data, &body); err != nil {
			return err
		}
		p.Info = domain.FullPaymentInfo{PurchaseAmount: body.PurchaseAmount, Discount: body.Discount}
	case domain.PaymentOptionInstallment:
		var body installmentPlanBody
		if err := json.Unmarshal(data, &body); err != nil {
			return err
		}
		p.Info = body.toDomain()
	default:
		return fmt.Errorf("unknown payment option %q", head.Option)
	}

	return nil
}

func (b installmentPlanBody) toDomain() domain.InstallmentPlanInfo {
	return domain.InstallmentPlanInfo{
		TotalPrice:        b.TotalPrice,
		DownPayment:       b.DownPayment,
		InstallmentPeriod: b.InstallmentPeriod,
		DueDate:           strings.TrimSpace(b.DueDate),
		ExpectedPayment:   b.ExpectedPayment,
	}
}

// LineItemRequest is one product line.
type LineItemRequest struct {
	ProductID int64           `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity"  validate:"gte=1"`
	Price     decimal.Decimal `json:"price"`
}

// BookRecordRequest points at the paper ledger page of a sale.
type BookRecordRequest struct {
	BookName    string `json:"bookName"    validate:"required"`
	PageNumber  int    `json:"pageNumber"  validate:"gte=0"`
	Description string `json:"description"`
}

// CreateSaleRequest records a sale.
type CreateSaleRequest struct {
	CustomerID    int64                `json:"customerId"    validate:"required"`
	PaymentOption domain.PaymentOption `json:"paymentOption"`
	PaymentInfo   *PaymentInfo         `json:"paymentInfo"`
	Items         []LineItemRequest    `json:"items"         validate:"required,min=1,dive"`
	BookRecord    *BookRecordRequest   `json:"bookRecord"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateSaleRequest) ToUseCaseInput() usecase.CreateSaleInput {
	in := usecase.CreateSaleInput{
		CustomerID:    r.CustomerID,
		PaymentOption: r.PaymentOption,
		Items:         lineItems(r.Items),
	}
	if r.PaymentInfo != nil {
		in.PaymentInfo = r.PaymentInfo.Info
	}
	if r.BookRecord != nil {
		in.BookRecord = &usecase.BookRecordInput{
			BookName:    r.BookRecord.BookName,
			PageNumber:  r.BookRecord.PageNumber,
			Description: r.BookRecord.Description,
		}
	}
	return in
}

// CreatePurchaseRequest records goods bought for stock.
type CreatePurchaseRequest struct {
	CustomerID    int64                `json:"customerId"    validate:"required"`
	PaymentOption domain.PaymentOption `json:"paymentOption"`
	PaymentInfo   *PaymentInfo         `json:"paymentInfo"`
	Items         []LineItemRequest    `json:"items"         validate:"required,min=1,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePurchaseRequest) ToUseCaseInput() usecase.CreatePurchaseInput {
	in := usecase.CreatePurchaseInput{
		CustomerID:    r.CustomerID,
		PaymentOption: r.PaymentOption,
		Items:         lineItems(r.Items),
	}
	if r.PaymentInfo != nil {
		in.PaymentInfo = r.PaymentInfo.Info
	}
	return in
}

func lineItems(items []LineItemRequest) []usecase.LineItemInput {
	out := make([]usecase.LineItemInput, len(items))
	for i, item := range items {
		out[i] = usecase.LineItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}
	return out
}

// FullPaymentRequest settles an existing sale or purchase in one shot.
type FullPaymentRequest struct {
	PurchaseAmount decimal.Decimal `json:"purchaseAmount"`
	Discount       decimal.Decimal `json:"discount"`
}

// ToUseCaseInput converts to use case input.
func (r *FullPaymentRequest) ToUseCaseInput(parent domain.Parent) usecase.RecordFullPaymentInput {
	return usecase.RecordFullPaymentInput{
		Parent:         parent,
		PurchaseAmount: r.PurchaseAmount,
		Discount:       r.Discount,
	}
}

// InstallmentPlanRequest opens an installment plan on an existing sale.
type InstallmentPlanRequest struct {
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	DownPayment       decimal.Decimal `json:"downPayment"`
	InstallmentPeriod int             `json:"installmentPeriod" validate:"gte=0"`
	DueDate           string          `json:"dueDate"           validate:"required"`
	ExpectedPayment   decimal.Decimal `json:"expectedPayment"`
}

// ToUseCaseInput converts to use case input.
func (r *InstallmentPlanRequest) ToUseCaseInput(parent domain.Parent) usecase.CreateInstallmentPlanInput {
	body := installmentPlanBody(*r)
	return usecase.CreateInstallmentPlanInput{Parent: parent, Info: body.toDomain()}
}

// ScheduleInstallmentRequest adds an installment to a plan.
type ScheduleInstallmentRequest struct {
	PlanID          int64           `json:"planId"  validate:"required"`
	ExpectedPayment decimal.Decimal `json:"expectedPayment"`
	DueDate         string          `json:"dueDate" validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *ScheduleInstallmentRequest) ToUseCaseInput(parent domain.Parent) usecase.ScheduleInstallmentInput {
	return usecase.ScheduleInstallmentInput{
		PlanID:          r.PlanID,
		Parent:          parent,
		ExpectedPayment: r.ExpectedPayment,
		DueDate:         r.DueDate,
	}
}

// RecordPaymentRequest records the actual payment of an installment.
type RecordPaymentRequest struct {
	ActualPayment decimal.Decimal `json:"actualPayment"`
	DueDate       string          `json:"dueDate" validate:"required"`
	PaidAt        string          `json:"paidAt"  validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordPaymentRequest) ToUseCaseInput(installmentID int64) usecase.RecordInstallmentPaymentInput {
	return usecase.RecordInstallmentPaymentInput{
		InstallmentID: installmentID,
		ActualPayment: r.ActualPayment,
		DueDate:       r.DueDate,
		PaidAt:        r.PaidAt,
	}
}
