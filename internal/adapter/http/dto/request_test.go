package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/emart/internal/domain"
)

func TestPaymentInfoDecodesFullPayment(t *testing.T) {
	var req CreateSaleRequest
	body := `{
		"customerId": 1,
		"paymentInfo": {"option": "FULL_PAYMENT", "purchaseAmount": "100000", "discount": 5000},
		"items": [{"productId": 2, "quantity": 1, "price": "100000"}]
	}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	info, ok := req.PaymentInfo.Info.(domain.FullPaymentInfo)
	require.True(t, ok, "expected FullPaymentInfo, got %T", req.PaymentInfo.Info)
	assert.True(t, info.PurchaseAmount.Equal(decimal.NewFromInt(100000)))
	assert.True(t, info.Discount.Equal(decimal.NewFromInt(5000)))

	in := req.ToUseCaseInput()
	assert.Equal(t, domain.PaymentOptionFull, in.PaymentInfo.Option())
	assert.Len(t, in.Items, 1)
}

func TestPaymentInfoDecodesInstallmentPlan(t *testing.T) {
	var p PaymentInfo
	body := `{"option":"INSTALLMENT","totalPrice":100000,"downPayment":20000,"installmentPeriod":8,"dueDate":" 2024-03-01 ","expectedPayment":10000}`
	require.NoError(t, json.Unmarshal([]byte(body), &p))

	info, ok := p.Info.(domain.InstallmentPlanInfo)
	require.True(t, ok)
	assert.Equal(t, 8, info.InstallmentPeriod)
	assert.Equal(t, "2024-03-01", info.DueDate)
	assert.True(t, info.DownPayment.Equal(decimal.NewFromInt(20000)))
}

func TestPaymentInfoRejectsUnknownOption(t *testing.T) {
	var p PaymentInfo
	assert.Error(t, json.Unmarshal([]byte(`{"option":"CREDIT"}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{}`), &p))
}

func TestValidateReportsJSONFieldPaths(t *testing.T) {
	req := CreateSaleRequest{
		Items: []LineItemRequest{{ProductID: 0, Quantity: 0}},
	}

	err := Validate(&req)
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "customerId")
	assert.Contains(t, ve.Fields, "items[0].productId")
	assert.Equal(t, "Must be greater than or equal to 1", ve.Fields["items[0].quantity"])
}

func TestValidateAcceptsCompleteRequest(t *testing.T) {
	req := CustomerRequest{
		FirstName:   "Bilal",
		PhoneNumber: "0300-1234567",
		CNIC:        "35202-12345678",
	}
	assert.NoError(t, Validate(&req))

	assert.Error(t, Validate(&NameRequest{}))
}

func TestInstallmentPlanRequestConversion(t *testing.T) {
	req := InstallmentPlanRequest{
		TotalPrice:        decimal.NewFromInt(100000),
		DownPayment:       decimal.NewFromInt(20000),
		InstallmentPeriod: 8,
		DueDate:           "2024-03-01",
		ExpectedPayment:   decimal.NewFromInt(10000),
	}

	in := req.ToUseCaseInput(domain.SaleParent(3))
	assert.Equal(t, domain.SaleParent(3), in.Parent)
	assert.Equal(t, 8, in.Info.InstallmentPeriod)
	assert.True(t, in.Info.TotalPrice.Equal(decimal.NewFromInt(100000)))
}
