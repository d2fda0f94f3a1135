package usecase

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
)

// LineItemInput is one product line of a sale or purchase.
type LineItemInput struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// Page is a slice of results plus the total row count.
type Page[T any] struct {
	Items []T
	Total int
	Page  int
	Size  int
}

func validateItems(ve *domain.ValidationError, items []LineItemInput) {
	if len(items) == 0 {
		ve.Add("items", "At least one product is required")
		return
	}

	for i, item := range items {
		prefix := fmt.Sprintf("items[%d].", i)
		if item.ProductID == 0 {
			ve.Add(prefix+"productId", "Product is required")
		}
		if item.Quantity < 1 {
			ve.Add(prefix+"quantity", "Quantity must be at least 1")
		}
		domain.ValidateMoney(ve, prefix+"price", "Price", item.Price)
	}
}

// resolveOption picks the payment option from info when present, rejecting
// a conflicting explicit option.
func resolveOption(ve *domain.ValidationError, option domain.PaymentOption, info domain.PaymentInfo) domain.PaymentOption {
	if info != nil {
		if option != "" && option != info.Option() {
			ve.Add("paymentOption", domain.MsgPaymentOptionMismatch)
		}
		if err := info.Validate(); err != nil {
			if infoErr, ok := err.(*domain.ValidationError); ok {
				for field, msg := range infoErr.Fields {
					ve.Add("paymentInfo."+field, msg)
				}
			}
		}
		return info.Option()
	}

	if !option.IsValid() {
		ve.Add("paymentOption", "Payment option must be FULL_PAYMENT or INSTALLMENT")
	}
	return option
}

// quantitiesByProduct sums quantities per product and returns sorted ids so
// row locks are always taken in the same order.
func quantitiesByProduct(items []LineItemInput) (map[int64]int, []int64) {
	qty := make(map[int64]int, len(items))
	for _, item := range items {
		qty[item.ProductID] += item.Quantity
	}

	ids := make([]int64, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return qty, ids
}

func toLineItems(items []LineItemInput) []*domain.LineItem {
	out := make([]*domain.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, &domain.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return out
}
