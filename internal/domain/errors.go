package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is wrapped by every "record does not exist" error.
var ErrNotFound = errors.New("not found")

var (
	// Catalog errors
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	ErrCompanyNotFound  = fmt.Errorf("company %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)

	// Trade errors
	ErrSaleNotFound     = fmt.Errorf("sale %w", ErrNotFound)
	ErrPurchaseNotFound = fmt.Errorf("purchase %w", ErrNotFound)

	// Ledger errors
	ErrInstallmentPlanNotFound = fmt.Errorf("installment plan %w", ErrNotFound)
	ErrInstallmentNotFound     = fmt.Errorf("installment %w", ErrNotFound)
)

// Ledger validation messages.
const (
	MsgPaymentExceedsRemaining = "actual payment must be less than remaining price"
	MsgPlanAlreadyCompleted    = "installment plan is already fully paid"
	MsgInstallmentAlreadyPaid  = "installment is already paid"
	MsgPaymentAlreadyRecorded  = "payment information is already recorded"
	MsgPaymentOptionMismatch   = "payment option does not match"
	MsgPlanParentMismatch      = "installment plan does not belong to this transaction"
	MsgNotEnoughStock          = "not enough stock present"
)

// ValidationError reports malformed or out-of-range input, keyed by field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a message for field, keeping the first message per field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns e as an error only if it holds field errors.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
