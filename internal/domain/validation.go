package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ErrInvalidDate is returned by ParseDate for unparseable input.
var ErrInvalidDate = errors.New("invalid date")

// Validation constants
const (
	MinNameLength    = 4
	MaxNameLength    = 255
	MinAddressDetail = 4
	MaxModelLength   = 255
	DefaultPageSize  = 10
	MaxPageSize      = 100
)

// DateLayout is the calendar date format accepted for due dates.
const DateLayout = "2006-01-02"

// MaxMoney is the largest amount a NUMERIC(20, 0) column holds.
var MaxMoney = decimal.RequireFromString("99999999999999999999")

var (
	phoneRegex = regexp.MustCompile(`^\d{4}-\d{7}$`)
	cnicRegex  = regexp.MustCompile(`^\d{5}-\d{8}$`)
)

// ParseDate accepts either a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	return time.Time{}, ErrInvalidDate
}

// ValidateMoney records an error on ve when amount is negative, fractional or
// above MaxMoney. label is the human name used in the message.
func ValidateMoney(ve *ValidationError, field, label string, amount decimal.Decimal) {
	if amount.IsNegative() {
		ve.Add(field, label+" cannot be negative")
		return
	}
	if !amount.IsInteger() {
		ve.Add(field, label+" must be a whole amount")
		return
	}
	if amount.GreaterThan(MaxMoney) {
		ve.Add(field, label+" is too large")
	}
}

// ValidateLength records an error when s is outside [min, max] runes.
// A max of zero means unbounded.
func ValidateLength(ve *ValidationError, field, label, s string, min, max int) {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n < min {
		ve.Add(field, label+" is too short")
		return
	}
	if max > 0 && n > max {
		ve.Add(field, label+" is too long")
	}
}

// IsValidPhone reports whether s looks like 0300-1234567.
func IsValidPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// IsValidCNIC reports whether s looks like 12345-12345678.
func IsValidCNIC(s string) bool {
	return cnicRegex.MatchString(s)
}

// ValidatePagination clamps page and size to sane bounds.
func ValidatePagination(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Offset converts a 1-based page into a row offset.
func Offset(page, size int) int {
	return (page - 1) * size
}
