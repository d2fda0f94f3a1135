package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a person the shop sells to or buys from.
type Customer struct {
	ID          int64
	FirstName   string
	LastName    string
	PhoneNumber string
	CNIC        string
	Address     *Address
	Sales       []*Sale
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName joins first and last name.
func (c *Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Validate checks customer fields, including the address if present.
func (c *Customer) Validate() error {
	ve := &ValidationError{}
	ValidateLength(ve, "firstName", "First name", c.FirstName, MinNameLength, MaxNameLength)

	if c.LastName != "" {
		ValidateLength(ve, "lastName", "Last name", c.LastName, 0, MaxNameLength)
	}

	if !IsValidPhone(c.PhoneNumber) {
		ve.Add("phoneNumber", "Phone number must look like 0300-1234567")
	}

	if !IsValidCNIC(c.CNIC) {
		ve.Add("CNIC", "CNIC must look like 12345-12345678")
	}

	if c.Address != nil {
		c.Address.validate(ve)
	}

	return ve.OrNil()
}

// Address is a customer's postal address.
type Address struct {
	ID         int64
	CustomerID int64
	District   string
	Tehsil     string
	City       string
	Detail     string
}

func (a *Address) validate(ve *ValidationError) {
	ValidateLength(ve, "address.district", "District", a.District, MinNameLength, MaxNameLength)
	ValidateLength(ve, "address.tehsil", "Tehsil", a.Tehsil, MinNameLength, MaxNameLength)
	ValidateLength(ve, "address.city", "City", a.City, MinNameLength, MaxNameLength)
	ValidateLength(ve, "address.detail", "Address detail", a.Detail, MinAddressDetail, 0)
}

// Company is a product brand.
type Company struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Category groups products by kind.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// DefaultCompanies are seeded on a fresh install.
var DefaultCompanies = []string{
	"Dawlance", "Haier", "Orient", "PEL", "Gree", "Kenwood", "Samsung", "LG",
	"Waves", "Super Asia", "Boss", "Changhong Ruba", "TCL", "Ecostar",
}

// DefaultCategories are seeded on a fresh install.
var DefaultCategories = []string{
	"Refrigerator", "Deep Freezer", "Air Conditioner", "LED TV",
	"Washing Machine", "Microwave Oven", "Water Dispenser", "Air Cooler",
}

// Product is a stocked item.
type Product struct {
	ID          int64
	CompanyID   int64
	Company     *Company
	CategoryID  int64
	Category    *Category
	Model       string
	Price       decimal.Decimal
	Stock       int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks model, price and stock. Stock must be positive when a
// product is first created.
func (p *Product) Validate(creating bool) error {
	ve := &ValidationError{}
	ValidateLength(ve, "model", "Model", p.Model, 1, MaxModelLength)
	ValidateMoney(ve, "price", "Price", p.Price)
	if p.Price.LessThan(decimal.NewFromInt(1)) {
		ve.Add("price", "Price must be at least 1")
	}

	switch {
	case p.Stock < 0:
		ve.Add("stock", "Stock cannot be negative")
	case creating && p.Stock < 1:
		ve.Add("stock", "Stock must be at least 1")
	}

	return ve.OrNil()
}

// HasStock reports whether qty units can be taken from stock.
func (p *Product) HasStock(qty int) bool {
	return p.Stock >= qty
}
