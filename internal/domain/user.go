package domain

import "errors"

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access to all operations
	RoleAdmin Role = "admin"

	// RoleCashier records sales, purchases and payments
	RoleCashier Role = "cashier"

	// RoleViewer can only view resources, no mutations
	RoleViewer Role = "viewer"
)

var validRoles = map[Role]bool{
	RoleAdmin:   true,
	RoleCashier: true,
	RoleViewer:  true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanWrite checks if the role can create or change records
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleCashier
}

// CanManageCatalog checks if the role can edit companies, categories and products
func (r Role) CanManageCatalog() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
