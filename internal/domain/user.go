package domain

import "time"

// User roles.
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

// Identity is a verified caller, produced by the auth middleware from a
// validated token. Handlers and services never see raw tokens.
type Identity struct {
	ID        string
	Name      string
	Email     string
	Role      string
	IsBlocked bool
	IssuedAt  time.Time
}

// User is the account record as read by the order subsystem. Account CRUD
// lives elsewhere; this subsystem only consults it.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	IsBlocked       bool      `json:"isBlocked"`
	IsDemoProtected bool      `json:"isDemoProtected"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ValidRoles returns all account roles.
func ValidRoles() []string {
	return []string{RoleCustomer, RoleVendor, RoleAdmin}
}
