package domain

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role represents the account type of a user.
type Role string

// User roles.
const (
	RoleOwner  Role = "OWNER"
	RoleTenant Role = "TENANT"
)

// legacyCustomerRole is what older web clients submit for tenants.
const legacyCustomerRole = "CUSTOMER"

// ErrUnknownRole is returned by ParseRole for values outside the role set.
var ErrUnknownRole = errors.New("unknown role")

var roleCaser = cases.Upper(language.Und)

// ParseRole converts a wire value into a Role. Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	switch v := roleCaser.String(strings.TrimSpace(s)); v {
	case string(RoleOwner):
		return RoleOwner, nil
	case string(RoleTenant), legacyCustomerRole:
		return RoleTenant, nil
	}
	return "", ErrUnknownRole
}

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleTenant:
		return true
	}
	return false
}

// User is an account record. Password holds the bcrypt secret, never plaintext.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicUser is the user profile exposed to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Phone string `json:"phone"`
}

// Public returns the client-facing view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Phone: u.Phone,
	}
}
