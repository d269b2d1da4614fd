package identity

import (
	"errors"

	"github.com/bissquit/rental-portal/internal/identity/jwt"
)

// Authentication errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidToken       = jwt.ErrTokenInvalid
)

// Hasher errors.
var (
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)
