package identity

import (
	"context"

	"github.com/bissquit/rental-portal/internal/domain"
)

// Repository defines the credential store used by the identity module.
// CreateUser must return ErrEmailExists when the email is already taken.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
