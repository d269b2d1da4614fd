package listings

import (
	"context"
	"errors"

	"github.com/bissquit/rental-portal/internal/domain"
)

// ErrPropertyNotFound is returned when a property does not exist.
var ErrPropertyNotFound = errors.New("property not found")

// Repository defines the interface for property data operations.
type Repository interface {
	CreateProperty(ctx context.Context, property *domain.Property) error
	GetProperty(ctx context.Context, id int64) (*domain.Property, error)
	GetProperties(ctx context.Context, ids []int64) ([]domain.Property, error)
	ListProperties(ctx context.Context, filter PropertyFilter) ([]domain.Property, error)
	UpdateProperty(ctx context.Context, property *domain.Property) error
	DeleteProperty(ctx context.Context, id int64) error
}

// PropertyFilter represents filter criteria for listing properties.
type PropertyFilter struct {
	OwnerName *string
}
