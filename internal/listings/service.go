// Package listings provides rental property listings.
package listings

import (
	"context"
	"fmt"

	"github.com/bissquit/rental-portal/internal/domain"
	"github.com/bissquit/rental-portal/internal/pkg/ctxlog"
)

// Service implements property business logic.
type Service struct {
	repo Repository
}

// NewService creates a new listings service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// PropertyInput holds the writable fields of a property.
type PropertyInput struct {
	Title       string
	Description string
	Address     string
	MonthlyRent float64
	Bedrooms    int
	Bathrooms   int
	OwnerName   string
	ImageURL    *string
}

// ListProperties returns every property.
func (s *Service) ListProperties(ctx context.Context) ([]domain.Property, error) {
	properties, err := s.repo.ListProperties(ctx, PropertyFilter{})
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return properties, nil
}

// ListByOwner returns the properties of the named owner.
func (s *Service) ListByOwner(ctx context.Context, ownerName string) ([]domain.Property, error) {
	properties, err := s.repo.ListProperties(ctx, PropertyFilter{OwnerName: &ownerName})
	if err != nil {
		return nil, fmt.Errorf("list properties by owner: %w", err)
	}
	return properties, nil
}

// GetProperty returns a property by id.
func (s *Service) GetProperty(ctx context.Context, id int64) (*domain.Property, error) {
	return s.repo.GetProperty(ctx, id)
}

// GetProperties returns the existing properties among ids, keyed by id.
func (s *Service) GetProperties(ctx context.Context, ids []int64) (map[int64]*domain.Property, error) {
	result := make(map[int64]*domain.Property, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	properties, err := s.repo.GetProperties(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get properties: %w", err)
	}
	for i := range properties {
		result[properties[i].ID] = &properties[i]
	}
	return result, nil
}

// CreateProperty stores a new property.
func (s *Service) CreateProperty(ctx context.Context, input PropertyInput) (*domain.Property, error) {
	property := &domain.Property{}
	input.apply(property)
	property.ImageURL = input.ImageURL

	if err := s.repo.CreateProperty(ctx, property); err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}

	ctxlog.FromContext(ctx).Info("property created",
		"property_id", property.ID,
		"owner", property.OwnerName,
	)
	return property, nil
}

// UpdateProperty replaces the fields of a property.
// The image is kept unless input carries a new one.
func (s *Service) UpdateProperty(ctx context.Context, id int64, input PropertyInput) (*domain.Property, error) {
	property, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	input.apply(property)
	if input.ImageURL != nil {
		property.ImageURL = input.ImageURL
	}

	if err := s.repo.UpdateProperty(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

// DeleteProperty removes a property. Its bookings are kept.
func (s *Service) DeleteProperty(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProperty(ctx, id); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("property deleted", "property_id", id)
	return nil
}

func (in PropertyInput) apply(p *domain.Property) {
	p.Title = in.Title
	p.Description = in.Description
	p.Address = in.Address
	p.MonthlyRent = in.MonthlyRent
	p.Bedrooms = in.Bedrooms
	p.Bathrooms = in.Bathrooms
	p.OwnerName = in.OwnerName
}
