// Package bookings provides booking requests against rental properties.
package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/rental-portal/internal/domain"
	"github.com/bissquit/rental-portal/internal/pkg/ctxlog"
	"github.com/bissquit/rental-portal/internal/pkg/metrics"
)

// PropertyResolver looks up the properties bookings refer to.
type PropertyResolver interface {
	ListByOwner(ctx context.Context, ownerName string) ([]domain.Property, error)
	GetProperties(ctx context.Context, ids []int64) (map[int64]*domain.Property, error)
}

// Service implements booking business logic.
type Service struct {
	repo       Repository
	properties PropertyResolver
	now        func() time.Time
}

// NewService creates a new bookings service.
func NewService(repo Repository, properties PropertyResolver) *Service {
	return &Service{
		repo:       repo,
		properties: properties,
		now:        time.Now,
	}
}

// CreateBookingInput holds data for a booking request.
type CreateBookingInput struct {
	PropertyID    int64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CheckInDate   domain.Date
	CheckOutDate  domain.Date
}

// CreateBooking records a pending booking dated today.
// Overlapping bookings for the same property are accepted.
func (s *Service) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.CheckOutDate.Before(input.CheckInDate.Time) {
		return nil, ErrInvalidDates
	}

	booking := &domain.Booking{
		PropertyID:    input.PropertyID,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
		CheckInDate:   input.CheckInDate,
		CheckOutDate:  input.CheckOutDate,
		Status:        domain.BookingStatusPending,
		BookingDate:   domain.NewDate(s.now()),
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.BookingsCreated.Inc()
	ctxlog.FromContext(ctx).Info("booking created",
		"booking_id", booking.ID,
		"property_id", booking.PropertyID,
	)
	return booking, nil
}

// CustomerBookings returns the bookings made with email, each with its property.
func (s *Service) CustomerBookings(ctx context.Context, email string) ([]domain.BookingWithProperty, error) {
	bookings, err := s.repo.ListBookings(ctx, BookingFilter{CustomerEmail: &email})
	if err != nil {
		return nil, fmt.Errorf("list customer bookings: %w", err)
	}
	return s.withProperties(ctx, bookings)
}

// OwnerBookings returns the bookings of every property owned by ownerName.
func (s *Service) OwnerBookings(ctx context.Context, ownerName string) ([]domain.BookingWithProperty, error) {
	owned, err := s.properties.ListByOwner(ctx, ownerName)
	if err != nil {
		return nil, fmt.Errorf("list owner properties: %w", err)
	}
	if len(owned) == 0 {
		return []domain.BookingWithProperty{}, nil
	}

	ids := make([]int64, 0, len(owned))
	for _, p := range owned {
		ids = append(ids, p.ID)
	}

	bookings, err := s.repo.ListBookings(ctx, BookingFilter{PropertyIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("list owner bookings: %w", err)
	}
	return s.withProperties(ctx, bookings)
}

// UpdateStatus sets the status of a booking. status is case-insensitive.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Booking, error) {
	parsed := domain.BookingStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !parsed.IsValid() {
		return nil, ErrInvalidStatus
	}

	booking, err := s.repo.UpdateStatus(ctx, id, parsed)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("booking status changed",
		"booking_id", id,
		"status", parsed,
	)
	return booking, nil
}

// withProperties pairs each booking with its property, nil when deleted.
func (s *Service) withProperties(ctx context.Context, bookings []domain.Booking) ([]domain.BookingWithProperty, error) {
	seen := make(map[int64]bool, len(bookings))
	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		if !seen[b.PropertyID] {
			seen[b.PropertyID] = true
			ids = append(ids, b.PropertyID)
		}
	}

	properties, err := s.properties.GetProperties(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve booking properties: %w", err)
	}

	result := make([]domain.BookingWithProperty, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, domain.BookingWithProperty{
			Booking:  b,
			Property: properties[b.PropertyID],
		})
	}
	return result, nil
}
