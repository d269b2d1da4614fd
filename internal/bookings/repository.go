package bookings

import (
	"context"
	"errors"

	"github.com/bissquit/rental-portal/internal/domain"
)

// Booking errors.
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidStatus   = errors.New("invalid booking status")
	ErrInvalidDates    = errors.New("check-out date is before check-in date")
)

// Repository defines the interface for booking data operations.
type Repository interface {
	CreateBooking(ctx context.Context, booking *domain.Booking) error
	ListBookings(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error)
}

// BookingFilter represents filter criteria for listing bookings.
// An empty filter matches nothing.
type BookingFilter struct {
	CustomerEmail *string
	PropertyIDs   []int64
}
