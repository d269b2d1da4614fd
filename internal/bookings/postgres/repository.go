// Package postgres provides PostgreSQL implementation of the bookings repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/rental-portal/internal/bookings"
	"github.com/bissquit/rental-portal/internal/domain"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, property_id, customer_name, customer_email, customer_phone,
	check_in_date, check_out_date, status, booking_date`

// querier is satisfied by *pgxpool.Pool and pgxmock pools.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements bookings.Repository using PostgreSQL.
type Repository struct {
	db querier
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db querier) *Repository {
	return &Repository{db: db}
}

// CreateBooking inserts a booking and sets its ID.
func (r *Repository) CreateBooking(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (property_id, customer_name, customer_email, customer_phone,
		                      check_in_date, check_out_date, status, booking_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		b.PropertyID,
		b.CustomerName,
		b.CustomerEmail,
		b.CustomerPhone,
		b.CheckInDate.Time,
		b.CheckOutDate.Time,
		b.Status,
		b.BookingDate.Time,
	).Scan(&b.ID)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// ListBookings retrieves bookings matching filter ordered by ID.
func (r *Repository) ListBookings(ctx context.Context, filter bookings.BookingFilter) ([]domain.Booking, error) {
	var (
		query string
		arg   any
	)
	switch {
	case filter.CustomerEmail != nil:
		query = `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_email = $1 ORDER BY id`
		arg = *filter.CustomerEmail
	case len(filter.PropertyIDs) > 0:
		query = `SELECT ` + bookingColumns + ` FROM bookings WHERE property_id = ANY($1) ORDER BY id`
		arg = filter.PropertyIDs
	default:
		return []domain.Booking{}, nil
	}

	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return result, nil
}

// UpdateStatus sets a booking status and returns the updated booking.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	query := `UPDATE bookings SET status = $2 WHERE id = $1 RETURNING ` + bookingColumns

	b, err := scanBooking(r.db.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bookings.ErrBookingNotFound
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	return b, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b                           domain.Booking
		checkIn, checkOut, bookedOn time.Time
	)
	err := row.Scan(
		&b.ID,
		&b.PropertyID,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.CustomerPhone,
		&checkIn,
		&checkOut,
		&b.Status,
		&bookedOn,
	)
	if err != nil {
		return nil, err
	}

	b.CheckInDate = domain.NewDate(checkIn)
	b.CheckOutDate = domain.NewDate(checkOut)
	b.BookingDate = domain.NewDate(bookedOn)
	return &b, nil
}
