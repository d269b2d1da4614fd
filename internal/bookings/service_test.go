package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/rental-portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository is an in-memory Repository.
type mockRepository struct {
	mu       sync.Mutex
	bookings []domain.Booking
	listErr  error
}

func (m *mockRepository) CreateBooking(_ context.Context, b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = int64(len(m.bookings) + 1)
	m.bookings = append(m.bookings, *b)
	return nil
}

func (m *mockRepository) ListBookings(_ context.Context, filter BookingFilter) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}

	wanted := make(map[int64]bool, len(filter.PropertyIDs))
	for _, id := range filter.PropertyIDs {
		wanted[id] = true
	}

	result := make([]domain.Booking, 0)
	for _, b := range m.bookings {
		switch {
		case filter.CustomerEmail != nil && b.CustomerEmail == *filter.CustomerEmail:
			result = append(result, b)
		case filter.CustomerEmail == nil && wanted[b.PropertyID]:
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		if m.bookings[i].ID == id {
			m.bookings[i].Status = status
			b := m.bookings[i]
			return &b, nil
		}
	}
	return nil, ErrBookingNotFound
}

// mockResolver serves a fixed set of properties.
type mockResolver struct {
	properties map[int64]domain.Property
	err        error
}

func (m *mockResolver) ListByOwner(_ context.Context, ownerName string) ([]domain.Property, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []domain.Property
	for _, p := range m.properties {
		if p.OwnerName == ownerName {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockResolver) GetProperties(_ context.Context, ids []int64) (map[int64]*domain.Property, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := make(map[int64]*domain.Property)
	for _, id := range ids {
		if p, ok := m.properties[id]; ok {
			result[id] = &p
		}
	}
	return result, nil
}

func newResolver() *mockResolver {
	return &mockResolver{properties: map[int64]domain.Property{
		1: {ID: 1, Title: "Cottage", OwnerName: "Ann"},
		2: {ID: 2, Title: "Loft", OwnerName: "Ann"},
		3: {ID: 3, Title: "Cabin", OwnerName: "Bob"},
	}}
}

func mustDate(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func bookingInput(t *testing.T, propertyID int64, email string) CreateBookingInput {
	return CreateBookingInput{
		PropertyID:    propertyID,
		CustomerName:  "Tom",
		CustomerEmail: email,
		CustomerPhone: "555-0101",
		CheckInDate:   mustDate(t, "2026-07-01"),
		CheckOutDate:  mustDate(t, "2026-07-10"),
	}
}

func newTestService(repo Repository, resolver PropertyResolver) *Service {
	s := NewService(repo, resolver)
	s.now = func() time.Time { return time.Date(2026, 6, 15, 22, 30, 0, 0, time.UTC) }
	return s
}

func TestService_CreateBooking(t *testing.T) {
	repo := &mockRepository{}
	service := newTestService(repo, newResolver())

	booking, err := service.CreateBooking(context.Background(), bookingInput(t, 1, "tom@x.com"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), booking.ID)
	assert.Equal(t, domain.BookingStatusPending, booking.Status)
	assert.Equal(t, "2026-06-15", booking.BookingDate.String())
	assert.Len(t, repo.bookings, 1)
}

func TestService_CreateBooking_OverlapAccepted(t *testing.T) {
	repo := &mockRepository{}
	service := newTestService(repo, newResolver())

	for i := 0; i < 2; i++ {
		_, err := service.CreateBooking(context.Background(), bookingInput(t, 1, "tom@x.com"))
		require.NoError(t, err)
	}
	assert.Len(t, repo.bookings, 2)
}

func TestService_CreateBooking_InvalidDates(t *testing.T) {
	service := newTestService(&mockRepository{}, newResolver())

	input := bookingInput(t, 1, "tom@x.com")
	input.CheckOutDate = mustDate(t, "2026-06-30")

	_, err := service.CreateBooking(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidDates)
}

func TestService_CustomerBookings(t *testing.T) {
	repo := &mockRepository{}
	service := newTestService(repo, newResolver())

	_, err := service.CreateBooking(context.Background(), bookingInput(t, 1, "tom@x.com"))
	require.NoError(t, err)
	_, err = service.CreateBooking(context.Background(), bookingInput(t, 99, "tom@x.com"))
	require.NoError(t, err)
	_, err = service.CreateBooking(context.Background(), bookingInput(t, 1, "eve@x.com"))
	require.NoError(t, err)

	result, err := service.CustomerBookings(context.Background(), "tom@x.com")
	require.NoError(t, err)
	require.Len(t, result, 2)

	require.NotNil(t, result[0].Property)
	assert.Equal(t, "Cottage", result[0].Property.Title)
	assert.Nil(t, result[1].Property, "deleted property resolves to nil")
}

func TestService_OwnerBookings(t *testing.T) {
	repo := &mockRepository{}
	service := newTestService(repo, newResolver())

	for _, id := range []int64{1, 2, 3} {
		_, err := service.CreateBooking(context.Background(), bookingInput(t, id, "tom@x.com"))
		require.NoError(t, err)
	}

	result, err := service.OwnerBookings(context.Background(), "Ann")
	require.NoError(t, err)
	require.Len(t, result, 2)
	for _, bp := range result {
		assert.Equal(t, "Ann", bp.Property.OwnerName)
	}

	none, err := service.OwnerBookings(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestService_OwnerBookings_ResolverError(t *testing.T) {
	resolver := newResolver()
	resolver.err = errors.New("store unavailable")
	service := newTestService(&mockRepository{}, resolver)

	_, err := service.OwnerBookings(context.Background(), "Ann")
	assert.ErrorContains(t, err, "store unavailable")
}

func TestService_UpdateStatus(t *testing.T) {
	repo := &mockRepository{}
	service := newTestService(repo, newResolver())

	created, err := service.CreateBooking(context.Background(), bookingInput(t, 1, "tom@x.com"))
	require.NoError(t, err)

	updated, err := service.UpdateStatus(context.Background(), created.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusApproved, updated.Status)

	_, err = service.UpdateStatus(context.Background(), created.ID, "CANCELLED")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = service.UpdateStatus(context.Background(), 404, "REJECTED")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
