package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// BookingStatus represents the review state of a booking request.
type BookingStatus string

// Booking statuses.
const (
	BookingStatusPending  BookingStatus = "PENDING"
	BookingStatusApproved BookingStatus = "APPROVED"
	BookingStatusRejected BookingStatus = "REJECTED"
)

// IsValid checks if the booking status is valid.
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected:
		return true
	}
	return false
}

// dateLayout is the ISO calendar date used for booking dates on the wire.
const dateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Booking represents a tenant's request to rent a property.
// Bookings are accepted regardless of date overlap with other bookings.
type Booking struct {
	ID            int64         `json:"id"`
	PropertyID    int64         `json:"propertyId"`
	CustomerName  string        `json:"customerName"`
	CustomerEmail string        `json:"customerEmail"`
	CustomerPhone string        `json:"customerPhone"`
	CheckInDate   Date          `json:"checkInDate"`
	CheckOutDate  Date          `json:"checkOutDate"`
	Status        BookingStatus `json:"status"`
	BookingDate   Date          `json:"bookingDate"`
}

// BookingWithProperty pairs a booking with the property it refers to.
// Property is nil when the property no longer exists.
type BookingWithProperty struct {
	Booking  Booking   `json:"booking"`
	Property *Property `json:"property"`
}
