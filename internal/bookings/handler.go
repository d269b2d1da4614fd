package bookings

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bissquit/rental-portal/internal/domain"
	"github.com/bissquit/rental-portal/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the bookings module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new bookings handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers booking routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.CreateBooking)
		r.Get("/customer/{email}", h.ListCustomerBookings)
		r.Get("/owner/{ownerName}", h.ListOwnerBookings)
		r.Put("/{id}/status", h.UpdateStatus)
	})
}

// CreateBookingRequest represents the request body for creating a booking.
type CreateBookingRequest struct {
	PropertyID    int64        `json:"propertyId" validate:"required,gt=0"`
	CustomerName  string       `json:"customerName" validate:"required,max=255"`
	CustomerEmail string       `json:"customerEmail" validate:"required,email,max=320"`
	CustomerPhone string       `json:"customerPhone" validate:"required,max=32"`
	CheckInDate   *domain.Date `json:"checkInDate" validate:"required"`
	CheckOutDate  *domain.Date `json:"checkOutDate" validate:"required"`
}

// ToInput converts the request to service input.
func (r *CreateBookingRequest) ToInput() CreateBookingInput {
	return CreateBookingInput{
		PropertyID:    r.PropertyID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		CheckInDate:   *r.CheckInDate,
		CheckOutDate:  *r.CheckOutDate,
	}
}

// UpdateStatusRequest represents the request body for changing a booking status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateBooking handles POST /bookings request.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), req.ToInput())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, booking)
}

// ListCustomerBookings handles GET /bookings/customer/{email} request.
func (h *Handler) ListCustomerBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.CustomerBookings(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, bookings)
}

// ListOwnerBookings handles GET /bookings/owner/{ownerName} request.
func (h *Handler) ListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.OwnerBookings(r.Context(), chi.URLParam(r, "ownerName"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, bookings)
}

// UpdateStatus handles PUT /bookings/{id}/status request.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.Error(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, booking)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		httputil.NotFound(ErrBookingNotFound),
		{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
		{Error: ErrInvalidDates, Status: http.StatusBadRequest},
	})
}
