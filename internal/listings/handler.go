package listings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bissquit/rental-portal/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Delete response messages.
const (
	msgPropertyDeleted  = "Property deleted successfully"
	msgPropertyNotFound = "Property not found"
)

// Handler handles HTTP requests for the listings module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new listings handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers property routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/properties", func(r chi.Router) {
		r.Get("/", h.ListProperties)
		r.Get("/owner/{ownerName}", h.ListOwnerProperties)
		r.Post("/owner", h.CreateProperty)
		r.Get("/{id}", h.GetProperty)
		r.Put("/{id}", h.UpdateProperty)
		r.Delete("/{id}", h.DeleteProperty)
	})
}

// PropertyRequest represents the request body for creating or updating a property.
type PropertyRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=1000"`
	Address     string  `json:"address" validate:"max=500"`
	MonthlyRent float64 `json:"monthlyRent" validate:"gte=0"`
	Bedrooms    int     `json:"bedrooms" validate:"gte=0"`
	Bathrooms   int     `json:"bathrooms" validate:"gte=0"`
	OwnerName   string  `json:"ownerName" validate:"max=255"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,max=2048"`
}

// DeleteResponse is the response body of property deletion.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListProperties handles GET /properties request.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.service.ListProperties(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, properties)
}

// ListOwnerProperties handles GET /properties/owner/{ownerName} request.
func (h *Handler) ListOwnerProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.service.ListByOwner(r.Context(), chi.URLParam(r, "ownerName"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, properties)
}

// CreateProperty handles POST /properties/owner request.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProperty(w, r)
	if !ok {
		return
	}

	property, err := h.service.CreateProperty(r.Context(), PropertyInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, property)
}

// GetProperty handles GET /properties/{id} request.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}

	property, err := h.service.GetProperty(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, property)
}

// UpdateProperty handles PUT /properties/{id} request.
func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeProperty(w, r)
	if !ok {
		return
	}

	property, err := h.service.UpdateProperty(r.Context(), id, PropertyInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, property)
}

// DeleteProperty handles DELETE /properties/{id} request.
// A missing property is reported in the body, not the status.
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}

	err := h.service.DeleteProperty(r.Context(), id)
	switch {
	case err == nil:
		httputil.JSON(w, http.StatusOK, DeleteResponse{Success: true, Message: msgPropertyDeleted})
	case errors.Is(err, ErrPropertyNotFound):
		httputil.JSON(w, http.StatusOK, DeleteResponse{Message: msgPropertyNotFound})
	default:
		h.handleServiceError(w, r, err)
	}
}

func (h *Handler) decodeProperty(w http.ResponseWriter, r *http.Request) (PropertyRequest, bool) {
	var req PropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return req, false
	}

	if req.ImageURL != nil && *req.ImageURL == "" {
		req.ImageURL = nil
	}
	return req, true
}

func propertyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.Error(w, http.StatusBadRequest, "invalid property id")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		httputil.NotFound(ErrPropertyNotFound),
	})
}
