package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bissquit/rental-portal/internal/domain"
	"github.com/bissquit/rental-portal/internal/pkg/ctxlog"
	"github.com/bissquit/rental-portal/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Response messages.
const (
	msgRegistered      = "User registered successfully"
	msgLoggedIn        = "Login successful"
	msgEmailExists     = "Email already exists"
	msgUserNotFound    = "User not found"
	msgInvalidPassword = "Invalid password"
	msgInvalidRole     = "Invalid role"
	msgPasswordTooLong = "Invalid Password: maxbytes"
	msgInvalidJSON     = "Invalid request body"
	msgTokenValid      = "Token is valid"
	msgTokenInvalid    = "Invalid or expired token"
	msgInternal        = "internal error"
)

// Handler handles HTTP requests for the identity module.
// Logical failures are reported with HTTP 200 and success=false.
type Handler struct {
	service   *Service
	validator *validator.Validate
	throttle  func(http.Handler) http.Handler
}

// NewHandler creates a new identity handler. throttle, if not nil, wraps the
// signup and login routes.
func NewHandler(service *Service, throttle func(http.Handler) http.Handler) *Handler {
	v := validator.New()
	_ = v.RegisterValidation("maxbytes", validateMaxBytes) //nolint:errcheck // tag and func are static

	return &Handler{
		service:   service,
		validator: v,
		throttle:  throttle,
	}
}

// validateMaxBytes limits the encoded length of a string field. The builtin
// max tag counts runes, bcrypt counts bytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// RegisterRoutes registers identity routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.throttle != nil {
				r.Use(h.throttle)
			}
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
		})
		r.Post("/verify", h.Verify)
	})
}

// AuthResponse is the response body of signup and login.
type AuthResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Token   string             `json:"token,omitempty"`
	User    *domain.PublicUser `json:"user,omitempty"`
}

// SignupRequest represents signup request body.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,maxbytes=72"`
	Phone    string `json:"phone" validate:"required,max=32"`
	Role     string `json:"role" validate:"required"`
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondFailure(w, msgInvalidJSON)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respondFailure(w, validationMessage(err))
		return
	}

	result, err := h.service.Register(r.Context(), RegisterInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondAuth(w, msgRegistered, result)
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondFailure(w, msgInvalidJSON)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respondFailure(w, validationMessage(err))
		return
	}

	result, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondAuth(w, msgLoggedIn, result)
}

// VerifyRequest represents token introspection request body.
type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

// TokenClaims describes a verified session token.
type TokenClaims struct {
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyResponse is the response body of token introspection.
type VerifyResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Claims  *TokenClaims `json:"claims,omitempty"`
}

// Verify handles POST /auth/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondFailure(w, msgInvalidJSON)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respondFailure(w, validationMessage(err))
		return
	}

	claims, err := h.service.VerifyToken(r.Context(), req.Token)
	if err != nil {
		ctxlog.FromContext(r.Context()).Debug("token rejected", "error", err)
		httputil.JSON(w, http.StatusOK, VerifyResponse{Message: msgTokenInvalid})
		return
	}

	resp := VerifyResponse{
		Success: true,
		Message: msgTokenValid,
		Claims: &TokenClaims{
			Subject: claims.Subject,
			Role:    claims.Role,
			Name:    claims.Name,
		},
	}
	if claims.IssuedAt != nil {
		resp.Claims.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		resp.Claims.ExpiresAt = claims.ExpiresAt.UTC()
	}

	httputil.JSON(w, http.StatusOK, resp)
}

func (h *Handler) respondAuth(w http.ResponseWriter, message string, result *AuthResult) {
	user := result.User
	httputil.JSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: message,
		Token:   result.Token,
		User:    &user,
	})
}

func (h *Handler) respondFailure(w http.ResponseWriter, message string) {
	httputil.JSON(w, http.StatusOK, AuthResponse{Message: message})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrEmailExists):
		h.respondFailure(w, msgEmailExists)
	case errors.Is(err, ErrUserNotFound):
		h.respondFailure(w, msgUserNotFound)
	case errors.Is(err, ErrInvalidCredentials):
		h.respondFailure(w, msgInvalidPassword)
	case errors.Is(err, ErrInvalidRole):
		h.respondFailure(w, msgInvalidRole)
	case errors.Is(err, ErrPasswordTooLong):
		h.respondFailure(w, msgPasswordTooLong)
	default:
		ctxlog.FromContext(r.Context()).Error("internal error", "error", err)
		httputil.JSON(w, http.StatusInternalServerError, AuthResponse{Message: msgInternal})
	}
}

// validationMessage describes the first failed field of a validation error.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		return fmt.Sprintf("Invalid %s: %s", e.Field(), e.Tag())
	}
	return "Invalid request"
}
