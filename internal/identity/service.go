// Package identity provides account registration, login and session tokens.
package identity

import (
	"context"
	"errors"

	"github.com/bissquit/rental-portal/internal/domain"
	"github.com/bissquit/rental-portal/internal/identity/jwt"
	"github.com/bissquit/rental-portal/internal/pkg/ctxlog"
	"github.com/bissquit/rental-portal/internal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// TokenIssuer mints and verifies session tokens.
type TokenIssuer interface {
	Issue(subject, role, name string) (string, error)
	Verify(token string) (*jwt.Claims, error)
	ExtractSubject(token string) (string, error)
}

// Service implements identity business logic.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	tokens TokenIssuer
}

// NewService creates a new identity service.
func NewService(repo Repository, hasher PasswordHasher, tokens TokenIssuer) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
	}
}

// RegisterInput holds data for creating an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     string
}

// LoginInput holds login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	Token string
	User  domain.PublicUser
}

// Register creates an account and returns a session token for it.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	result, err := s.register(ctx, input)
	recordAttempt("register", err)
	return result, err
}

func (s *Service) register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	// Early exit only; the unique index on email is authoritative.
	exists, err := s.repo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, oops.Code("IDENTITY_STORE_FAILED").
			With("operation", "check email").
			Wrap(err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, oops.Code("IDENTITY_HASH_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := &domain.User{
		ID:       uuid.NewString(),
		Name:     input.Name,
		Email:    input.Email,
		Password: hash,
		Phone:    input.Phone,
		Role:     role,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, oops.Code("IDENTITY_STORE_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	ctxlog.FromContext(ctx).Info("user registered",
		"user_id", user.ID,
		"role", user.Role,
	)

	return s.authenticate(user)
}

// Login verifies credentials and returns a session token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	result, err := s.login(ctx, input)
	recordAttempt("login", err)
	return result, err
}

func (s *Service) login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, oops.Code("IDENTITY_STORE_FAILED").
				With("operation", "get user by email").
				Wrap(err)
		}
		// Spend the same hashing time as for an existing account.
		_, _ = s.hasher.Compare(ctx, s.hasher.DummyHash(), input.Password) //nolint:errcheck // result is discarded
		ctxlog.FromContext(ctx).Info("login failed", "reason", "user not found")
		return nil, ErrUserNotFound
	}

	ok, err := s.hasher.Compare(ctx, user.Password, input.Password)
	if err != nil {
		return nil, oops.Code("IDENTITY_HASH_FAILED").
			With("operation", "compare password").
			With("user_id", user.ID).
			Wrap(err)
	}
	if !ok {
		ctxlog.FromContext(ctx).Info("login failed", "reason", "invalid password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.authenticate(user)
}

// VerifyToken checks a session token and returns its claims.
func (s *Service) VerifyToken(_ context.Context, token string) (*jwt.Claims, error) {
	return s.tokens.Verify(token)
}

// SubjectFromToken returns the email of a verified session token.
func (s *Service) SubjectFromToken(_ context.Context, token string) (string, error) {
	return s.tokens.ExtractSubject(token)
}

func (s *Service) authenticate(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.Email, string(user.Role), user.Name)
	if err != nil {
		return nil, oops.Code("IDENTITY_TOKEN_FAILED").
			With("operation", "issue token").
			With("user_id", user.ID).
			Wrap(err)
	}

	return &AuthResult{
		Token: token,
		User:  user.Public(),
	}, nil
}

func recordAttempt(operation string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrEmailExists):
		outcome = "duplicate"
	case errors.Is(err, ErrInvalidRole):
		outcome = "invalid_role"
	case errors.Is(err, ErrPasswordTooLong):
		outcome = "invalid_password"
	case errors.Is(err, ErrUserNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrInvalidCredentials):
		outcome = "invalid_credentials"
	default:
		outcome = "error"
	}
	metrics.AuthAttempts.WithLabelValues(operation, outcome).Inc()
}
