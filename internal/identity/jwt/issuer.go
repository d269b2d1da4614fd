// Package jwt issues and verifies signed session tokens.
package jwt

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// DefaultTokenDuration is the lifetime of a session token.
const DefaultTokenDuration = 24 * time.Hour

// signingKeySize is the length of a generated HS256 key in bytes.
const signingKeySize = 32

// Token verification errors. Every failure wraps ErrTokenInvalid.
var (
	ErrTokenInvalid   = errors.New("invalid or expired token")
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrTokenInvalid)
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrTokenSignature = fmt.Errorf("%w: bad signature", ErrTokenInvalid)
)

// Config contains token issuer settings.
type Config struct {
	SigningKey    []byte
	TokenDuration time.Duration
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Claims are the identity claims carried by a session token.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	gojwt.RegisteredClaims
}

// Issuer mints and verifies HS256 session tokens.
// The signing key is fixed for the lifetime of the issuer.
type Issuer struct {
	key      []byte
	duration time.Duration
	now      func() time.Time
	parser   *gojwt.Parser
}

// GenerateSigningKey returns a fresh random HS256 key.
// Tokens signed with it do not survive a process restart.
func GenerateSigningKey() ([]byte, error) {
	key := make([]byte, signingKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return key, nil
}

// NewIssuer creates a new token issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("jwt: signing key is required")
	}

	duration := cfg.TokenDuration
	if duration <= 0 {
		duration = DefaultTokenDuration
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)

	return &Issuer{
		key:      key,
		duration: duration,
		now:      now,
		parser: gojwt.NewParser(
			gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
			gojwt.WithIssuedAt(),
			gojwt.WithExpirationRequired(),
			gojwt.WithTimeFunc(now),
		),
	}, nil
}

// Issue mints a token for the given subject, role and display name.
func (i *Issuer) Issue(subject, role, name string) (string, error) {
	// NumericDate has whole-second precision; truncate so exp-iat is exactly
	// the token duration.
	issuedAt := i.now().Truncate(time.Second)

	claims := Claims{
		Role: role,
		Name: name,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  gojwt.NewNumericDate(issuedAt),
			ExpiresAt: gojwt.NewNumericDate(issuedAt.Add(i.duration)),
		},
	}

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks the token signature and expiry and returns its claims.
// A token is valid while now is strictly before its expiry; there is no leeway.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := i.parser.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
		return i.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ExtractSubject returns the subject of a verified token.
// Unverifiable tokens yield an error rather than their unverified subject.
func (i *Issuer) ExtractSubject(token string) (string, error) {
	claims, err := i.Verify(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Duration returns the token lifetime.
func (i *Issuer) Duration() time.Duration {
	return i.duration
}

func classify(err error) error {
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	case errors.Is(err, gojwt.ErrTokenMalformed),
		errors.Is(err, gojwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
