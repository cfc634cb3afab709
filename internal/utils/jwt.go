package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hackforge/platform/internal/domain"
)

// ErrTokenInvalid covers every way a session token can fail validation:
// malformed, wrong signature, expired, or carrying an unknown role. Callers
// treat all of them identically to "no session".
var ErrTokenInvalid = errors.New("invalid session token")

// sessionClaims is the wire shape of a session token.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SessionTokenManager mints and validates stateless session tokens. The
// token is the sole source of truth for role between issuance and expiry;
// a role change in storage takes effect only at next re-issuance.
type SessionTokenManager struct {
	secret      []byte
	tokenExpiry time.Duration
}

// NewSessionTokenManager creates a new session token manager
func NewSessionTokenManager(secret string, tokenExpiry time.Duration) *SessionTokenManager {
	return &SessionTokenManager{
		secret:      []byte(secret),
		tokenExpiry: tokenExpiry,
	}
}

// Generate mints a signed token carrying exactly {subject, role}.
func (m *SessionTokenManager) Generate(userID string, role domain.Role) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token, failing closed: any defect yields
// ErrTokenInvalid.
func (m *SessionTokenManager) Validate(tokenString string) (*domain.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}

	return &domain.SessionClaims{
		UserID:    claims.Subject,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Expiry returns the token validity window.
func (m *SessionTokenManager) Expiry() time.Duration {
	return m.tokenExpiry
}
