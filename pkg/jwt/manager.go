package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken the token is malformed, unsigned, or signed with the wrong key
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken the token is past its expiry
	ErrExpiredToken = errors.New("expired token")
)

// Claims carried by an external identity token. The role claim is
// untrusted input and is normalized against the closed role set by the
// identity service, never here.
type Claims struct {
	jwt.RegisteredClaims
	ExternalID string `json:"external_id"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role,omitempty"`
}

// Manager issues and verifies HMAC-signed identity tokens
type Manager struct {
	secret []byte
	expiry time.Duration
}

// NewManager creates a token manager
func NewManager(secret string, expiry time.Duration) *Manager {
	return &Manager{secret: []byte(secret), expiry: expiry}
}

// Generate issues a signed token for the given identity
func (m *Manager) Generate(externalID, name, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
		ExternalID: externalID,
		Name:       name,
		Role:       role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a token, returning its claims
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ExternalID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
