// Package auth verifies caller identity and resolves admin roles.
package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the authenticated caller
type Identity struct {
	UID   string
	Email string
}

// Verifier turns a bearer token into an Identity
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Message is the client facing text for a verification failure
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "Authentication required. Please provide a valid token."
	case errors.Is(err, ErrTokenExpired):
		return "Authentication token expired. Please login again."
	case errors.Is(err, ErrTokenRevoked):
		return "Authentication token has been revoked. Please login again."
	case errors.Is(err, ErrInvalidToken):
		return "Invalid authentication token. Please login again."
	default:
		return "Authentication failed. Please login again."
	}
}
