// Package auth implements bearer-token authentication for the API surface.
// The deployment is single-operator: tokens carry a fixed subject and are
// minted offline with the token-generator command, so there is no login or
// refresh flow.
package auth

import (
	"context"
	"time"
)

// OperatorSubject is the subject claim carried by every valid token.
const OperatorSubject = "operator"

// Claims is the validated content of a token.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed operator token.
	// Returns the token string or an error if signing fails.
	GenerateToken(ctx context.Context) (string, error)

	// ValidateToken validates the provided token string and extracts the
	// claims. Returns ErrExpiredToken, ErrTokenNotYetValid, or
	// ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}
