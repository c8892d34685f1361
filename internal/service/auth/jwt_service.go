// Package auth issues and verifies the bearer tokens the worker presents to
// the privileged helper daemon.
package auth

import (
	"context"
	"time"
)

// HelperScope is the scope claim carried by every helper token.
const HelperScope = "bootui.helper"

// JWTService defines operations for managing helper bearer tokens.
type JWTService interface {
	// GenerateToken creates a signed token identifying subject (the caller).
	GenerateToken(ctx context.Context, subject string) (string, error)

	// ValidateToken validates the token string and extracts its claims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the verified content of a helper token.
type Claims struct {
	Scope     string    `json:"scope,omitempty"`
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
