package auth

import "errors"

// Common helper authentication errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid helper token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("helper token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("helper token not yet valid")

	// ErrWrongScope indicates a validly signed token issued for another purpose
	ErrWrongScope = errors.New("helper token has wrong scope")

	// ErrWeakSecret is returned when the signing secret is too short
	ErrWeakSecret = errors.New("helper secret must be at least 32 characters")
)
