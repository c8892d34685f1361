package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService("short", time.Minute)
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewJWTService(testSecret, 0)
	assert.Error(t, err)

	svc, err := NewJWTService(testSecret, time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 5 * time.Minute
	svc, err := newHMACJWTService(testSecret, lifetime, fixedClock(fixedTime))
	require.NoError(t, err)

	token, err := svc.GenerateToken(context.Background(), "worker-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, HelperScope, claims.Scope)
	assert.Equal(t, "worker-1", claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(lifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 5 * time.Minute

	issue := func(t *testing.T, secret string, at time.Time) string {
		t.Helper()
		svc, err := newHMACJWTService(secret, lifetime, fixedClock(at))
		require.NoError(t, err)
		token, err := svc.GenerateToken(context.Background(), "worker")
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		checkAt time.Time
		wantErr error
	}{
		{
			name:    "valid token",
			token:   func(t *testing.T) string { return issue(t, testSecret, fixedTime) },
			checkAt: fixedTime.Add(time.Minute),
		},
		{
			name:    "expired token",
			token:   func(t *testing.T) string { return issue(t, testSecret, fixedTime) },
			checkAt: fixedTime.Add(lifetime + time.Hour),
			wantErr: ErrExpiredToken,
		},
		{
			name:    "not yet valid",
			token:   func(t *testing.T) string { return issue(t, testSecret, fixedTime.Add(time.Hour)) },
			checkAt: fixedTime,
			wantErr: ErrTokenNotYetValid,
		},
		{
			name:    "wrong secret",
			token:   func(t *testing.T) string { return issue(t, wrongSecret, fixedTime) },
			checkAt: fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed token",
			token:   func(t *testing.T) string { return "not.a.token" },
			checkAt: fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong scope",
			token: func(t *testing.T) string {
				claims := jwtCustomClaims{
					Scope: "something-else",
					RegisteredClaims: jwt.RegisteredClaims{
						IssuedAt:  jwt.NewNumericDate(fixedTime),
						ExpiresAt: jwt.NewNumericDate(fixedTime.Add(lifetime)),
					},
				}
				signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
				require.NoError(t, err)
				return signed
			},
			checkAt: fixedTime,
			wantErr: ErrWrongScope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := newHMACJWTService(testSecret, lifetime, fixedClock(tt.checkAt))
			require.NoError(t, err)

			claims, err := svc.ValidateToken(context.Background(), tt.token(t))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "worker", claims.Subject)
		})
	}
}
