package middleware

import (
	"testing"
	"time"

	"lessonfolders/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := config.Config{JWTSecret: "0123456789abcdef", JWTIssuer: "lessonfolders"}
	userID := uuid.New()

	token, err := SignAccessToken(cfg, userID, time.Minute)
	require.NoError(t, err)

	got, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestParseAccessToken_Rejections(t *testing.T) {
	cfg := config.Config{JWTSecret: "0123456789abcdef"}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: uuid.NewString(),
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "teacher-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":         "not.a.token",
		"missing expiry":  noExpiry,
		"non uuid sub":    badSubject,
		"unexpected algo": wrongAlg,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			userID, err := ParseAccessToken(cfg, token)
			assert.Error(t, err)
			assert.Equal(t, uuid.Nil, userID)
		})
	}
}
