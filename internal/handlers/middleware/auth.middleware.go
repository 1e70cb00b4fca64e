package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lessonfolders/config"
	appcontext "lessonfolders/internal/context"
	"lessonfolders/internal/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const UserIDLocalKey = "userID"

// RequireAuth accepts an HS256 bearer token whose subject is the user id and
// rejects users unknown to the directory.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := m.log.TraceFromContext(c.UserContext()).Function("RequireAuth")

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Info("missing authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			log.Info("invalid authorization header format")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		token := tokenParts[1]
		if token == "" {
			log.Info("empty token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token required",
			})
		}

		userID, err := ParseAccessToken(m.Config, token)
		if err != nil {
			log.Info("token validation failed", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		if _, err := m.users.GetUser(c.UserContext(), userID); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				log.Info("user not found in directory", "userID", userID)
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "User not found",
				})
			}
			log.Er("failed to load user", err, "userID", userID)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Directory unavailable",
			})
		}

		c.Locals(UserIDLocalKey, userID)
		c.SetUserContext(appcontext.WithUserID(c.UserContext(), userID))

		log.Debug("user authenticated", "userID", userID)
		return c.Next()
	}
}

// GetUserID returns the authenticated user id, or uuid.Nil outside RequireAuth.
func GetUserID(c *fiber.Ctx) uuid.UUID {
	userID, ok := c.Locals(UserIDLocalKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

func ParseAccessToken(config config.Config, tokenString string) (uuid.UUID, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if config.JWTIssuer != "" {
		options = append(options, jwt.WithIssuer(config.JWTIssuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			return []byte(config.JWTSecret), nil
		},
		options...,
	)
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token subject is not a user id: %w", err)
	}

	return userID, nil
}

// SignAccessToken issues a token RequireAuth accepts. Used by the seed command
// and tests.
func SignAccessToken(config config.Config, userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    config.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret))
}
