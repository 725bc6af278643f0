package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LocalsAdmin is the fiber Locals key holding the authenticated admin name.
const LocalsAdmin = "admin"

// IssueAdminToken signs an HS256 token for username that expires after ttl.
func IssueAdminToken(secret []byte, username string, ttl time.Duration, now time.Time) (string, error) {
	if username == "" {
		return "", errors.New("username is required")
	}
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// RequireAdmin rejects requests without a valid admin bearer token.
func RequireAdmin(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return unauthorized(c, "Missing token")
		}

		if !strings.HasPrefix(header, "Bearer ") {
			return unauthorized(c, "Invalid header format")
		}

		rawToken := strings.TrimSpace(header[len("Bearer "):])
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			return unauthorized(c, "Invalid or expired token")
		}

		if claims.Subject == "" {
			return unauthorized(c, "Missing subject in token")
		}

		c.Locals(LocalsAdmin, claims.Subject)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}
