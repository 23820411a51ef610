package api

import (
	"errors"
	"strings"

	domain "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/gofiber/fiber/v2"
)

// UserContextKey is the key under which the caller's claims are stored in
// the Fiber context.
const UserContextKey = "user"

// AuthMiddleware requires a valid bearer token and stores its claims in
// the request context.
func AuthMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Message: "Not authorized, no token",
			})
		}

		claims, err := authAdapter.ValidateToken(c.UserContext(), token)
		if err != nil {
			if tokenRejected(err) {
				return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
					Message: "Not authorized, token failed",
				})
			}
			return writeError(c, err)
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// tokenRejected reports whether err means the token itself is bad, as
// opposed to the auth service being unreachable.
func tokenRejected(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken)
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

// claimsFrom returns the claims stored by AuthMiddleware.
func claimsFrom(c *fiber.Ctx) (*domain.Claims, bool) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	return claims, ok && claims != nil
}
