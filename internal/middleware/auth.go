// Package middleware provides authentication, logging, rate limiting and
// observability middleware for the application.
package middleware

import (
	"context"
	"strings"

	"github.com/Tatiana-20/tati-blog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator resolves an access token to the user that owns it. Access
// tokens are signed with a key derived from the user's personal secret, so
// validation has to load the user before the signature can be checked.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*models.User, error)
}

// ExtractToken pulls the bearer token from the Authorization header, falling
// back to the "token" query parameter for WebSocket handshakes where custom
// headers are not always available.
func ExtractToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

// AuthRequired enforces authentication for protected routes. On success the
// resolved user is stored in c.Locals under "user", "userID" and "userRole".
func AuthRequired(v TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		user, err := v.ValidateAccessToken(c.UserContext(), parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user", user)
		c.Locals("userID", user.ID)
		c.Locals("userRole", user.Role)

		// Refresh the request context so the logger now carries the user ID.
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, user.ID))

		return c.Next()
	}
}

// RolesRequired restricts a route to the given roles. Admins always pass, and
// declaring no roles admits any authenticated caller. It must run after
// AuthRequired.
func RolesRequired(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("userRole").(models.Role)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if role == models.RoleAdmin || len(roles) == 0 {
			return c.Next()
		}
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}
}
