// Package auth provides the explicit caller identity threaded through the
// API layer. The core never reconstructs an identity on its own.
package auth

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Principal identifies the authenticated caller of an API request.
type Principal struct {
	ID   string
	Name string
}

const localsKey = "caravel.principal"

// Middleware extracts the caller identity from the X-Caravel-Principal
// header (or a bearer token carrying an opaque principal id) and stores it in
// the request context. Requests without an identity are rejected; there is
// no implicit fallback identity.
func Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := strings.TrimSpace(c.Get("X-Caravel-Principal"))

		if id == "" {
			authz := c.Get("Authorization")
			if after, ok := strings.CutPrefix(authz, "Bearer "); ok {
				id = strings.TrimSpace(after)
			}
		}

		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing principal",
			})
		}

		c.Locals(localsKey, Principal{ID: id, Name: id})

		return c.Next()
	}
}

// FromContext returns the principal stored by Middleware.
func FromContext(c fiber.Ctx) (Principal, bool) {
	principal, ok := c.Locals(localsKey).(Principal)

	return principal, ok
}
