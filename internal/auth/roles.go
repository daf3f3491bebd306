package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/authz"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// RequireIdentity ensures the caller is authenticated.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin guards privileged routes behind the authorization gate. While
// the gate cannot resolve the role it denies; it never defaults to allow.
func RequireAdmin(gate *authz.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !gate.IsPrivileged(c.UserContext(), identity.UID) {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
