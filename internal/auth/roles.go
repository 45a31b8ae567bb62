package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eventbright/internal/domain"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

// RequireAuthenticated rejects requests without a valid identity.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch result := ResultFromContext(c).(type) {
		case Authenticated:
			return c.Next()
		case Unauthenticated:
			return apperrors.NewUnauthorized(result.Reason)
		default:
			return apperrors.ErrUnauthenticated
		}
	}
}

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch result := ResultFromContext(c).(type) {
		case Authenticated:
			if !result.HasRole(allowed...) {
				return apperrors.NewForbidden("insufficient role")
			}
			return c.Next()
		case Unauthenticated:
			return apperrors.NewUnauthorized(result.Reason)
		default:
			return apperrors.ErrUnauthenticated
		}
	}
}
