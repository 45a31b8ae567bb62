package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eventbright/internal/domain"
)

const resultKey = "auth_result"

// Result is the outcome of authenticating a request. It is either
// Authenticated or Unauthenticated; handlers switch on the concrete type.
type Result interface {
	isResult()
}

// Authenticated identifies the calling user.
type Authenticated struct {
	UserID int64
	Role   domain.Role
}

// Unauthenticated explains why no identity could be established.
type Unauthenticated struct {
	Reason string
}

func (Authenticated) isResult()   {}
func (Unauthenticated) isResult() {}

// HasRole reports whether the caller holds one of roles.
func (a Authenticated) HasRole(roles ...domain.Role) bool {
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}

// ResultFromContext returns the result stored by the middleware, or
// Unauthenticated when the middleware did not run.
func ResultFromContext(c *fiber.Ctx) Result {
	if result, ok := c.Locals(resultKey).(Result); ok {
		return result
	}
	return Unauthenticated{Reason: "no credentials"}
}
