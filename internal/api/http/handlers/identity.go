package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eventbright/internal/auth"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

// caller returns the authenticated identity or a 401.
func caller(c *fiber.Ctx) (auth.Authenticated, error) {
	switch result := auth.ResultFromContext(c).(type) {
	case auth.Authenticated:
		return result, nil
	case auth.Unauthenticated:
		return auth.Authenticated{}, apperrors.NewUnauthorized(result.Reason)
	default:
		return auth.Authenticated{}, apperrors.ErrUnauthenticated
	}
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: c.Params(name)})
	}
	return id, nil
}
