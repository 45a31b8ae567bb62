package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/eventbright/internal/repository"
)

// AuthMiddleware resolves bearer tokens into a Result. It never rejects a
// request itself; RequireAuthenticated and RequireRole do that.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle stores the authentication result for downstream handlers.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	result, err := m.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	c.Locals(resultKey, result)
	return c.Next()
}

// Authenticate resolves an Authorization header value. The role comes from
// the stored account so role changes apply to tokens already issued.
func (m *AuthMiddleware) Authenticate(ctx context.Context, header string) (Result, error) {
	if header == "" {
		return Unauthenticated{Reason: "missing authorization header"}, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Unauthenticated{Reason: "invalid authorization header"}, nil
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return Unauthenticated{Reason: "invalid token"}, nil
	}

	user, err := m.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Unauthenticated{Reason: "user not found"}, nil
		}
		return nil, err
	}
	return Authenticated{UserID: user.ID, Role: user.Role}, nil
}
