package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/repository/memstore"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	token, err := tm.GenerateToken(42, domain.RoleOrganizer)
	require.NoError(t, err)
	assert.Equal(t, int64(42), token.UserID)

	claims, err := tm.ParseToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, domain.RoleOrganizer, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseTokenRejectsExpiredAndForeign(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	token, err := tm.GenerateToken(1, domain.RoleUser)
	require.NoError(t, err)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.ParseToken(token.Value)
	assert.Error(t, err)

	other := NewTokenManager("other", 60)
	foreign, err := other.GenerateToken(1, domain.RoleUser)
	require.NoError(t, err)
	_, err = NewTokenManager("secret", 60).ParseToken(foreign.Value)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("s3cret!", 4)
	require.NoError(t, err)
	assert.True(t, PasswordMatches(hashed, "s3cret!"))
	assert.False(t, PasswordMatches(hashed, "wrong"))
}

func newMiddleware(t *testing.T) (*AuthMiddleware, *TokenManager, *domain.User) {
	t.Helper()
	store := memstore.New()
	user := &domain.User{Fullname: "Ana", Email: "ana@example.com", ReferralCode: "ANA", Role: domain.RoleUser}
	require.NoError(t, store.Repositories().Users.Create(context.Background(), user))
	tm := NewTokenManager("secret", 60)
	return NewAuthMiddleware(tm, store.Repositories().Users), tm, user
}

func TestAuthenticateResults(t *testing.T) {
	m, tm, user := newMiddleware(t)
	ctx := context.Background()

	result, err := m.Authenticate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, Unauthenticated{Reason: "missing authorization header"}, result)

	result, err = m.Authenticate(ctx, "Token abc")
	require.NoError(t, err)
	assert.IsType(t, Unauthenticated{}, result)

	result, err = m.Authenticate(ctx, "Bearer not-a-jwt")
	require.NoError(t, err)
	assert.Equal(t, Unauthenticated{Reason: "invalid token"}, result)

	ghost, err := tm.GenerateToken(999, domain.RoleUser)
	require.NoError(t, err)
	result, err = m.Authenticate(ctx, "Bearer "+ghost.Value)
	require.NoError(t, err)
	assert.Equal(t, Unauthenticated{Reason: "user not found"}, result)

	token, err := tm.GenerateToken(user.ID, domain.RoleAdmin)
	require.NoError(t, err)
	result, err = m.Authenticate(ctx, "Bearer "+token.Value)
	require.NoError(t, err)
	assert.Equal(t, Authenticated{UserID: user.ID, Role: domain.RoleUser}, result)
}

func TestRoleGuards(t *testing.T) {
	m, tm, user := newMiddleware(t)
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.StatusCode(err))
		},
	})
	app.Use(m.Handle)
	app.Get("/me", RequireAuthenticated(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/organizer", RequireRole(domain.RoleOrganizer), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	token, err := tm.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)

	cases := []struct {
		path   string
		header string
		status int
	}{
		{"/me", "", http.StatusUnauthorized},
		{"/me", "Bearer " + token.Value, http.StatusOK},
		{"/organizer", "", http.StatusUnauthorized},
		{"/organizer", "Bearer " + token.Value, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)
	}
}
