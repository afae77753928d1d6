package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	token, expiresAt, err := tm.GenerateToken("agent-1", domain.UserRoleAgent)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", claims.Subject)
	assert.Equal(t, domain.UserRoleAgent, claims.Role)
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken("agent-1", domain.UserRoleAgent)
	require.NoError(t, err)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err, "wrong secret")

	tm.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = tm.ParseToken(token)
	assert.Error(t, err, "expired")

	_, _, err = tm.GenerateToken("x", domain.UserRole("ROOT"))
	assert.Error(t, err)
}

func newTestApp(tm *TokenManager, guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		if fe, ok := err.(*fiber.Error); ok {
			return c.SendStatus(fe.Code)
		}
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}})
	app.Get("/whoami", NewAuthMiddleware(tm).Handle, guard, func(c *fiber.Ctx) error {
		caller, _ := CallerFromContext(c)
		return c.SendString(caller.UserID + ":" + string(caller.Role))
	})
	return app
}

func TestMiddlewareAndRoles(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := newTestApp(tm, RequireStaff())

	req := httptest.NewRequest("GET", "/whoami", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	requesterToken, _, err := tm.GenerateToken("req-1", domain.UserRoleRequester)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+requesterToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	managerToken, _, err := tm.GenerateToken("mgr-1", domain.UserRoleManager)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+managerToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
