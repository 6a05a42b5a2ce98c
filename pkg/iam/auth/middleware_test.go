package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateAttachesClaims(t *testing.T) {
	svc := NewJWTService("secret", time.Hour, "portal")
	mw := NewAuthMiddleware(svc)

	var seen, fromCtx *kernel.Claims
	app := fiber.New()
	app.Use(mw.Authenticate())
	app.Get("/", func(c *fiber.Ctx) error {
		seen = ClaimsFromCtx(c)
		fromCtx = kernel.ClaimsFrom(c.UserContext())
		return c.SendStatus(fiber.StatusNoContent)
	})

	token, err := svc.IssueToken(kernel.Claims{IdentityID: "id-1", IsAdmin: true})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	_, err = app.Test(req)
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.True(t, seen.IsAdmin)
	assert.Equal(t, seen, fromCtx)
}

func TestAuthenticateLeavesInvalidCallersAnonymous(t *testing.T) {
	mw := NewAuthMiddleware(NewJWTService("secret", time.Hour, "portal"))

	var seen *kernel.Claims
	called := false
	app := fiber.New()
	app.Use(mw.Authenticate())
	app.Get("/", func(c *fiber.Ctx) error {
		called = true
		seen = ClaimsFromCtx(c)
		return nil
	})

	for _, header := range []string{"", "Bearer garbage", "Basic abc"} {
		called, seen = false, nil
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		_, err := app.Test(req)
		require.NoError(t, err)
		assert.True(t, called, header)
		assert.Nil(t, seen, header)
	}
}
