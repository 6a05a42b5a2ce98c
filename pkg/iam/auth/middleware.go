package auth

import (
	"strings"

	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// TokenMiddleware resolves the caller from a bearer token
type TokenMiddleware struct {
	tokenService TokenService
}

// NewAuthMiddleware creates the middleware
func NewAuthMiddleware(tokenService TokenService) *TokenMiddleware {
	return &TokenMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate attaches verified claims to the request when a valid bearer
// token is present. A missing or invalid token leaves the caller
// unauthenticated; handlers decide through the guards.
func (am *TokenMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Next()
		}

		claims, err := am.tokenService.ValidateToken(token)
		if err != nil {
			logx.WithError(err).WithField("path", c.Path()).Debug("auth: rejecting caller token")
			return c.Next()
		}

		c.Locals(string(kernel.ClaimsContextKey), claims)
		c.SetUserContext(kernel.WithClaims(c.UserContext(), claims))

		return c.Next()
	}
}

// ClaimsFromCtx returns the verified caller claims, or nil
func ClaimsFromCtx(c *fiber.Ctx) *kernel.Claims {
	claims, _ := c.Locals(string(kernel.ClaimsContextKey)).(*kernel.Claims)
	return claims
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
