// Package iamapi exposes the portal operations over HTTP.
package iamapi

import (
	"context"

	"github.com/Abraxas-365/portal/pkg/iam"
	"github.com/Abraxas-365/portal/pkg/iam/auth"
	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/Abraxas-365/portal/pkg/iam/provisioning"
	"github.com/Abraxas-365/portal/pkg/iam/recovery"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/verification"
	"github.com/gofiber/fiber/v2"
)

type UserProvisioner interface {
	CreateUser(ctx context.Context, caller *kernel.Claims, req provisioning.CreateUserRequest) (*identity.View, error)
}

type PasswordRecoverer interface {
	InitiatePasswordRecovery(ctx context.Context, req recovery.PasswordRecoveryRequest, ip string) error
	CompleteSignIn(ctx context.Context, req recovery.RedeemLinkRequest, ip string) (*recovery.SignInResult, error)
	SignInWithPassword(ctx context.Context, req recovery.PasswordSignInRequest, ip string) (*recovery.SignInResult, error)
}

type CodeIssuer interface {
	GetVerificationCode(ctx context.Context, caller *kernel.Claims, req verification.IssueCodeRequest) (*verification.Code, error)
}

type Handlers struct {
	users        UserProvisioner
	recovery     PasswordRecoverer
	verification CodeIssuer
	throttle     *IPRateLimiter
}

func NewHandlers(users UserProvisioner, recoverer PasswordRecoverer, codes CodeIssuer, throttle *IPRateLimiter) *Handlers {
	return &Handlers{
		users:        users,
		recovery:     recoverer,
		verification: codes,
		throttle:     throttle,
	}
}

// RegisterRoutes mounts the portal operations under /api/v1. The token
// middleware only resolves the caller; each operation applies its own
// guard.
func (h *Handlers) RegisterRoutes(app fiber.Router, mw *auth.TokenMiddleware) {
	v1 := app.Group("/api/v1", mw.Authenticate())

	v1.Post("/users", h.CreateUser)
	v1.Post("/verification/code", h.GetVerificationCode)

	public := v1.Group("/auth")
	if h.throttle != nil {
		public.Use(h.throttle.Middleware())
	}
	public.Post("/recovery", h.InitiatePasswordRecovery)
	public.Post("/link/redeem", h.RedeemSignInLink)
	public.Post("/signin", h.SignIn)
}

// CreateUser handles POST /api/v1/users
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	caller := auth.ClaimsFromCtx(c)
	if err := auth.RequireAdmin(caller); err != nil {
		return err
	}

	var req provisioning.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return iam.ErrInvalidRequest(err)
	}

	view, err := h.users.CreateUser(c.UserContext(), caller, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// InitiatePasswordRecovery handles POST /api/v1/auth/recovery
func (h *Handlers) InitiatePasswordRecovery(c *fiber.Ctx) error {
	var req recovery.PasswordRecoveryRequest
	if err := c.BodyParser(&req); err != nil {
		return iam.ErrInvalidRequest(err)
	}

	if err := h.recovery.InitiatePasswordRecovery(c.UserContext(), req, c.IP()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RedeemSignInLink handles POST /api/v1/auth/link/redeem
func (h *Handlers) RedeemSignInLink(c *fiber.Ctx) error {
	var req recovery.RedeemLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return iam.ErrInvalidRequest(err)
	}

	res, err := h.recovery.CompleteSignIn(c.UserContext(), req, c.IP())
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// SignIn handles POST /api/v1/auth/signin
func (h *Handlers) SignIn(c *fiber.Ctx) error {
	var req recovery.PasswordSignInRequest
	if err := c.BodyParser(&req); err != nil {
		return iam.ErrInvalidRequest(err)
	}

	res, err := h.recovery.SignInWithPassword(c.UserContext(), req, c.IP())
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// GetVerificationCode handles POST /api/v1/verification/code
func (h *Handlers) GetVerificationCode(c *fiber.Ctx) error {
	caller := auth.ClaimsFromCtx(c)
	if err := auth.RequireAuthenticated(caller); err != nil {
		return err
	}

	var req verification.IssueCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return iam.ErrInvalidRequest(err)
	}

	code, err := h.verification.GetVerificationCode(c.UserContext(), caller, req)
	if err != nil {
		return err
	}
	return c.JSON(code)
}
