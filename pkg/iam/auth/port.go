package auth

import (
	"context"

	"github.com/Abraxas-365/portal/pkg/kernel"
)

// TokenService mints and verifies caller tokens
type TokenService interface {
	IssueToken(claims kernel.Claims) (string, error)
	ValidateToken(token string) (*kernel.Claims, error)
}

// AuditService records security relevant events
type AuditService interface {
	LogUserProvisioned(ctx context.Context, actor *kernel.Claims, email kernel.Email, identityID kernel.IdentityID)
	LogIdentityRejected(ctx context.Context, identityID kernel.IdentityID, email kernel.Email, reason string)
	LogClaimsPropagated(ctx context.Context, identityID kernel.IdentityID, email kernel.Email, claims kernel.CustomClaims, disabled bool)
	LogRecoveryRequested(ctx context.Context, email kernel.Email, ip string)
	LogSignInLinkRedeemed(ctx context.Context, email kernel.Email, success bool, ip string)
	LogPasswordSignIn(ctx context.Context, email kernel.Email, success bool, ip string)
}
