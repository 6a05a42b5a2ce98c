package authinfra

import (
	"context"

	"github.com/Abraxas-365/portal/pkg/iam/auth"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/logx"
)

// LogxAuditService implements auth.AuditService using structured logx logging.
type LogxAuditService struct{}

func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

func (s *LogxAuditService) LogUserProvisioned(ctx context.Context, actor *kernel.Claims, email kernel.Email, identityID kernel.IdentityID) {
	fields := logx.Fields{
		"audit_event": "user_provisioned",
		"email":       email,
		"identity_id": identityID,
	}
	if actor != nil {
		fields["actor_id"] = actor.IdentityID
		fields["organization_id"] = actor.OrganizationID
	}
	logx.WithContext(ctx).WithFields(fields).Info("Audit: user provisioned")
}

func (s *LogxAuditService) LogIdentityRejected(ctx context.Context, identityID kernel.IdentityID, email kernel.Email, reason string) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "identity_rejected",
		"identity_id": identityID,
		"email":       email,
		"reason":      reason,
	}).Warn("Audit: identity rejected")
}

func (s *LogxAuditService) LogClaimsPropagated(ctx context.Context, identityID kernel.IdentityID, email kernel.Email, claims kernel.CustomClaims, disabled bool) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event":     "claims_propagated",
		"identity_id":     identityID,
		"email":           email,
		"is_admin":        claims.IsAdmin,
		"organization_id": claims.OrganizationID,
		"disabled":        disabled,
	}).Info("Audit: claims propagated")
}

func (s *LogxAuditService) LogRecoveryRequested(ctx context.Context, email kernel.Email, ip string) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "recovery_requested",
		"email":       email,
		"ip":          ip,
	}).Info("Audit: password recovery requested")
}

func (s *LogxAuditService) LogSignInLinkRedeemed(ctx context.Context, email kernel.Email, success bool, ip string) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "signin_link_redeemed",
		"email":       email,
		"success":     success,
		"ip":          ip,
	}).Info("Audit: sign-in link redeemed")
}

func (s *LogxAuditService) LogPasswordSignIn(ctx context.Context, email kernel.Email, success bool, ip string) {
	entry := logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "password_signin",
		"email":       email,
		"success":     success,
		"ip":          ip,
	})
	if !success {
		entry.Warn("Audit: password sign-in failed")
		return
	}
	entry.Info("Audit: password sign-in")
}

var _ auth.AuditService = (*LogxAuditService)(nil)
