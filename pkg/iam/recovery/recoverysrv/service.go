package recoverysrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/portal/pkg/asyncx"
	"github.com/Abraxas-365/portal/pkg/config"
	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/iam"
	"github.com/Abraxas-365/portal/pkg/iam/auth"
	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/Abraxas-365/portal/pkg/iam/profile"
	"github.com/Abraxas-365/portal/pkg/iam/recovery"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/Abraxas-365/portal/pkg/metricsx"
	"github.com/Abraxas-365/portal/pkg/notifx"
)

type RecoveryService struct {
	identities  identity.Store
	profiles    profile.Store
	links       recovery.LinkIssuer
	tokens      auth.TokenService
	mailer      notifx.TemplateSender
	audit       auth.AuditService
	metrics     *metricsx.Metrics
	env         config.EnvironmentConfig
	mailTimeout time.Duration
}

func NewRecoveryService(
	identities identity.Store,
	profiles profile.Store,
	links recovery.LinkIssuer,
	tokens auth.TokenService,
	mailer notifx.TemplateSender,
	audit auth.AuditService,
	metrics *metricsx.Metrics,
	env config.EnvironmentConfig,
	mailTimeout time.Duration,
) *RecoveryService {
	if mailTimeout <= 0 {
		mailTimeout = 30 * time.Second
	}
	return &RecoveryService{
		identities:  identities,
		profiles:    profiles,
		links:       links,
		tokens:      tokens,
		mailer:      mailer,
		audit:       audit,
		metrics:     metrics,
		env:         env,
		mailTimeout: mailTimeout,
	}
}

// InitiatePasswordRecovery flags the profile and, outside test
// environments, mails a sign-in link in the background. Link or mail
// failures are logged and never reach the caller.
func (s *RecoveryService) InitiatePasswordRecovery(ctx context.Context, req recovery.PasswordRecoveryRequest, ip string) error {
	if err := req.Validate(); err != nil {
		return iam.ErrInvalidRequest(err)
	}
	email := kernel.NewEmail(req.Email)

	err := s.profiles.Update(ctx, email, map[string]any{profile.FieldPasswordResetRequested: true})
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			return recovery.ErrRegistry.New(recovery.CodeNotFound).WithDetail("email", email)
		}
		logx.WithContext(ctx).WithError(err).WithField("email", email).Error("failed to flag password reset")
		return recovery.ErrRegistry.NewWithCause(recovery.CodeFlagFailed, err)
	}

	s.metrics.RecoveryRequested()
	if s.audit != nil {
		s.audit.LogRecoveryRequested(ctx, email, ip)
	}

	if s.env.IsTest() {
		logx.WithContext(ctx).WithField("email", email).Debug("test environment, recovery email skipped")
		return nil
	}

	asyncx.Detach(ctx, s.mailTimeout, func(ctx context.Context) {
		s.sendRecoveryLink(ctx, email)
	})
	return nil
}

func (s *RecoveryService) sendRecoveryLink(ctx context.Context, email kernel.Email) {
	log := logx.WithContext(ctx).WithField("email", email)

	link, err := s.links.GenerateSignInLink(ctx, email, s.env.ClientURL)
	if err != nil {
		log.WithError(err).Error("failed to generate sign-in link")
		return
	}

	data := notifx.RecoveryData{Email: email.String(), Link: link}
	if err := s.mailer.SendTemplate(ctx, notifx.TemplateRecovery, email.String(), data); err != nil {
		log.WithError(err).Error("failed to send recovery email")
		return
	}
	log.Info("recovery email sent")
}

// CompleteSignIn redeems a sign-in link and issues a session token for the
// identity it belongs to.
func (s *RecoveryService) CompleteSignIn(ctx context.Context, req recovery.RedeemLinkRequest, ip string) (*recovery.SignInResult, error) {
	if err := req.Validate(); err != nil {
		return nil, iam.ErrInvalidRequest(err)
	}

	ident, link, err := s.links.Redeem(ctx, req.Code)
	if err != nil {
		if s.audit != nil {
			s.audit.LogSignInLinkRedeemed(ctx, "", false, ip)
		}
		return nil, err
	}

	token, err := s.tokens.IssueToken(ident.CallerClaims())
	if err != nil {
		return nil, recovery.ErrRegistry.NewWithCause(recovery.CodeTokenFailure, err)
	}

	if s.audit != nil {
		s.audit.LogSignInLinkRedeemed(ctx, ident.Email, true, ip)
	}

	return &recovery.SignInResult{
		Token:       token,
		ContinueURL: link.ContinueURL,
		User:        ident.ToView(),
	}, nil
}

// SignInWithPassword exchanges email and password credentials for a session
// token. Disabled identities are refused.
func (s *RecoveryService) SignInWithPassword(ctx context.Context, req recovery.PasswordSignInRequest, ip string) (*recovery.SignInResult, error) {
	if err := req.Validate(); err != nil {
		return nil, iam.ErrInvalidRequest(err)
	}
	email := kernel.NewEmail(req.Email)

	ident, err := identity.Authenticate(ctx, s.identities, email, req.Password)
	if err != nil {
		if s.audit != nil {
			s.audit.LogPasswordSignIn(ctx, email, false, ip)
		}
		return nil, err
	}

	token, err := s.tokens.IssueToken(ident.CallerClaims())
	if err != nil {
		return nil, recovery.ErrRegistry.NewWithCause(recovery.CodeTokenFailure, err)
	}

	if s.audit != nil {
		s.audit.LogPasswordSignIn(ctx, ident.Email, true, ip)
	}
	return &recovery.SignInResult{Token: token, User: ident.ToView()}, nil
}
