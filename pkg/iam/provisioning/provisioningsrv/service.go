package provisioningsrv

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/Abraxas-365/portal/pkg/asyncx"
	"github.com/Abraxas-365/portal/pkg/config"
	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/iam"
	"github.com/Abraxas-365/portal/pkg/iam/auth"
	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/Abraxas-365/portal/pkg/iam/profile"
	"github.com/Abraxas-365/portal/pkg/iam/provisioning"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/Abraxas-365/portal/pkg/metricsx"
	"github.com/Abraxas-365/portal/pkg/notifx"
	"github.com/Abraxas-365/portal/pkg/ptrx"
)

const generatedPasswordBytes = 16

type ProvisioningService struct {
	identities   identity.Store
	profiles     profile.Store
	placeholders profile.PlaceholderStore
	mailer       notifx.TemplateSender
	audit        auth.AuditService
	metrics      *metricsx.Metrics
	env          config.EnvironmentConfig
	mailTimeout  time.Duration
}

func NewProvisioningService(
	identities identity.Store,
	profiles profile.Store,
	placeholders profile.PlaceholderStore,
	mailer notifx.TemplateSender,
	audit auth.AuditService,
	metrics *metricsx.Metrics,
	env config.EnvironmentConfig,
	mailTimeout time.Duration,
) *ProvisioningService {
	if mailTimeout <= 0 {
		mailTimeout = 30 * time.Second
	}
	return &ProvisioningService{
		identities:   identities,
		profiles:     profiles,
		placeholders: placeholders,
		mailer:       mailer,
		audit:        audit,
		metrics:      metrics,
		env:          env,
		mailTimeout:  mailTimeout,
	}
}

// CreateUser provisions a user in the caller's organization. The profile
// document is written before the identity so the consistency trigger finds
// it; it is not removed if the identity cannot be created. An existing
// user's document is never overwritten.
func (s *ProvisioningService) CreateUser(ctx context.Context, caller *kernel.Claims, req provisioning.CreateUserRequest) (*identity.View, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, iam.ErrInvalidRequest(err)
	}

	email := req.NormalizedEmail()
	log := logx.WithContext(ctx).WithFields(logx.Fields{
		"email":           email,
		"organization_id": caller.OrganizationID,
	})

	doc := (&profile.Profile{
		IsAdmin:         *req.IsAdmin,
		Disabled:        false,
		OrganizationID:  caller.OrganizationID,
		FirstName:       *req.FirstName,
		LastName:        *req.LastName,
		IsFirstTimeUser: true,
	}).ToDocument()

	if err := s.writeProfile(ctx, caller.OrganizationID, email, doc); err != nil {
		if !errx.HasCode(err, provisioning.CodeAlreadyExists) {
			log.WithError(err).Error("failed to write profile document")
		}
		return nil, err
	}

	password, err := passwordFor(req)
	if err != nil {
		return nil, provisioning.ErrRegistry.NewWithCause(provisioning.CodePassword, err)
	}

	ident, err := s.identities.Create(ctx, identity.CreateParams{Email: email, Password: password})
	if err != nil {
		if errx.HasCode(err, identity.CodeEmailExists) {
			return nil, provisioning.ErrRegistry.NewWithMessage(provisioning.CodeAlreadyExists, providerMessage(err)).WithCause(err)
		}
		log.WithError(err).Error("failed to create identity")
		return nil, provisioning.ErrRegistry.NewWithCause(provisioning.CodeIdentityCreate, err)
	}

	if err := s.placeholders.CreatePlaceholder(ctx, email); err != nil {
		log.WithError(err).Error("failed to create image placeholder")
		return nil, provisioning.ErrRegistry.NewWithCause(provisioning.CodePlaceholder, err)
	}

	if s.env.IsTest() {
		log.Debug("test environment, onboarding email skipped")
	} else {
		s.sendOnboarding(ctx, email, *req.FirstName, *req.LastName, password)
	}

	s.metrics.UserProvisioned()
	if s.audit != nil {
		s.audit.LogUserProvisioned(ctx, caller, email, ident.ID)
	}
	log.WithField("identity_id", ident.ID).Info("user provisioned")

	return ident.ToView(), nil
}

// writeProfile inserts the new document. A document that is already there
// is only replaced when no identity owns the email and it belongs to org,
// which is what an earlier failed attempt in the same organization leaves.
func (s *ProvisioningService) writeProfile(ctx context.Context, org kernel.OrganizationID, email kernel.Email, doc profile.RawDocument) error {
	err := s.profiles.Create(ctx, email, doc)
	if err == nil {
		return nil
	}
	if !errx.HasCode(err, profile.CodeExists) {
		return provisioning.ErrRegistry.NewWithCause(provisioning.CodeProfileWrite, err)
	}

	if _, err := s.identities.GetByEmail(ctx, email); err == nil {
		return provisioning.ErrRegistry.New(provisioning.CodeAlreadyExists)
	} else if !errx.HasCode(err, identity.CodeNotFound) {
		return provisioning.ErrRegistry.NewWithCause(provisioning.CodeProfileWrite, err)
	}

	existing, err := s.profiles.Get(ctx, email)
	if err != nil {
		return provisioning.ErrRegistry.NewWithCause(provisioning.CodeProfileWrite, err)
	}
	if p, err := profile.Parse(existing); err != nil || p.OrganizationID != org {
		return provisioning.ErrRegistry.New(provisioning.CodeAlreadyExists)
	}

	if err := s.profiles.Set(ctx, email, doc); err != nil {
		return provisioning.ErrRegistry.NewWithCause(provisioning.CodeProfileWrite, err)
	}
	return nil
}

// sendOnboarding mails the credentials in the background; the caller never
// waits on or sees a mail failure.
func (s *ProvisioningService) sendOnboarding(ctx context.Context, email kernel.Email, firstName, lastName, password string) {
	data := notifx.OnboardingData{
		FirstName:         firstName,
		LastName:          lastName,
		Email:             email.String(),
		TemporaryPassword: password,
		SignInURL:         s.env.ClientURL,
	}
	asyncx.Detach(ctx, s.mailTimeout, func(ctx context.Context) {
		if err := s.mailer.SendTemplate(ctx, notifx.TemplateOnboarding, email.String(), data); err != nil {
			logx.WithContext(ctx).WithError(err).WithField("email", email).Error("failed to send onboarding email")
		}
	})
}

func passwordFor(req provisioning.CreateUserRequest) (string, error) {
	if p := ptrx.Value(req.Password); p != "" {
		return p, nil
	}
	buf := make([]byte, generatedPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func providerMessage(err error) string {
	var e *errx.Error
	if errx.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
