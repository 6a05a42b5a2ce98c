package identitysync

import (
	"context"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/iam/auth"
	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/Abraxas-365/portal/pkg/iam/profile"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/Abraxas-365/portal/pkg/metricsx"
)

// Propagator projects profile documents onto identity records
type Propagator struct {
	identities identity.Store
	profiles   profile.Store
	audit      auth.AuditService
	metrics    *metricsx.Metrics
}

func NewPropagator(identities identity.Store, profiles profile.Store, audit auth.AuditService, metrics *metricsx.Metrics) *Propagator {
	return &Propagator{
		identities: identities,
		profiles:   profiles,
		audit:      audit,
		metrics:    metrics,
	}
}

// HandleProfileUpdated runs on every profile.updated delivery. Only changes
// to the synchronized fields trigger work, and the projection is computed
// from the document as currently stored.
func (p *Propagator) HandleProfileUpdated(ctx context.Context, email kernel.Email, before, after profile.RawDocument) error {
	log := logx.WithContext(ctx).WithFields(logx.Fields{
		"trigger": kernel.EventProfileUpdated,
		"email":   email,
	})

	if !profile.SyncFieldsChanged(before, after) {
		log.Debug("no synchronized field changed")
		return nil
	}

	doc, err := p.profiles.Get(ctx, email)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			log.Info("profile removed since the update, nothing to propagate")
			return nil
		}
		return err
	}

	prof, err := profile.Parse(doc)
	if err != nil {
		log.WithError(err).Warn("stored profile is malformed, not propagating")
		return nil
	}

	return p.Apply(ctx, email, prof)
}

// Apply sets the claims and then the disabled flag on the identity with
// email. The two writes are independent; a failure between them is
// repaired by redelivery. A missing identity is logged and ignored.
func (p *Propagator) Apply(ctx context.Context, email kernel.Email, prof *profile.Profile) error {
	log := logx.WithContext(ctx).WithField("email", email)

	ident, err := p.identities.GetByEmail(ctx, email)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			log.Info("no identity for profile, nothing to propagate")
			return nil
		}
		return err
	}

	claims := prof.Claims()
	if err := p.identities.SetCustomClaims(ctx, ident.ID, claims); err != nil {
		log.WithError(err).WithField("identity_id", ident.ID).Error("failed to set custom claims")
		return err
	}
	if err := p.identities.SetDisabled(ctx, ident.ID, prof.Disabled); err != nil {
		log.WithError(err).WithField("identity_id", ident.ID).Error("failed to set disabled flag")
		return err
	}

	p.metrics.ClaimsPropagatedOnce()
	if p.audit != nil {
		p.audit.LogClaimsPropagated(ctx, ident.ID, email, claims, prof.Disabled)
	}
	return nil
}
