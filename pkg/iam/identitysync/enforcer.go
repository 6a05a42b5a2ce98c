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

// Enforcer removes identity records that have no well-formed profile in an
// existing organization, and stamps claims on the ones that do.
type Enforcer struct {
	identities identity.Store
	profiles   profile.Store
	propagator *Propagator
	audit      auth.AuditService
	metrics    *metricsx.Metrics
}

func NewEnforcer(
	identities identity.Store,
	profiles profile.Store,
	propagator *Propagator,
	audit auth.AuditService,
	metrics *metricsx.Metrics,
) *Enforcer {
	return &Enforcer{
		identities: identities,
		profiles:   profiles,
		propagator: propagator,
		audit:      audit,
		metrics:    metrics,
	}
}

// HandleIdentityCreated runs on every identity.created delivery. It reads
// the current state of both stores, so redelivery is safe. A returned error
// asks for redelivery.
func (e *Enforcer) HandleIdentityCreated(ctx context.Context, id kernel.IdentityID, email kernel.Email) error {
	log := logx.WithContext(ctx).WithFields(logx.Fields{
		"trigger":     kernel.EventIdentityCreated,
		"identity_id": id,
		"email":       email,
	})

	ident, err := e.identities.Get(ctx, id)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			log.Info("identity no longer exists, nothing to enforce")
			return nil
		}
		return err
	}

	doc, err := e.profiles.Get(ctx, ident.Email)
	if err != nil {
		if !errx.IsType(err, errx.TypeNotFound) {
			return err
		}
		doc = nil
	}

	verdict := Judge(doc, e.organizationExists(ctx, log, doc))

	if verdict.Action == ActionAccept {
		log.Debug("profile valid, propagating claims")
		return e.propagator.Apply(ctx, ident.Email, verdict.Profile)
	}

	return e.reject(ctx, log, ident, verdict)
}

// organizationExists treats a failed lookup as a missing organization
func (e *Enforcer) organizationExists(ctx context.Context, log *logx.Entry, doc profile.RawDocument) bool {
	p, err := profile.Parse(doc)
	if err != nil {
		return false
	}
	ok, err := e.profiles.OrganizationExists(ctx, p.OrganizationID)
	if err != nil {
		log.WithError(err).WithField("organization_id", p.OrganizationID).Error("organization check failed, treating as missing")
		return false
	}
	return ok
}

// reject deletes the profile document, when there is one, before the
// identity. A failure after the first step leaves the identity without a
// document, which the redelivery then rejects as missing.
func (e *Enforcer) reject(ctx context.Context, log *logx.Entry, ident *identity.Identity, v Verdict) error {
	entry := log.WithField("reason", v.Reason)
	if v.Cause != nil {
		entry = entry.WithError(v.Cause)
	}
	entry.Error("identity violates profile invariant, deleting")

	if v.DeleteProfile {
		if err := e.profiles.Delete(ctx, ident.Email); err != nil && !errx.IsType(err, errx.TypeNotFound) {
			log.WithError(err).Warn("failed to delete profile document")
			return err
		}
	}

	if err := e.identities.Delete(ctx, ident.ID); err != nil && !errx.IsType(err, errx.TypeNotFound) {
		log.WithError(err).Warn("failed to delete identity")
		return err
	}

	e.metrics.IdentityRejected(v.Reason)
	if e.audit != nil {
		e.audit.LogIdentityRejected(ctx, ident.ID, ident.Email, v.Reason)
	}
	return nil
}
