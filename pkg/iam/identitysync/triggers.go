package identitysync

import (
	"context"

	"github.com/Abraxas-365/portal/pkg/eventx"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/logx"
)

// Register binds the trigger handlers to their event types
func Register(d *eventx.Dispatcher, enforcer *Enforcer, propagator *Propagator) {
	d.Register(kernel.EventIdentityCreated, IdentityCreatedHandler(enforcer))
	d.Register(kernel.EventProfileUpdated, ProfileUpdatedHandler(propagator))
}

// IdentityCreatedHandler adapts the enforcer to event deliveries
func IdentityCreatedHandler(enforcer *Enforcer) eventx.HandlerFunc {
	return func(ctx context.Context, d *eventx.Delivery) error {
		var payload kernel.IdentityCreatedPayload
		if err := d.Decode(&payload); err != nil {
			logx.WithError(err).WithField("event_id", d.ID).Error("dropping undecodable identity.created event")
			return nil
		}
		return enforcer.HandleIdentityCreated(ctx, payload.ID, kernel.NewEmail(d.Key))
	}
}

// ProfileUpdatedHandler adapts the propagator to event deliveries
func ProfileUpdatedHandler(propagator *Propagator) eventx.HandlerFunc {
	return func(ctx context.Context, d *eventx.Delivery) error {
		var payload kernel.ProfileUpdatedPayload
		if err := d.Decode(&payload); err != nil {
			logx.WithError(err).WithField("event_id", d.ID).Error("dropping undecodable profile.updated event")
			return nil
		}
		return propagator.HandleProfileUpdated(ctx, kernel.NewEmail(d.Key), payload.Before, payload.After)
	}
}
