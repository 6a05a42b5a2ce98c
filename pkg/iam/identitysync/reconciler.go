package identitysync

import (
	"context"
	"time"

	"github.com/Abraxas-365/portal/pkg/asyncx"
	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/logx"
)

// Report summarizes one sweep
type Report struct {
	Checked int
	Failed  int
}

// Reconciler re-runs the enforcer over every identity record. It repairs
// drift left by lost notifications or exhausted redeliveries.
type Reconciler struct {
	identities identity.Store
	enforcer   *Enforcer
	workers    int
	pageSize   int
	kick       chan struct{}
}

func NewReconciler(identities identity.Store, enforcer *Enforcer, workers int) *Reconciler {
	if workers <= 0 {
		workers = 4
	}
	return &Reconciler{
		identities: identities,
		enforcer:   enforcer,
		workers:    workers,
		pageSize:   200,
		kick:       make(chan struct{}, 1),
	}
}

// Kick asks a running Run loop for an extra sweep. Kicks arriving while one
// is already pending are merged.
func (r *Reconciler) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Sweep checks every identity once
func (r *Reconciler) Sweep(ctx context.Context) (Report, error) {
	var report Report
	var cursor kernel.IdentityID

	for {
		page, next, err := r.identities.List(ctx, cursor, r.pageSize)
		if err != nil {
			return report, err
		}

		errs := asyncx.Pool(ctx, r.workers, page, func(ctx context.Context, ident *identity.Identity) error {
			return r.enforcer.HandleIdentityCreated(ctx, ident.ID, ident.Email)
		})
		for i, err := range errs {
			report.Checked++
			if err != nil {
				report.Failed++
				logx.WithError(err).WithFields(logx.Fields{
					"identity_id": page[i].ID,
					"email":       page[i].Email,
				}).Warn("reconcile: identity check failed")
			}
		}

		if next.IsEmpty() || ctx.Err() != nil {
			return report, ctx.Err()
		}
		cursor = next
	}
}

// Run sweeps every interval, and on every Kick, until ctx is cancelled
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepAndLog(ctx, "interval")
		case <-r.kick:
			r.sweepAndLog(ctx, "kick")
		}
	}
}

func (r *Reconciler) sweepAndLog(ctx context.Context, reason string) {
	start := time.Now()
	report, err := r.Sweep(ctx)
	entry := logx.WithFields(logx.Fields{
		"reason":   reason,
		"checked":  report.Checked,
		"failed":   report.Failed,
		"duration": time.Since(start).String(),
	})
	if err != nil && ctx.Err() == nil {
		entry.WithError(err).Error("reconcile: sweep aborted")
		return
	}
	entry.Info("reconcile: sweep finished")
}
