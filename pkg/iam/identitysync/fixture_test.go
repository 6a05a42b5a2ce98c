package identitysync

import (
	"context"
	"sync"
	"testing"

	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/Abraxas-365/portal/pkg/iam/identity/identityinfra"
	"github.com/Abraxas-365/portal/pkg/iam/profile/profileinfra"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/metricsx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type rejection struct {
	email  kernel.Email
	reason string
}

type recordingAudit struct {
	mu         sync.Mutex
	rejected   []rejection
	propagated []kernel.CustomClaims
}

func (a *recordingAudit) LogUserProvisioned(context.Context, *kernel.Claims, kernel.Email, kernel.IdentityID) {
}

func (a *recordingAudit) LogIdentityRejected(_ context.Context, _ kernel.IdentityID, email kernel.Email, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rejected = append(a.rejected, rejection{email: email, reason: reason})
}

func (a *recordingAudit) LogClaimsPropagated(_ context.Context, _ kernel.IdentityID, _ kernel.Email, claims kernel.CustomClaims, _ bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.propagated = append(a.propagated, claims)
}

func (a *recordingAudit) LogRecoveryRequested(context.Context, kernel.Email, string) {}
func (a *recordingAudit) LogPasswordSignIn(context.Context, kernel.Email, bool, string) {}

func (a *recordingAudit) LogSignInLinkRedeemed(context.Context, kernel.Email, bool, string) {}

type fixture struct {
	identities *identityinfra.MemoryStore
	profiles   *profileinfra.MemoryStore
	audit      *recordingAudit
	metrics    *metricsx.Metrics
	propagator *Propagator
	enforcer   *Enforcer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		identities: identityinfra.NewMemoryStore(nil),
		profiles:   profileinfra.NewMemoryStore(nil),
		audit:      &recordingAudit{},
		metrics:    metricsx.New(prometheus.NewRegistry()),
	}
	f.propagator = NewPropagator(f.identities, f.profiles, f.audit, f.metrics)
	f.enforcer = NewEnforcer(f.identities, f.profiles, f.propagator, f.audit, f.metrics)
	f.profiles.AddOrganization("org-1")
	return f
}

func (f *fixture) createIdentity(t *testing.T, email kernel.Email) *identity.Identity {
	t.Helper()
	ident, err := f.identities.Create(context.Background(), identity.CreateParams{Email: email, Password: "secret-password"})
	require.NoError(t, err)
	return ident
}

// failingIdentities fails SetDisabled until failures runs out
type failingIdentities struct {
	identity.Store
	failures int
}

func (s *failingIdentities) SetDisabled(ctx context.Context, id kernel.IdentityID, disabled bool) error {
	if s.failures > 0 {
		s.failures--
		return identity.ErrStoreFailure("set_disabled", context.DeadlineExceeded)
	}
	return s.Store.SetDisabled(ctx, id, disabled)
}
