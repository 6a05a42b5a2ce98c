package identitysync

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/iam/profile"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcerAcceptsValidProfileAndStampsClaims(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc := validDoc()
	doc["isAdmin"] = true
	require.NoError(t, f.profiles.Set(ctx, "ada@example.org", doc))
	ident := f.createIdentity(t, "ada@example.org")

	require.NoError(t, f.enforcer.HandleIdentityCreated(ctx, ident.ID, ident.Email))

	got, err := f.identities.Get(ctx, ident.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CustomClaims)
	assert.True(t, got.CustomClaims.IsAdmin)
	assert.Equal(t, "org-1", got.CustomClaims.OrganizationID.String())
	assert.False(t, got.Disabled)
	assert.Empty(t, f.audit.rejected)
}

func TestEnforcerDeletesIdentityWithoutProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ident := f.createIdentity(t, "stray@example.org")

	require.NoError(t, f.enforcer.HandleIdentityCreated(ctx, ident.ID, ident.Email))

	_, err := f.identities.Get(ctx, ident.ID)
	assert.True(t, errx.IsType(err, errx.TypeNotFound))
	require.Len(t, f.audit.rejected, 1)
	assert.Equal(t, ReasonProfileMissing, f.audit.rejected[0].reason)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.IdentitiesRejected.WithLabelValues(ReasonProfileMissing)))
}

func TestEnforcerDeletesMalformedProfileAndIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc := validDoc()
	doc["disabled"] = "no"
	require.NoError(t, f.profiles.Set(ctx, "bad@example.org", doc))
	ident := f.createIdentity(t, "bad@example.org")

	require.NoError(t, f.enforcer.HandleIdentityCreated(ctx, ident.ID, ident.Email))

	_, err := f.identities.Get(ctx, ident.ID)
	assert.True(t, errx.IsType(err, errx.TypeNotFound))
	_, err = f.profiles.Get(ctx, "bad@example.org")
	assert.True(t, errx.IsType(err, errx.TypeNotFound))
	assert.Equal(t, ReasonProfileMalformed, f.audit.rejected[0].reason)
}

func TestEnforcerDeletesWhenOrganizationMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc := validDoc()
	doc["organizationID"] = "org-gone"
	require.NoError(t, f.profiles.Set(ctx, "orphan@example.org", doc))
	ident := f.createIdentity(t, "orphan@example.org")

	require.NoError(t, f.enforcer.HandleIdentityCreated(ctx, ident.ID, ident.Email))

	_, err := f.identities.Get(ctx, ident.ID)
	assert.True(t, errx.IsType(err, errx.TypeNotFound))
	_, err = f.profiles.Get(ctx, "orphan@example.org")
	assert.True(t, errx.IsType(err, errx.TypeNotFound))
	assert.Equal(t, ReasonOrgMissing, f.audit.rejected[0].reason)
}

func TestEnforcerTreatsOrganizationCheckFailureAsMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.profiles.OrgCheckErr = errors.New("organizations table unavailable")

	require.NoError(t, f.profiles.Set(ctx, "ada@example.org", validDoc()))
	ident := f.createIdentity(t, "ada@example.org")

	require.NoError(t, f.enforcer.HandleIdentityCreated(ctx, ident.ID, ident.Email))

	_, err := f.identities.Get(ctx, ident.ID)
	assert.True(t, errx.IsType(err, errx.TypeNotFound))
	assert.Equal(t, ReasonOrgMissing, f.audit.rejected[0].reason)
}

func TestEnforcerIgnoresIdentityAlreadyRemoved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ident := f.createIdentity(t, "gone@example.org")
	require.NoError(t, f.identities.Delete(ctx, ident.ID))

	assert.NoError(t, f.enforcer.HandleIdentityCreated(ctx, ident.ID, ident.Email))
	assert.Empty(t, f.audit.rejected)
}

func TestEnforcerIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.profiles.Set(ctx, "ada@example.org", validDoc()))
	ident := f.createIdentity(t, "ada@example.org")

	require.NoError(t, f.enforcer.HandleIdentityCreated(ctx, ident.ID, ident.Email))
	require.NoError(t, f.enforcer.HandleIdentityCreated(ctx, ident.ID, ident.Email))

	got, err := f.identities.Get(ctx, ident.ID)
	require.NoError(t, err)
	assert.Equal(t, "org-1", got.CustomClaims.OrganizationID.String())
	assert.Len(t, f.audit.propagated, 2)
}

func TestEnforcerReadsProfileByStoredEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.profiles.Set(ctx, "mixed@example.org", profile.RawDocument(validDoc())))
	ident := f.createIdentity(t, "Mixed@Example.org")

	require.NoError(t, f.enforcer.HandleIdentityCreated(ctx, ident.ID, "Mixed@Example.org"))

	_, err := f.identities.Get(ctx, ident.ID)
	assert.NoError(t, err)
}
