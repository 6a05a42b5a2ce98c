package identitysync

import (
	"context"
	"testing"

	"github.com/Abraxas-365/portal/pkg/iam/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropagatorSkipsUnrelatedChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.profiles.Set(ctx, "ada@example.org", validDoc()))
	f.createIdentity(t, "ada@example.org")

	before := validDoc()
	after := validDoc()
	after["firstName"] = "Augusta"

	require.NoError(t, f.propagator.HandleProfileUpdated(ctx, "ada@example.org", before, after))
	assert.Empty(t, f.audit.propagated)
}

func TestPropagatorAppliesCurrentDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	current := validDoc()
	current["isAdmin"] = true
	current["disabled"] = true
	require.NoError(t, f.profiles.Set(ctx, "ada@example.org", current))
	ident := f.createIdentity(t, "ada@example.org")

	before := validDoc()
	after := validDoc()
	after["isAdmin"] = true

	require.NoError(t, f.propagator.HandleProfileUpdated(ctx, "ada@example.org", before, after))

	got, err := f.identities.Get(ctx, ident.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CustomClaims)
	assert.True(t, got.CustomClaims.IsAdmin)
	assert.True(t, got.Disabled, "disabled comes from the stored document, not the event")
}

func TestPropagatorReactsToSuperAdminChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.profiles.Set(ctx, "ada@example.org", validDoc()))
	f.createIdentity(t, "ada@example.org")

	after := validDoc()
	after["isSuperAdmin"] = true

	require.NoError(t, f.propagator.HandleProfileUpdated(ctx, "ada@example.org", validDoc(), after))
	assert.Len(t, f.audit.propagated, 1)
}

func TestPropagatorWithoutIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.profiles.Set(ctx, "ada@example.org", validDoc()))

	after := validDoc()
	after["disabled"] = true

	assert.NoError(t, f.propagator.HandleProfileUpdated(ctx, "ada@example.org", validDoc(), after))
	assert.Empty(t, f.audit.propagated)
}

func TestPropagatorDocumentDeletedSinceUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createIdentity(t, "ada@example.org")

	after := validDoc()
	after["disabled"] = true

	assert.NoError(t, f.propagator.HandleProfileUpdated(ctx, "ada@example.org", validDoc(), after))
	assert.Empty(t, f.audit.propagated)
}

func TestPropagatorSkipsMalformedCurrentDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bad := validDoc()
	bad["organizationID"] = 7
	require.NoError(t, f.profiles.Set(ctx, "ada@example.org", bad))
	ident := f.createIdentity(t, "ada@example.org")

	assert.NoError(t, f.propagator.HandleProfileUpdated(ctx, "ada@example.org", validDoc(), bad))

	got, err := f.identities.Get(ctx, ident.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CustomClaims)
}

func TestPropagatorWritesClaimsBeforeDisabledFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	store := &failingIdentities{Store: f.identities, failures: 1}
	p := NewPropagator(store, f.profiles, f.audit, nil)

	doc := validDoc()
	doc["isAdmin"] = true
	doc["disabled"] = true
	require.NoError(t, f.profiles.Set(ctx, "ada@example.org", doc))
	ident := f.createIdentity(t, "ada@example.org")
	prof, err := profile.Parse(doc)
	require.NoError(t, err)

	assert.Error(t, p.Apply(ctx, "ada@example.org", prof))

	got, err := f.identities.Get(ctx, ident.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CustomClaims)
	assert.True(t, got.CustomClaims.IsAdmin)
	assert.False(t, got.Disabled)

	require.NoError(t, p.Apply(ctx, "ada@example.org", prof))
	got, err = f.identities.Get(ctx, ident.ID)
	require.NoError(t, err)
	assert.True(t, got.Disabled)
}
