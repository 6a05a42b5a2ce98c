package profileinfra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/eventx"
	"github.com/Abraxas-365/portal/pkg/iam/profile"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreKeysByLowerCasedEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)

	require.NoError(t, s.Set(ctx, "Ada@Example.org", profile.RawDocument{"isAdmin": true}))

	doc, err := s.Get(ctx, "ada@example.org")
	require.NoError(t, err)
	assert.Equal(t, true, doc["isAdmin"])
}

func TestMemoryStoreUpdateEmitsBeforeAndAfter(t *testing.T) {
	ctx := context.Background()
	q := eventx.NewMemoryQueue(4)
	s := NewMemoryStore(q)

	require.NoError(t, s.Set(ctx, "a@b.org", profile.RawDocument{"isAdmin": false, "firstName": "A"}))
	require.NoError(t, s.Update(ctx, "a@b.org", map[string]any{"isAdmin": true}))

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, kernel.EventProfileUpdated, d.Type)

	var payload kernel.ProfileUpdatedPayload
	require.NoError(t, d.Decode(&payload))
	assert.Equal(t, false, payload.Before["isAdmin"])
	assert.Equal(t, true, payload.After["isAdmin"])
	assert.Equal(t, "A", payload.After["firstName"])
}

func TestMemoryStoreMissingDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)

	_, err := s.Get(ctx, "x@y.org")
	assert.True(t, errx.IsType(err, errx.TypeNotFound))
	assert.True(t, errx.IsType(s.Update(ctx, "x@y.org", map[string]any{"a": 1}), errx.TypeNotFound))
	assert.True(t, errx.IsType(s.Delete(ctx, "x@y.org"), errx.TypeNotFound))
}

func TestMemoryStoreOrganizations(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	s.AddOrganization("org-1")

	ok, err := s.OrganizationExists(ctx, "org-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.OrganizationExists(ctx, "org-2")
	require.NoError(t, err)
	assert.False(t, ok)

	s.OrgCheckErr = errors.New("unavailable")
	_, err = s.OrganizationExists(ctx, "org-1")
	assert.Error(t, err)
}

func TestMemoryStoreCreateIsInsertOnly(t *testing.T) {
	ctx := context.Background()
	q := eventx.NewMemoryQueue(4)
	s := NewMemoryStore(q)

	require.NoError(t, s.Create(ctx, "Ada@Example.org", profile.RawDocument{"organizationID": "org-2"}))

	err := s.Create(ctx, "ada@example.org", profile.RawDocument{"organizationID": "org-1", "isAdmin": true})
	assert.True(t, errx.HasCode(err, profile.CodeExists))
	assert.True(t, errx.IsType(err, errx.TypeAlreadyExists))

	doc, err := s.Get(ctx, "ada@example.org")
	require.NoError(t, err)
	assert.Equal(t, "org-2", doc["organizationID"])
	assert.NotContains(t, doc, "isAdmin")
	assert.Empty(t, q.Snapshot())
}
