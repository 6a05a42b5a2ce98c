package auth

import (
	"testing"
	"time"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour, "portal-test")

	in := kernel.Claims{
		IdentityID:     "id-1",
		Email:          "admin@org.example",
		IsAdmin:        true,
		OrganizationID: "org-1",
	}
	token, err := svc.IssueToken(in)
	require.NoError(t, err)

	out, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestJWTRejectsForeignSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Hour, "portal").IssueToken(kernel.Claims{IdentityID: "id-1"})
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour, "portal").ValidateToken(token)
	assert.True(t, errx.IsType(err, errx.TypeUnauthenticated))
}

func TestJWTRejectsExpired(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, "portal")
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := svc.IssueToken(kernel.Claims{IdentityID: "id-1"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.True(t, errx.IsType(err, errx.TypeUnauthenticated))
}
