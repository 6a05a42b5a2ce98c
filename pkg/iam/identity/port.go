package identity

import (
	"context"
	"time"

	"github.com/Abraxas-365/portal/pkg/kernel"
)

// Store is the identity provider adapter. Every call is a single atomic
// provider operation; nothing spans calls.
type Store interface {
	// Create fails with EMAIL_EXISTS when the email is taken.
	Create(ctx context.Context, params CreateParams) (*Identity, error)
	Get(ctx context.Context, id kernel.IdentityID) (*Identity, error)
	GetByEmail(ctx context.Context, email kernel.Email) (*Identity, error)
	// Delete of a missing record is NOT_FOUND.
	Delete(ctx context.Context, id kernel.IdentityID) error
	SetCustomClaims(ctx context.Context, id kernel.IdentityID, claims kernel.CustomClaims) error
	SetDisabled(ctx context.Context, id kernel.IdentityID, disabled bool) error
	// List pages through all records ordered by id. An empty next cursor
	// ends the listing.
	List(ctx context.Context, after kernel.IdentityID, limit int) ([]*Identity, kernel.IdentityID, error)
}

// LinkStore keeps single-use sign-in links
type LinkStore interface {
	Save(ctx context.Context, link SignInLink, ttl time.Duration) error
	// Consume returns the link and removes it; a second call fails with
	// INVALID_LINK.
	Consume(ctx context.Context, code string) (*SignInLink, error)
}
