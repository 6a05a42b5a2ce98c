// Package identity models the credential records held by the identity
// provider: the opaque id, the email join key, the enabled flag and the
// custom claims stamped from the profile document.
package identity

import (
	"time"

	"github.com/Abraxas-365/portal/pkg/kernel"
)

// Identity is a credential record
type Identity struct {
	ID           kernel.IdentityID    `db:"id" json:"uid"`
	Email        kernel.Email         `db:"email" json:"email"`
	PasswordHash string               `db:"password_hash" json:"-"`
	Disabled     bool                 `db:"disabled" json:"disabled"`
	CustomClaims *kernel.CustomClaims `db:"-" json:"customClaims,omitempty"`
	CreatedAt    time.Time            `db:"created_at" json:"creationTime"`
	UpdatedAt    time.Time            `db:"updated_at" json:"-"`
}

// View is the identity as returned to RPC callers
type View struct {
	UID          kernel.IdentityID    `json:"uid"`
	Email        kernel.Email         `json:"email"`
	Disabled     bool                 `json:"disabled"`
	CustomClaims *kernel.CustomClaims `json:"customClaims,omitempty"`
	CreationTime time.Time            `json:"creationTime"`
}

// ToView projects the record for callers
func (i *Identity) ToView() *View {
	return &View{
		UID:          i.ID,
		Email:        i.Email,
		Disabled:     i.Disabled,
		CustomClaims: i.CustomClaims,
		CreationTime: i.CreatedAt,
	}
}

// CallerClaims builds the claim set a token for this identity carries
func (i *Identity) CallerClaims() kernel.Claims {
	c := kernel.Claims{IdentityID: i.ID, Email: i.Email}
	if i.CustomClaims != nil {
		c.IsAdmin = i.CustomClaims.IsAdmin
		c.OrganizationID = i.CustomClaims.OrganizationID
	}
	return c
}

// CreateParams describes a new identity
type CreateParams struct {
	Email    kernel.Email
	Password string
}

// SignInLink is a pending single-use sign-in link
type SignInLink struct {
	Code        string       `json:"code"`
	Email       kernel.Email `json:"email"`
	ContinueURL string       `json:"continueUrl"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}
