// Package recovery handles signing in and forgotten passwords. A forgotten
// password flags the profile and mails a single-use sign-in link; the
// temporary password from onboarding signs in directly.
package recovery

import (
	"context"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/Abraxas-365/portal/pkg/kernel"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var ErrRegistry = errx.NewRegistry("RECOVERY")

var (
	CodeNotFound     = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, "No user found for the provided email.")
	CodeFlagFailed   = ErrRegistry.Register("FLAG_FAILED", errx.TypeInternal, "Failed to record the password reset request")
	CodeTokenFailure = ErrRegistry.Register("TOKEN_FAILED", errx.TypeInternal, "Failed to issue a session token")
)

// LinkIssuer produces and redeems single-use sign-in links
type LinkIssuer interface {
	GenerateSignInLink(ctx context.Context, email kernel.Email, continueURL string) (string, error)
	Redeem(ctx context.Context, code string) (*identity.Identity, *identity.SignInLink, error)
}

// PasswordRecoveryRequest is the initiatePasswordRecovery payload
type PasswordRecoveryRequest struct {
	Email string `json:"email"`
}

func (r PasswordRecoveryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// RedeemLinkRequest carries the code of a sign-in link
type RedeemLinkRequest struct {
	Code string `json:"oobCode"`
}

func (r RedeemLinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(16, 128), is.Hexadecimal),
	)
}

// PasswordSignInRequest is the email and password sign-in payload
type PasswordSignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r PasswordSignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 128)),
	)
}

// SignInResult is returned after a successful sign-in
type SignInResult struct {
	Token       string         `json:"token"`
	ContinueURL string         `json:"continueUrl,omitempty"`
	User        *identity.View `json:"user"`
}
