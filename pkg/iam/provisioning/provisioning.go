// Package provisioning creates portal users on behalf of an organization
// administrator.
package provisioning

import (
	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/ptrx"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var ErrRegistry = errx.NewRegistry("PROVISIONING")

var (
	CodeAlreadyExists  = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeAlreadyExists, "The email address is already in use by another account.")
	CodeProfileWrite   = ErrRegistry.Register("PROFILE_WRITE_FAILED", errx.TypeInternal, "Failed to write the user profile")
	CodeIdentityCreate = ErrRegistry.Register("IDENTITY_CREATE_FAILED", errx.TypeInternal, "Failed to create the user")
	CodePlaceholder    = ErrRegistry.Register("PLACEHOLDER_FAILED", errx.TypeInternal, "Failed to create the user image placeholder")
	CodePassword       = ErrRegistry.Register("PASSWORD_GENERATION_FAILED", errx.TypeInternal, "Failed to generate a temporary password")
)

// CreateUserRequest is the createUser payload. Pointer fields tell a
// missing value apart from a zero one. An empty password counts as absent.
type CreateUserRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	IsAdmin   *bool   `json:"isAdmin"`
	Password  *string `json:"password,omitempty"`
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email, validation.Length(3, 254)),
		validation.Field(&r.FirstName, validation.NotNil, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.NotNil, validation.Length(0, 200)),
		validation.Field(&r.IsAdmin, validation.NotNil),
		validation.Field(&r.Password, validation.Length(6, 128)),
	)
}

// NormalizedEmail is the profile key for the request
func (r CreateUserRequest) NormalizedEmail() kernel.Email {
	return kernel.NewEmail(ptrx.Value(r.Email))
}
