package identity

import "github.com/Abraxas-365/portal/pkg/errx"

var ErrRegistry = errx.NewRegistry("IDENTITY")

var (
	CodeNotFound       = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, "There is no user record corresponding to the provided identifier.")
	CodeEmailExists    = ErrRegistry.Register("EMAIL_EXISTS", errx.TypeAlreadyExists, "The email address is already in use by another account.")
	CodeInvalidLink    = ErrRegistry.Register("INVALID_LINK", errx.TypeUnauthenticated, "The sign-in link is invalid, expired or already used.")
	CodeBadCredentials = ErrRegistry.Register("BAD_CREDENTIALS", errx.TypeUnauthenticated, "The email or password is incorrect.")
	CodeDisabled       = ErrRegistry.Register("DISABLED", errx.TypePermissionDenied, "The user account has been disabled.")
	CodeStoreFailure   = ErrRegistry.Register("STORE_FAILURE", errx.TypeInternal, "Identity store operation failed")
)

func ErrNotFound() *errx.Error {
	return ErrRegistry.New(CodeNotFound)
}

func ErrEmailExists() *errx.Error {
	return ErrRegistry.New(CodeEmailExists)
}

func ErrInvalidLink() *errx.Error {
	return ErrRegistry.New(CodeInvalidLink)
}

func ErrBadCredentials() *errx.Error {
	return ErrRegistry.New(CodeBadCredentials)
}

func ErrDisabled() *errx.Error {
	return ErrRegistry.New(CodeDisabled)
}

func ErrStoreFailure(op string, cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStoreFailure, cause).WithDetail("op", op)
}
