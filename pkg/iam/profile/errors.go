package profile

import "github.com/Abraxas-365/portal/pkg/errx"

var ErrRegistry = errx.NewRegistry("PROFILE")

var (
	CodeNotFound     = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, "No profile document for this email")
	CodeExists       = ErrRegistry.Register("EXISTS", errx.TypeAlreadyExists, "A profile document already exists for this email")
	CodeMalformed    = ErrRegistry.Register("MALFORMED", errx.TypeMalformed, "Profile document is not properly formatted")
	CodeStoreFailure = ErrRegistry.Register("STORE_FAILURE", errx.TypeInternal, "Profile store operation failed")
)

func ErrNotFound() *errx.Error {
	return ErrRegistry.New(CodeNotFound)
}

func ErrExists() *errx.Error {
	return ErrRegistry.New(CodeExists)
}

func ErrMalformed(field, reason string) *errx.Error {
	return ErrRegistry.New(CodeMalformed).WithDetail("field", field).WithDetail("reason", reason)
}

func ErrStoreFailure(op string, cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStoreFailure, cause).WithDetail("op", op)
}
