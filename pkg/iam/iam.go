// Package iam holds the caller-facing error codes shared by the identity
// sub-packages.
package iam

import (
	"github.com/Abraxas-365/portal/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthenticated  = ErrRegistry.Register("UNAUTHENTICATED", errx.TypeUnauthenticated, "The function must be called while authenticated.")
	CodePermissionDenied = ErrRegistry.Register("PERMISSION_DENIED", errx.TypePermissionDenied, "The function must be called by an admin.")
	CodeInvalidToken     = ErrRegistry.Register("INVALID_TOKEN", errx.TypeUnauthenticated, "Invalid or expired token")
	CodeInvalidRequest   = ErrRegistry.Register("INVALID_REQUEST", errx.TypeInvalidArgument, "Request body is invalidly formatted.")
	CodeRateLimited      = ErrRegistry.Register("RATE_LIMITED", errx.TypeResourceExhausted, "Too many requests, try again later.")
)

func ErrUnauthenticated() *errx.Error {
	return ErrRegistry.New(CodeUnauthenticated)
}

func ErrPermissionDenied() *errx.Error {
	return ErrRegistry.New(CodePermissionDenied)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrRateLimited() *errx.Error {
	return ErrRegistry.New(CodeRateLimited)
}

// ErrInvalidRequest wraps a validation failure; field errors land in details.
func ErrInvalidRequest(cause error) *errx.Error {
	e := ErrRegistry.NewWithCause(CodeInvalidRequest, cause)
	if cause != nil {
		e.WithDetail("fields", cause.Error())
	}
	return e
}
