package errx

import "net/http"

// Type represents the category of error
type Type string

const (
	// TypeUnauthenticated means the caller presented no verified identity
	TypeUnauthenticated Type = "UNAUTHENTICATED"

	// TypePermissionDenied means the caller is known but lacks the required role
	TypePermissionDenied Type = "PERMISSION_DENIED"

	// TypeInvalidArgument represents a malformed request
	TypeInvalidArgument Type = "INVALID_ARGUMENT"

	// TypeAlreadyExists represents a uniqueness conflict
	TypeAlreadyExists Type = "ALREADY_EXISTS"

	// TypeNotFound represents a missing resource
	TypeNotFound Type = "NOT_FOUND"

	// TypeResourceExhausted means the caller is being throttled
	TypeResourceExhausted Type = "RESOURCE_EXHAUSTED"

	// TypeMalformed represents a stored document that does not match its schema
	TypeMalformed Type = "MALFORMED"

	// TypeInternal represents every failure that is not mapped explicitly
	TypeInternal Type = "INTERNAL"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}

// HTTPStatus maps an error type to its HTTP status code
func (t Type) HTTPStatus() int {
	switch t {
	case TypeUnauthenticated:
		return http.StatusUnauthorized
	case TypePermissionDenied:
		return http.StatusForbidden
	case TypeInvalidArgument:
		return http.StatusBadRequest
	case TypeAlreadyExists:
		return http.StatusConflict
	case TypeNotFound:
		return http.StatusNotFound
	case TypeMalformed:
		return http.StatusUnprocessableEntity
	case TypeResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
