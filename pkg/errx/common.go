package errx

// Common error constructors for convenience

// Internal creates an internal error
func Internal(message string) *Error {
	return New(message, TypeInternal)
}

// InvalidArgument creates a validation error
func InvalidArgument(message string) *Error {
	return New(message, TypeInvalidArgument)
}

// NotFound creates a not found error
func NotFound(message string) *Error {
	return New(message, TypeNotFound)
}

// AlreadyExists creates a conflict error
func AlreadyExists(message string) *Error {
	return New(message, TypeAlreadyExists)
}

// Unauthenticated creates an authentication error
func Unauthenticated(message string) *Error {
	return New(message, TypeUnauthenticated)
}

// PermissionDenied creates an authorization error
func PermissionDenied(message string) *Error {
	return New(message, TypePermissionDenied)
}

// Malformed creates an error for a stored document that fails its schema
func Malformed(message string) *Error {
	return New(message, TypeMalformed)
}
