package eventx

import "github.com/Abraxas-365/portal/pkg/errx"

var eventxErrors = errx.NewRegistry("EVENTX")

var (
	ErrNotFound       = eventxErrors.Register("NOT_FOUND", errx.TypeNotFound, "Event not found")
	ErrEncode         = eventxErrors.Register("ENCODE", errx.TypeInternal, "Failed to encode event payload")
	ErrDecode         = eventxErrors.Register("DECODE", errx.TypeMalformed, "Failed to decode event payload")
	ErrEmptyPayload   = eventxErrors.Register("EMPTY_PAYLOAD", errx.TypeMalformed, "Event has no payload")
	ErrAlreadyRunning = eventxErrors.Register("ALREADY_RUNNING", errx.TypeInternal, "Dispatcher is already running")
)

var ErrHandlerPanic = eventxErrors.Register("HANDLER_PANIC", errx.TypeInternal, "Event handler panicked")
