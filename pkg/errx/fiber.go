package errx

import "github.com/gofiber/fiber/v2"

// Response is the JSON body written for an error
type Response struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"error"`
	Type      string                 `json:"type"`
	Status    int                    `json:"status"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Upstream  string                 `json:"upstream_error,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ToResponse converts an Error to its JSON response. The underlying cause is
// only included when includeCause is set.
func (e *Error) ToResponse(includeCause bool) Response {
	resp := Response{
		Code:    e.Code,
		Message: e.Message,
		Type:    string(e.Type),
		Status:  e.HTTPStatus,
	}
	if len(e.Details) > 0 {
		resp.Details = e.Details
	}
	if includeCause && e.Err != nil {
		resp.Upstream = e.Err.Error()
	}
	return resp
}

// WriteFiber writes err as a JSON response. Errors that are not *Error are
// reported as INTERNAL without leaking their text.
func WriteFiber(c *fiber.Ctx, err error, includeCause bool) error {
	var e *Error
	if !As(err, &e) {
		if fe, ok := err.(*fiber.Error); ok {
			e = New(fe.Message, TypeInternal)
			e.HTTPStatus = fe.Code
		} else {
			e = Internal("internal error").WithCause(err)
		}
	}

	resp := e.ToResponse(includeCause)
	resp.RequestID = c.Get(fiber.HeaderXRequestID)
	return c.Status(e.HTTPStatus).JSON(resp)
}
