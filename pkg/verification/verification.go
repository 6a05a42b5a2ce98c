// Package verification obtains test verification codes from the external
// issuing server on behalf of authenticated portal users.
package verification

import (
	"context"
	"encoding/json"

	"github.com/Abraxas-365/portal/pkg/errx"
	validation "github.com/go-ozzo/ozzo-validation"
)

var ErrRegistry = errx.NewRegistry("VERIFICATION")

var (
	CodeUpstream        = ErrRegistry.Register("UPSTREAM_ERROR", errx.TypeInternal, "The verification server rejected the request")
	CodeTransport       = ErrRegistry.Register("TRANSPORT_ERROR", errx.TypeInternal, "The verification server could not be reached")
	CodeInvalidResponse = ErrRegistry.Register("INVALID_RESPONSE", errx.TypeInternal, "The verification server returned no code")
)

// IssueCodeRequest is forwarded to the issuer as is. Which test types and
// date formats are acceptable is the issuer's call.
type IssueCodeRequest struct {
	TestType string `json:"testType"`
	TestDate string `json:"testDate"`
}

func (r IssueCodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TestType, validation.Required),
		validation.Field(&r.TestDate, validation.Required),
	)
}

// Code is the issuer's code, returned to the caller verbatim
type Code struct {
	Code json.RawMessage `json:"code"`
}

// Issuer talks to the external verification server
type Issuer interface {
	Issue(ctx context.Context, req IssueCodeRequest) (*Code, error)
}
