package kernel

import "context"

// Claims is the verified custom claim set of a caller. A nil *Claims means
// the caller is unauthenticated.
type Claims struct {
	IdentityID     IdentityID     `json:"sub"`
	Email          Email          `json:"email"`
	IsAdmin        bool           `json:"isAdmin"`
	OrganizationID OrganizationID `json:"organizationID"`
}

// CustomClaims is the projection stored on an identity record
type CustomClaims struct {
	IsAdmin        bool           `json:"isAdmin"`
	OrganizationID OrganizationID `json:"organizationID"`
}

type ContextKey string

const (
	// ClaimsContextKey stores *Claims in a context.Context or fiber locals
	ClaimsContextKey ContextKey = "caller_claims"

	// RequestIDKey stores the request id
	RequestIDKey ContextKey = "request_id"
)

// WithClaims returns a context carrying the caller claims
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFrom returns the caller claims stored in ctx, or nil
func ClaimsFrom(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*Claims)
	return claims
}
