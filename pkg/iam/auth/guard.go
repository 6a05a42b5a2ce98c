package auth

import (
	"github.com/Abraxas-365/portal/pkg/iam"
	"github.com/Abraxas-365/portal/pkg/kernel"
)

// RequireAuthenticated fails with UNAUTHENTICATED when no verified caller
// claims are present.
func RequireAuthenticated(claims *kernel.Claims) error {
	if claims == nil {
		return iam.ErrUnauthenticated()
	}
	return nil
}

// RequireAdmin checks authentication first, then requires isAdmin to be true.
func RequireAdmin(claims *kernel.Claims) error {
	if err := RequireAuthenticated(claims); err != nil {
		return err
	}
	if !claims.IsAdmin {
		return iam.ErrPermissionDenied()
	}
	return nil
}
