package identity

import (
	"context"
	"sync"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"golang.org/x/crypto/bcrypt"
)

// unknownEmailHash is compared against when no identity matches, so an
// unknown email costs the same as a wrong password.
var unknownEmailHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("no-such-identity"), bcrypt.DefaultCost)
	return h
})

// CheckPassword reports whether password matches the stored hash
func CheckPassword(ident *Identity, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)) == nil
}

// Authenticate returns the identity for email when password matches. Unknown
// emails and wrong passwords fail alike; a disabled identity is refused only
// once the password checks out.
func Authenticate(ctx context.Context, identities Store, email kernel.Email, password string) (*Identity, error) {
	ident, err := identities.GetByEmail(ctx, email)
	if err != nil {
		if !errx.HasCode(err, CodeNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(unknownEmailHash(), []byte(password))
		return nil, ErrBadCredentials()
	}
	if !CheckPassword(ident, password) {
		return nil, ErrBadCredentials()
	}
	if ident.Disabled {
		return nil, ErrDisabled()
	}
	return ident, nil
}
