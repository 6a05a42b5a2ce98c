package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"time"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/kernel"
)

// LinkIssuer generates single-use sign-in links for existing identities
type LinkIssuer struct {
	identities Store
	links      LinkStore
	baseURL    string
	ttl        time.Duration
	now        func() time.Time
}

// NewLinkIssuer creates an issuer producing links under baseURL
func NewLinkIssuer(identities Store, links LinkStore, baseURL string, ttl time.Duration) *LinkIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LinkIssuer{
		identities: identities,
		links:      links,
		baseURL:    baseURL,
		ttl:        ttl,
		now:        time.Now,
	}
}

// GenerateSignInLink returns a link that signs email in once and then
// continues to continueURL. The identity must exist.
func (l *LinkIssuer) GenerateSignInLink(ctx context.Context, email kernel.Email, continueURL string) (string, error) {
	if _, err := l.identities.GetByEmail(ctx, email); err != nil {
		return "", err
	}

	code, err := newLinkCode()
	if err != nil {
		return "", errx.Wrap(err, "failed to generate link code", errx.TypeInternal)
	}

	link := SignInLink{
		Code:        code,
		Email:       email,
		ContinueURL: continueURL,
		ExpiresAt:   l.now().Add(l.ttl),
	}
	if err := l.links.Save(ctx, link, l.ttl); err != nil {
		return "", err
	}

	return BuildLinkURL(l.baseURL, code, continueURL)
}

// Redeem consumes the link code and returns the identity it signs in
func (l *LinkIssuer) Redeem(ctx context.Context, code string) (*Identity, *SignInLink, error) {
	link, err := l.links.Consume(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if l.now().After(link.ExpiresAt) {
		return nil, nil, ErrInvalidLink().WithDetail("reason", "expired")
	}

	ident, err := l.identities.GetByEmail(ctx, link.Email)
	if err != nil {
		if errx.HasCode(err, CodeNotFound) {
			return nil, nil, ErrInvalidLink().WithDetail("reason", "identity removed")
		}
		return nil, nil, err
	}
	if ident.Disabled {
		return nil, nil, ErrDisabled()
	}
	return ident, link, nil
}

// BuildLinkURL appends the link code and continue URL to base
func BuildLinkURL(base, code, continueURL string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errx.Wrap(err, "invalid sign-in link base URL", errx.TypeInternal)
	}
	q := u.Query()
	q.Set("mode", "signIn")
	q.Set("oobCode", code)
	if continueURL != "" {
		q.Set("continueUrl", continueURL)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func newLinkCode() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
