package auth

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/iam"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

const tokenAudience = "portal-api"

// JWTService implements TokenService with HS256 tokens
type JWTService struct {
	secretKey []byte
	ttl       time.Duration
	issuer    string
	now       func() time.Time
}

// NewJWTService creates a token service
func NewJWTService(secretKey string, ttl time.Duration, issuer string) *JWTService {
	if ttl == 0 {
		ttl = time.Hour
	}
	if issuer == "" {
		issuer = "portal"
	}

	return &JWTService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		issuer:    issuer,
		now:       time.Now,
	}
}

// JWTClaims carries the custom claims next to the registered ones
type JWTClaims struct {
	Email          kernel.Email          `json:"email"`
	IsAdmin        bool                  `json:"isAdmin"`
	OrganizationID kernel.OrganizationID `json:"organizationID"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for claims
func (j *JWTService) IssueToken(claims kernel.Claims) (string, error) {
	now := j.now()

	jwtClaims := JWTClaims{
		Email:          claims.Email,
		IsAdmin:        claims.IsAdmin,
		OrganizationID: claims.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   claims.IdentityID.String(),
			Audience:  []string{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims)

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", errx.Wrap(err, "token generation failed", errx.TypeInternal)
	}

	return tokenString, nil
}

// ValidateToken verifies signature, issuer, audience and expiry
func (j *JWTService) ValidateToken(tokenString string) (*kernel.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, iam.ErrInvalidToken().WithCause(err)
	}

	jwtClaims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, iam.ErrInvalidToken().WithDetail("reason", "invalid claims")
	}

	return &kernel.Claims{
		IdentityID:     kernel.NewIdentityID(jwtClaims.Subject),
		Email:          jwtClaims.Email,
		IsAdmin:        jwtClaims.IsAdmin,
		OrganizationID: jwtClaims.OrganizationID,
	}, nil
}

var _ TokenService = (*JWTService)(nil)
