package supabase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/usampac/admin-web/internal/admin/application"
	"github.com/usampac/admin-web/internal/admin/domain"
)

// TokenVerifier inspects GoTrue access tokens. With a secret it checks the HS256 signature and
// can answer CurrentUser on its own; without one it only reads the expiry so a stale token is
// refreshed before a GoTrue round trip.
type TokenVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewTokenVerifier returns a verifier; an empty secret limits it to expiry inspection.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(strings.TrimSpace(secret)), leeway: 30 * time.Second}
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// InspectedToken is what the verifier learned about a token.
type InspectedToken struct {
	Identity domain.Identity
	Verified bool
}

// Inspect checks token at now.
func (v *TokenVerifier) Inspect(token string, now time.Time) (InspectedToken, error) {
	claims := &accessClaims{}
	if len(v.secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return InspectedToken{}, application.ErrUnauthenticated
		}
		if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time.Add(v.leeway)) {
			return InspectedToken{}, application.ErrSessionExpired
		}
		return InspectedToken{Identity: domain.Identity{ID: claims.Subject, Email: claims.Email}}, nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return InspectedToken{}, application.ErrSessionExpired
		}
		return InspectedToken{}, application.ErrUnauthenticated
	}
	if claims.Subject == "" {
		return InspectedToken{}, application.ErrUnauthenticated
	}
	return InspectedToken{
		Identity: domain.Identity{ID: claims.Subject, Email: claims.Email},
		Verified: true,
	}, nil
}
