package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/usampac/admin-web/internal/admin/application"
	"github.com/usampac/admin-web/internal/admin/domain"
)

// Auth implements application.Authenticator against GoTrue.
type Auth struct {
	client   *Client
	verifier *TokenVerifier
	now      func() time.Time
}

var _ application.Authenticator = (*Auth)(nil)

// NewAuth builds an Auth. A nil verifier makes every CurrentUser call a GoTrue round trip.
func NewAuth(client *Client, verifier *TokenVerifier) *Auth {
	return &Auth{client: client, verifier: verifier, now: time.Now}
}

type sessionPayload struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	User         userPayload `json:"user"`
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SignInWithPassword exchanges credentials for a session.
func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (domain.Session, error) {
	body := map[string]string{"email": email, "password": password}
	return a.token(ctx, "password", body)
}

// Refresh exchanges a refresh token for a new session.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (domain.Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return domain.Session{}, application.ErrSessionExpired
	}
	body := map[string]string{"refresh_token": refreshToken}
	return a.token(ctx, "refresh_token", body)
}

func (a *Auth) token(ctx context.Context, grant string, body map[string]string) (domain.Session, error) {
	res, err := a.client.do(ctx, http.MethodPost, a.client.authURL+"/token?grant_type="+grant, body, nil)
	if err != nil {
		return domain.Session{}, err
	}
	var payload sessionPayload
	if err := json.Unmarshal(res.body, &payload); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	if payload.AccessToken == "" {
		return domain.Session{}, errors.New("auth response did not contain an access token")
	}

	expiresAt := time.Unix(payload.ExpiresAt, 0)
	if payload.ExpiresAt == 0 && payload.ExpiresIn > 0 {
		expiresAt = a.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return domain.Session{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         domain.Identity{ID: payload.User.ID, Email: payload.User.Email},
	}, nil
}

// CurrentUser resolves the identity behind accessToken. With a JWT secret configured the token is
// verified locally; otherwise GoTrue is asked. Expired tokens yield application.ErrSessionExpired.
func (a *Auth) CurrentUser(ctx context.Context, accessToken string) (domain.Identity, error) {
	if strings.TrimSpace(accessToken) == "" {
		return domain.Identity{}, application.ErrUnauthenticated
	}
	if a.verifier != nil {
		claims, err := a.verifier.Inspect(accessToken, a.now())
		if err != nil {
			return domain.Identity{}, err
		}
		if claims.Verified {
			return claims.Identity, nil
		}
	}

	res, err := a.client.do(ctx, http.MethodGet, a.client.authURL+"/user", nil, bearer(accessToken))
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return domain.Identity{}, application.ErrSessionExpired
		}
		return domain.Identity{}, err
	}
	var user userPayload
	if err := json.Unmarshal(res.body, &user); err != nil {
		return domain.Identity{}, fmt.Errorf("decode user: %w", err)
	}
	if user.ID == "" {
		return domain.Identity{}, application.ErrUnauthenticated
	}
	return domain.Identity{ID: user.ID, Email: user.Email}, nil
}

// SignOut revokes the session server-side.
func (a *Auth) SignOut(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return nil
	}
	_, err := a.client.do(ctx, http.MethodPost, a.client.authURL+"/logout", nil, bearer(accessToken))
	return err
}

func bearer(token string) http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	return header
}
