package application

import (
	"context"
	"errors"
	"strings"
	"time"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
)

// SessionService signs reviewers in and out and resolves the identity behind a stored session.
type SessionService struct {
	auth Authenticator
	now  func() time.Time
}

// NewSessionService wraps auth. A nil auth means the backend is not configured.
func NewSessionService(auth Authenticator) *SessionService {
	return &SessionService{auth: auth, now: time.Now}
}

// SignIn exchanges credentials for a session. Backend messages are returned unchanged.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (admindomain.Session, error) {
	if s.auth == nil {
		return admindomain.Session{}, ErrBackendNotConfigured
	}
	return s.auth.SignInWithPassword(ctx, strings.TrimSpace(email), password)
}

// Resolve returns the identity for session. An expired access token is refreshed once; the
// returned bool reports whether session was replaced and must be stored again.
func (s *SessionService) Resolve(ctx context.Context, session admindomain.Session) (admindomain.Session, bool, error) {
	if s.auth == nil {
		return admindomain.Session{}, false, ErrBackendNotConfigured
	}
	if session.AccessToken == "" {
		return admindomain.Session{}, false, ErrUnauthenticated
	}

	if !session.Expired(s.now()) {
		user, err := s.auth.CurrentUser(ctx, session.AccessToken)
		if err == nil {
			session.User = user
			return session, false, nil
		}
		if !errors.Is(err, ErrSessionExpired) {
			return admindomain.Session{}, false, err
		}
	}

	refreshed, err := s.auth.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return admindomain.Session{}, false, ErrUnauthenticated
	}
	if refreshed.User.ID == "" {
		user, err := s.auth.CurrentUser(ctx, refreshed.AccessToken)
		if err != nil {
			return admindomain.Session{}, false, ErrUnauthenticated
		}
		refreshed.User = user
	}
	return refreshed, true, nil
}

// SignOut revokes the session upstream.
func (s *SessionService) SignOut(ctx context.Context, session admindomain.Session) error {
	if s.auth == nil {
		return nil
	}
	return s.auth.SignOut(ctx, session.AccessToken)
}
