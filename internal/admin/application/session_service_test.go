package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
)

type fakeAuth struct {
	users      map[string]admindomain.Identity
	currentErr error
	refreshed  admindomain.Session
	refreshErr error
	signInErr  error
	refreshes  int
}

func (f *fakeAuth) SignInWithPassword(_ context.Context, email, _ string) (admindomain.Session, error) {
	if f.signInErr != nil {
		return admindomain.Session{}, f.signInErr
	}
	return admindomain.Session{AccessToken: "tok", User: admindomain.Identity{ID: "u", Email: email}}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, _ string) (admindomain.Session, error) {
	f.refreshes++
	return f.refreshed, f.refreshErr
}

func (f *fakeAuth) CurrentUser(_ context.Context, token string) (admindomain.Identity, error) {
	if f.currentErr != nil {
		return admindomain.Identity{}, f.currentErr
	}
	user, ok := f.users[token]
	if !ok {
		return admindomain.Identity{}, ErrUnauthenticated
	}
	return user, nil
}

func (f *fakeAuth) SignOut(context.Context, string) error { return errors.New("already signed out") }

func TestSignInTrimsEmailAndKeepsBackendMessage(t *testing.T) {
	auth := &fakeAuth{}
	svc := NewSessionService(auth)

	session, err := svc.SignIn(context.Background(), "  admin@example.org ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.org", session.User.Email)

	auth.signInErr = errors.New("Invalid login credentials")
	_, err = svc.SignIn(context.Background(), "admin@example.org", "bad")
	assert.EqualError(t, err, "Invalid login credentials")
}

func TestSignInWithoutBackend(t *testing.T) {
	svc := NewSessionService(nil)
	_, err := svc.SignIn(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrBackendNotConfigured)
	assert.Equal(t, "Missing Supabase environment variables", err.Error())
}

func TestResolveValidSession(t *testing.T) {
	auth := &fakeAuth{users: map[string]admindomain.Identity{"tok": {ID: "u1", Email: "a@x"}}}
	svc := NewSessionService(auth)

	session, replaced, err := svc.Resolve(context.Background(), admindomain.Session{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, "u1", session.User.ID)
	assert.Zero(t, auth.refreshes)
}

func TestResolveRefreshesExpiredSession(t *testing.T) {
	auth := &fakeAuth{
		users:     map[string]admindomain.Identity{"new": {ID: "u1"}},
		refreshed: admindomain.Session{AccessToken: "new", RefreshToken: "r2"},
	}
	svc := NewSessionService(auth)

	session, replaced, err := svc.Resolve(context.Background(), admindomain.Session{
		AccessToken:  "old",
		RefreshToken: "r1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "new", session.AccessToken)
	assert.Equal(t, "u1", session.User.ID)
	assert.Equal(t, 1, auth.refreshes)
}

func TestResolveRefreshFailureIsUnauthenticated(t *testing.T) {
	auth := &fakeAuth{currentErr: ErrSessionExpired, refreshErr: errors.New("Invalid Refresh Token")}
	svc := NewSessionService(auth)

	_, _, err := svc.Resolve(context.Background(), admindomain.Session{AccessToken: "old"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveWithoutToken(t *testing.T) {
	svc := NewSessionService(&fakeAuth{})
	_, _, err := svc.Resolve(context.Background(), admindomain.Session{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
