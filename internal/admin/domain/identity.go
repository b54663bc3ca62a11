package domain

import "time"

// RoleAdmin is the app_users.role value granting dashboard access.
const RoleAdmin = "ADMIN"

// Identity is the authenticated subject behind a session.
type Identity struct {
	ID    string
	Email string
}

// Session is a password session issued by the auth backend.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         Identity
}

// Expired reports whether the access token is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AppUser is the role row keyed by the auth subject.
type AppUser struct {
	AuthSub string `json:"auth_sub" db:"auth_sub"`
	Role    string `json:"role" db:"role"`
}

// IsAdmin reports whether the role grants dashboard access.
func (u AppUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}
