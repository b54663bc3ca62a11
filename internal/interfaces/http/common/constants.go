package common

import "time"

const (
	// SessionCookieName holds the signed auth session.
	SessionCookieName = "admin_session"
	// SessionCookieTTL bounds how long a browser keeps the session; refresh tokens extend access within it.
	SessionCookieTTL = 7 * 24 * time.Hour
	// MaxFormBody limits urlencoded mutation bodies.
	MaxFormBody = 1 << 20
	// RequestTimeout bounds backend work done for one request.
	RequestTimeout = 5 * time.Second
)
