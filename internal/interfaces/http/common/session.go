package common

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
)

// SessionCookies stores auth sessions in an HMAC-signed cookie.
type SessionCookies struct {
	secret []byte
	secure bool
}

// NewSessionCookies returns a codec signing with secret.
func NewSessionCookies(secret []byte, secure bool) *SessionCookies {
	return &SessionCookies{secret: secret, secure: secure}
}

type sessionCookie struct {
	AccessToken  string `json:"a"`
	RefreshToken string `json:"r"`
	ExpiresAt    int64  `json:"e,omitempty"`
	UserID       string `json:"u,omitempty"`
	Email        string `json:"m,omitempty"`
}

// Write stores session on the response.
func (c *SessionCookies) Write(w http.ResponseWriter, session admindomain.Session) {
	payload := sessionCookie{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		UserID:       session.User.ID,
		Email:        session.User.Email,
	}
	if !session.ExpiresAt.IsZero() {
		payload.ExpiresAt = session.ExpiresAt.Unix()
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return
	}
	body := base64.RawURLEncoding.EncodeToString(encoded)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    body + "." + c.sign(body),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionCookieTTL / time.Second),
	})
}

// Read returns the session stored on r, if any and correctly signed.
func (c *SessionCookies) Read(r *http.Request) (admindomain.Session, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return admindomain.Session{}, false
	}
	body, sig, ok := strings.Cut(cookie.Value, ".")
	if !ok || !hmac.Equal([]byte(c.sign(body)), []byte(sig)) {
		return admindomain.Session{}, false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return admindomain.Session{}, false
	}
	var payload sessionCookie
	if err := json.Unmarshal(decoded, &payload); err != nil || payload.AccessToken == "" {
		return admindomain.Session{}, false
	}
	session := admindomain.Session{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		User:         admindomain.Identity{ID: payload.UserID, Email: payload.Email},
	}
	if payload.ExpiresAt > 0 {
		session.ExpiresAt = time.Unix(payload.ExpiresAt, 0)
	}
	return session, true
}

// Clear expires the session cookie.
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (c *SessionCookies) sign(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
