package session

import (
	"net/http"
	"time"
)

const defaultCookieName = "marketdesk_session"

type cookieSettings struct {
	name   string
	secure bool
}

// SetCookie writes the session token to the response.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		Expires:  time.Now().Add(m.ttl),
		HttpOnly: true,
		Secure:   m.cookie.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cookie.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the raw session token, or empty when absent.
func (m *Manager) TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(m.cookie.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
