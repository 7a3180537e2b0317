package core

import (
	"net/http"
	"strings"
	"time"
)

const defaultSessionCookieName = "auth-token"

// CookieTransport binds session tokens to HTTP exchanges.
type CookieTransport struct {
	name        string
	maxAge      int
	forceSecure bool
}

// NewCookieTransport returns a transport whose cookie lives as long as ttl.
func NewCookieTransport(name string, ttl time.Duration, forceSecure bool) *CookieTransport {
	if name == "" {
		name = defaultSessionCookieName
	}
	return &CookieTransport{name: name, maxAge: int(ttl / time.Second), forceSecure: forceSecure}
}

// Name returns the cookie name.
func (t *CookieTransport) Name() string { return t.name }

// Attach sets the session cookie carrying token.
func (t *CookieTransport) Attach(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, t.cookie(r, token, t.maxAge))
}

// Clear overwrites the session cookie with an expired one. It does not revoke the token.
func (t *CookieTransport) Clear(w http.ResponseWriter, r *http.Request) {
	c := t.cookie(r, "", -1)
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

// Extract returns the token from the request; ok is false when there is none.
func (t *CookieTransport) Extract(r *http.Request) (string, bool) {
	c, err := r.Cookie(t.name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (t *CookieTransport) cookie(r *http.Request, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     t.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.secure(r),
		SameSite: http.SameSiteLaxMode,
	}
}

func (t *CookieTransport) secure(r *http.Request) bool {
	if t.forceSecure {
		return true
	}
	if r == nil {
		return false
	}
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
