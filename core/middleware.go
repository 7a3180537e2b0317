package core

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	csrfSessionName = "catalog_csrf"
	csrfValueKey    = "csrf_token"
	csrfHeader      = "X-CSRF-Token"
)

// SessionMiddleware decodes the auth cookie, if any, into a *SessionSubject on
// the context. Invalid, expired and revoked tokens are treated as no session.
func SessionMiddleware(transport *CookieTransport, codec *SessionCodec, denylist TokenDenylist, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := transport.Extract(c.Request)
		if !ok {
			c.Next()
			return
		}

		subject, err := codec.Decode(token)
		if err != nil {
			logger.DebugContext(c.Request.Context(), "ignoring session cookie", "error", err)
			c.Next()
			return
		}

		if denylist != nil {
			revoked, err := denylist.IsRevoked(c.Request.Context(), subject.TokenID)
			if err != nil {
				logger.ErrorContext(c.Request.Context(), "token denylist lookup failed", "error", err)
				respondError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "session check unavailable, try again")
				c.Abort()
				return
			}
			if revoked {
				c.Next()
				return
			}
		}

		c.Set(subjectKey, &subject)
		c.Next()
	}
}

// OriginRefererMiddleware rejects requests whose Origin (or Referer, when
// Origin is missing) is not in cfg.AllowedOrigins and answers CORS preflights.
// Requests carrying neither header are same-origin and pass.
func OriginRefererMiddleware(cfg Config) gin.HandlerFunc {
	policy := newOriginPolicy(cfg.AllowedOrigins)
	return func(c *gin.Context) {
		origin := requestOrigin(c.Request)
		if !policy.allows(origin) {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
			c.Abort()
			return
		}
		if origin == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+csrfHeader)
			h.Set("Access-Control-Allow-Methods", strings.Join(corsMethods, ", "))
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		h.Set("Access-Control-Expose-Headers", csrfHeader)
		c.Next()
	}
}

var corsMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

type originPolicy map[string]struct{}

func newOriginPolicy(origins []string) originPolicy {
	p := make(originPolicy, len(origins))
	for _, o := range origins {
		p[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if origin == "" {
		return true
	}
	_, ok := p[strings.ToLower(origin)]
	return ok
}

func requestOrigin(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" {
		return o
	}
	ref := r.Header.Get("Referer")
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// NewCSRFStore returns the cookie store holding per-client CSRF tokens.
func NewCSRFStore(cfg Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.CSRFSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CSRFMiddleware keeps a per-client token in its own signed cookie and echoes
// it in the X-CSRF-Token response header. A state-changing request that
// carries a session must send the token back in the same header. It runs
// after SessionMiddleware: without a session cookie there is nothing to forge.
func CSRFMiddleware(store *sessions.CookieStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		// A tampered or stale cookie yields a fresh session; err only reports the decode failure.
		session, _ := store.Get(c.Request, csrfSessionName)

		token, _ := session.Values[csrfValueKey].(string)
		if token == "" {
			var err error
			if token, err = randomToken(32); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to issue csrf token")
				c.Abort()
				return
			}
			session.Values[csrfValueKey] = token
			if err := session.Save(c.Request, c.Writer); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to persist csrf token")
				c.Abort()
				return
			}
		}

		if needsCSRF(c) && c.GetHeader(csrfHeader) != token {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "invalid csrf token")
			c.Abort()
			return
		}

		c.Header(csrfHeader, token)
		c.Next()
	}
}

func needsCSRF(c *gin.Context) bool {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	switch c.Request.URL.Path {
	case "/api/auth/login", "/api/contact":
		return false
	}
	return currentSubject(c) != nil
}

// randomToken returns n URL-safe characters from crypto/rand.
func randomToken(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("token length must be positive")
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:n], nil
}
