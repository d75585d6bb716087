// Package session issues and verifies the signed cookie that carries a
// browser's conversation session ID.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// DefaultCookieName is the cookie used when Config.CookieName is empty.
const DefaultCookieName = "lingochat.sid"

// ErrEmptySecret is returned by NewManager when no signing secret is set.
var ErrEmptySecret = errors.New("session: signing secret is empty")

// Config holds session cookie settings.
type Config struct {
	Secret     string
	CookieName string
	Secure     bool
}

// Manager signs and verifies session cookies.
type Manager struct {
	secret []byte
	cookie string
	secure bool
}

// NewManager creates a Manager from cfg.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, ErrEmptySecret
	}
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &Manager{secret: []byte(cfg.Secret), cookie: name, secure: cfg.Secure}, nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string { return m.cookie }

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Encode returns the signed cookie value for id.
func (m *Manager) Encode(id string) string {
	return id + "." + m.sign(id)
}

// Decode verifies a cookie value and returns the session ID it carries.
func (m *Manager) Decode(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || !validID(id) {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(id))) {
		return "", false
	}
	return id, true
}

// Middleware attaches the session ID to each request context. Requests
// without a valid cookie get a fresh ID and a Set-Cookie header.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(m.cookie); err == nil {
			id, _ = m.Decode(c.Value)
		}
		if id == "" {
			id = NewID()
			http.SetCookie(w, &http.Cookie{
				Name:     m.cookie,
				Value:    m.Encode(id),
				Path:     "/",
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

type contextKey struct{}

// WithID returns a copy of ctx carrying the session ID.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the session ID stored in ctx, or "" if none.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
