package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/storefront/internal/auth"
)

// CookieName is the name of the session cookie.
const CookieName = "storefront_session"

type contextKey string

const sessionKey contextKey = "session"

// Manager ties the session cookie to a Store.
type Manager struct {
	Store  Store
	Secret string
	TTL    time.Duration
	// Secure marks the cookie as HTTPS only.
	Secure bool
}

// NewManager creates a manager. ttl bounds both the cookie and the stored session.
func NewManager(st Store, secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{Store: st, Secret: secret, TTL: ttl, Secure: secure}
}

// Middleware loads the browser's session (or starts a new one) and adds it
// to the request context. The cookie is reissued when missing, invalid, or
// past half its lifetime.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, reissue := m.load(r)
		if reissue {
			if err := m.setCookie(w, sess.ID); err != nil {
				slog.Error("failed to issue session cookie", "error", err)
			}
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
	})
}

func (m *Manager) load(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return New(), true
	}

	claims, err := auth.ValidateToken(m.Secret, cookie.Value)
	if err != nil {
		slog.Debug("discarding session cookie", "error", err)
		return New(), true
	}

	reissue := time.Until(claims.ExpiresAt.Time) < m.TTL/2

	sess, err := m.Store.Get(r.Context(), claims.SessionID())
	if errors.Is(err, ErrNotFound) {
		// The cookie is genuine but its state is gone; keep the id.
		return newWithID(claims.SessionID()), reissue
	}
	if err != nil {
		slog.Error("failed to load session", "error", err)
		return New(), true
	}
	return sess, reissue
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	if err := m.Store.Save(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Destroy deletes the session and clears the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, sess *Session) error {
	clearCookie(w, m.Secure)
	if err := m.Store.Delete(r.Context(), sess.ID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) error {
	token, err := auth.GenerateToken(m.Secret, id, m.TTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// clearCookie clears the session cookie with consistent attributes.
func clearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// NewContext returns a context carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// FromContext returns the session stored by Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey).(*Session)
	return sess
}

// GenerateSecret returns a random signing secret for deployments that
// configure none and keep no settings database.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
