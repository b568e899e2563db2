package auth

import (
	"crypto/sha256"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/jw6ventures/timeclock/internal/config"
)

const sessionCookieName = "timeclock_session"

// SessionManager signs and encrypts the session id carried in the session cookie. The
// session itself lives in the auth_sessions table.
type SessionManager struct {
	cookieName string
	codec      *securecookie.SecureCookie
	maxAge     time.Duration
	secure     bool
}

func NewSessionManager(cfg *config.Config) *SessionManager {
	hash := sha256.Sum256([]byte(cfg.Session.Secret))
	hashKey := hash[:]

	// AES-256 block key derived from the same secret
	blockKey := hash[:]
	maxAge := cfg.Session.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(maxAge.Seconds()))
	sc.SetSerializer(securecookie.JSONEncoder{})

	secure := true
	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Scheme != "https" {
		secure = false
	}

	return &SessionManager{
		cookieName: sessionCookieName,
		codec:      sc,
		maxAge:     maxAge,
		secure:     secure,
	}
}

// MaxAge is the lifetime given to new sessions.
func (m *SessionManager) MaxAge() time.Duration {
	return m.maxAge
}

// Issue writes the cookie for a stored session.
func (m *SessionManager) Issue(w http.ResponseWriter, sessionID string, expiresAt time.Time) error {
	encoded, err := m.codec.Encode(m.cookieName, map[string]string{"sid": sessionID})
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
	})
}

// SessionID extracts the session id from the request cookie if it decodes.
func (m *SessionManager) SessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}

	var value map[string]string
	if err := m.codec.Decode(m.cookieName, c.Value, &value); err != nil {
		return "", false
	}
	sid := value["sid"]
	return sid, sid != ""
}
