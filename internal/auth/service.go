package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jw6ventures/timeclock/internal/clock"
	"github.com/jw6ventures/timeclock/internal/config"
	httperrors "github.com/jw6ventures/timeclock/internal/http/errors"
	"github.com/jw6ventures/timeclock/internal/store"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLength = 8

// dummyHash keeps login timing similar for unknown accounts.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timeclock-placeholder"), bcrypt.DefaultCost)

// Service implements local email/password accounts backed by server-side sessions.
type Service struct {
	users           store.UserRepository
	sessions        store.SessionRepository
	cookies         *SessionManager
	defaultTimezone string
	now             func() time.Time
}

func NewService(cfg *config.Config, st *store.Store, cookies *SessionManager) *Service {
	return &Service{
		users:           st.Users,
		sessions:        st.Sessions,
		cookies:         cookies,
		defaultTimezone: cfg.DefaultTimezone,
		now:             time.Now,
	}
}

// Register creates an account. An empty timezone falls back to the configured default.
func (s *Service) Register(ctx context.Context, email, password, timezone string) (*store.User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, clock.InvalidField("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, clock.InvalidField("password must be at least %d characters", minPasswordLength)
	}
	if timezone == "" {
		timezone = s.defaultTimezone
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, clock.InvalidField("unknown timezone %q", timezone)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Create(ctx, email, string(hash), timezone)
}

// Authenticate checks an email/password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*store.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Timezone string `json:"timezone"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Timezone string `json:"timezone"`
}

func toUserResponse(u *store.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Timezone: u.Timezone}
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&c); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid JSON body")
		return c, false
	}
	return c, true
}

// HandleRegister creates an account and signs it in.
func (s *Service) HandleRegister(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	user, err := s.Register(r.Context(), c.Email, c.Password, c.Timezone)
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	if err := s.startSession(w, r.Context(), user.ID); err != nil {
		httperrors.InternalError(w, r, err, "failed to start session")
		return
	}
	httperrors.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// HandleLogin verifies credentials and issues a session cookie.
func (s *Service) HandleLogin(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	user, err := s.Authenticate(r.Context(), c.Email, c.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		httperrors.Unauthorized(w)
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "login failed")
		return
	}
	if err := s.startSession(w, r.Context(), user.ID); err != nil {
		httperrors.InternalError(w, r, err, "failed to start session")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleLogout revokes the current session and clears the cookie.
func (s *Service) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sid := SessionIDFromContext(r.Context()); sid != "" {
		if err := s.sessions.Revoke(r.Context(), sid); err != nil {
			httperrors.LogError(r, "revoke session", err)
		}
	}
	s.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the signed-in user.
func (s *Service) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Service) startSession(w http.ResponseWriter, ctx context.Context, userID int64) error {
	sess, err := s.sessions.Create(ctx, userID, s.now().Add(s.cookies.MaxAge()))
	if err != nil {
		return err
	}
	return s.cookies.Issue(w, sess.ID, sess.ExpiresAt)
}

// RequireSession loads the session and user for the request or answers 401.
func (s *Service) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, ok := s.cookies.SessionID(r)
		if !ok {
			httperrors.Unauthorized(w)
			return
		}

		ctx := r.Context()
		sess, err := s.sessions.GetByID(ctx, sid)
		if errors.Is(err, store.ErrNotFound) {
			s.cookies.Clear(w)
			httperrors.Unauthorized(w)
			return
		}
		if err != nil {
			httperrors.InternalError(w, r, err, "load session")
			return
		}
		if !sess.Active(s.now()) {
			s.cookies.Clear(w)
			httperrors.Unauthorized(w)
			return
		}

		user, err := s.users.GetByID(ctx, sess.UserID)
		if errors.Is(err, store.ErrNotFound) {
			httperrors.Unauthorized(w)
			return
		}
		if err != nil {
			httperrors.InternalError(w, r, err, "load user")
			return
		}
		if err := s.sessions.TouchLastUsed(ctx, sid); err != nil {
			httperrors.LogError(r, "touch session", err)
		}

		ctx = WithSessionID(WithUser(ctx, user), sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
