package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/cafedash/cafeapi"
	"github.com/ray-remotestate/cafedash/models"
)

const (
	CookieName = "cafedash_session"
	LoginPath  = "/login"

	sessionIDKey = "sid"
	cookieMaxAge = 7 * 24 * 60 * 60
)

// Authenticator is the slice of the café API the manager needs to log a
// user in. *cafeapi.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.Tokens, error)
	Me(ctx context.Context, sess *models.Session) (*models.User, error)
}

// Manager binds a browser cookie to a stored session.
type Manager struct {
	store   Store
	cookies sessions.Store
	auth    Authenticator
}

func NewManager(store Store, auth Authenticator, secret []byte, secure bool) *Manager {
	cookies := sessions.NewCookieStore(secret)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store, cookies: cookies, auth: auth}
}

// Login exchanges credentials for tokens, caches the user profile and binds
// the new session to the response cookie. Nothing is stored when any step
// fails.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, username, password string) (*models.Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, &cafeapi.ValidationError{Field: "credentials", Message: "Please fill in all fields"}
	}

	ctx := r.Context()
	tokens, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	user, err := m.auth.Me(ctx, &models.Session{AccessToken: tokens.AccessToken, TokenType: tokens.TokenType})
	if err != nil {
		return nil, err
	}

	sess, err := m.store.Create(ctx, *tokens, user)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := m.bind(w, r, sess.ID); err != nil {
		if delErr := m.store.Delete(ctx, sess.ID); delErr != nil {
			logrus.WithError(delErr).Error("failed to discard unbound session")
		}
		return nil, err
	}
	logrus.WithField("user", user.Username).Info("user logged in")
	return sess, nil
}

func (m *Manager) bind(w http.ResponseWriter, r *http.Request, id uuid.UUID) error {
	cookie, _ := m.cookies.Get(r, CookieName)
	cookie.Values[sessionIDKey] = id.String()
	if err := cookie.Save(r, w); err != nil {
		return fmt.Errorf("save session cookie: %w", err)
	}
	return nil
}

func (m *Manager) sessionID(r *http.Request) (uuid.UUID, bool) {
	cookie, err := m.cookies.Get(r, CookieName)
	if err != nil {
		return uuid.Nil, false
	}
	raw, ok := cookie.Values[sessionIDKey].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Current returns the session bound to the request cookie, or
// cafeapi.ErrNotAuthenticated when there is none.
func (m *Manager) Current(r *http.Request) (*models.Session, error) {
	id, ok := m.sessionID(r)
	if !ok {
		return nil, cafeapi.ErrNotAuthenticated
	}
	sess, err := m.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, cafeapi.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// AccessToken returns the stored access token or "".
func (m *Manager) AccessToken(r *http.Request) string {
	sess, err := m.Current(r)
	if err != nil {
		return ""
	}
	return sess.AccessToken
}

// User returns the cached user profile or nil.
func (m *Manager) User(r *http.Request) *models.User {
	sess, err := m.Current(r)
	if err != nil {
		return nil
	}
	return sess.User
}

func (m *Manager) SaveTokens(ctx context.Context, sess *models.Session, tokens models.Tokens) error {
	if err := m.store.SaveTokens(ctx, sess.ID, tokens); err != nil {
		return err
	}
	sess.AccessToken = tokens.AccessToken
	sess.RefreshToken = tokens.RefreshToken
	sess.TokenType = tokens.TokenType
	return nil
}

func (m *Manager) SaveUser(ctx context.Context, sess *models.Session, user *models.User) error {
	if err := m.store.SaveUser(ctx, sess.ID, user); err != nil {
		return err
	}
	sess.User = user
	return nil
}

// Logout discards the stored session and expires the cookie. It returns the
// id of the discarded session, or uuid.Nil if the request carried none. The
// cookie is expired even when the store fails to forget the session.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	var errs *multierror.Error
	id, ok := m.sessionID(r)
	if ok {
		if err := m.store.Delete(r.Context(), id); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("delete session: %w", err))
		}
	} else {
		id = uuid.Nil
	}

	cookie, _ := m.cookies.Get(r, CookieName)
	delete(cookie.Values, sessionIDKey)
	cookie.Options.MaxAge = -1
	if err := cookie.Save(r, w); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("expire session cookie: %w", err))
	}
	return id, errs.ErrorOrNil()
}
