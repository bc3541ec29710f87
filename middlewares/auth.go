package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/cafedash/models"
	"github.com/ray-remotestate/cafedash/utils"
)

type ContextKey string

const (
	tokenContextKey   ContextKey = "token"
	sessionContextKey ContextKey = "session"
)

// SessionLoader resolves the session bound to a request.
// *session.Manager satisfies it.
type SessionLoader interface {
	Current(r *http.Request) (*models.Session, error)
}

// RequireBearer rejects requests without a usable bearer token. A JWT whose
// exp claim has passed counts as missing.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r)
		if err == nil && utils.TokenExpired(token, time.Now()) {
			err = errors.New("token expired")
		}
		if err != nil {
			logrus.WithField("path", r.URL.Path).Debugf("rejected request: %v", err)
			utils.WriteError(w, http.StatusUnauthorized, "Authorization required")
			return
		}
		ctx := context.WithValue(r.Context(), tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalBearer forwards the bearer token when the request has one.
func OptionalBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken returns the token stored by RequireBearer or OptionalBearer.
func BearerToken(r *http.Request) string {
	token, _ := r.Context().Value(tokenContextKey).(string)
	return token
}

// RequireSession rejects requests whose cookie does not resolve to a
// session.
func RequireSession(sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Current(r)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetSession(r *http.Request) (*models.Session, error) {
	sess, ok := r.Context().Value(sessionContextKey).(*models.Session)
	if !ok {
		return nil, errors.New("no session in context")
	}
	return sess, nil
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errors.New("invalid authorization format")
	}
	return parts[1], nil
}
