package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/avelis/shopfront/internal/domain"
)

type contextKey string

const (
	sessionKey contextKey = "session_id"
	userKey    contextKey = "user"
)

const sessionCookie = "shopfront_session"

const (
	authNameHeader  = "X-Auth-Name"
	authEmailHeader = "X-Auth-Email"
)

// SessionMiddleware scopes each browser to a session ID carried in a cookie.
// The cart store is keyed by this ID.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			sessionID = cookie.Value
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionKey).(string); ok {
		return sessionID
	}
	return ""
}

// IdentityMiddleware picks up the shopper identity the auth gateway forwards
// in headers. Anonymous requests carry no headers and stay anonymous.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := r.Header.Get(authEmailHeader)
		if email == "" {
			next.ServeHTTP(w, r)
			return
		}

		user := &domain.User{Name: r.Header.Get(authNameHeader), Email: email}
		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextIdentity reports the shopper that IdentityMiddleware stored on the
// request context. Anonymous requests resolve to no user.
type ContextIdentity struct{}

func (ContextIdentity) AuthenticatedUser(ctx context.Context) (*domain.User, error) {
	if user, ok := ctx.Value(userKey).(*domain.User); ok {
		return user, nil
	}
	return nil, nil
}
