// Package auth resolves the session cookie into an explicit Session
// value carried on the request context. Handlers never read ambient
// state; they take the session from the context the middleware built.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
)

// SessionCookieName is the HttpOnly cookie carrying the opaque session token.
const SessionCookieName = "pv_session"

type sessionContextKey struct{}

// WithSession returns a context carrying the given session.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFrom extracts the authenticated session from the context.
// It returns nil when the request was not authenticated.
func SessionFrom(ctx context.Context) *models.Session {
	session, _ := ctx.Value(sessionContextKey{}).(*models.Session)
	return session
}

// Middleware authenticates requests by resolving the session cookie.
// Requests without a valid, unexpired session receive a 401.
func Middleware(sessionRepo *datastore.SessionRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				webutil.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			tokenHash, err := webutil.GenerateHash(cookie.Value)
			if err != nil {
				log.Printf("ERROR (Auth): Failed to hash session token: %v", err)
				webutil.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			session, err := sessionRepo.GetSessionByTokenHash(r.Context(), tokenHash)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					webutil.RespondWithError(w, http.StatusUnauthorized, "Invalid session")
					return
				}
				log.Printf("ERROR (Auth): Session lookup failed: %v", err)
				webutil.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			if session.Expired(time.Now().UTC()) {
				webutil.RespondWithError(w, http.StatusUnauthorized, "Session expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireAdmin rejects authenticated requests from non-admin users.
// Must be mounted after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFrom(r.Context())
		if session == nil {
			webutil.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !session.IsAdmin() {
			webutil.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
