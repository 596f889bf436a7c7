// Package middleware holds the session and role checks that run in front
// of protected handlers.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"microloan/auth"
	"microloan/handlers"
)

const bearerPrefix = "Bearer "

// Authenticate verifies the bearer token and attaches the caller's identity
// to the request context. A missing header is 401; a header that is not a
// valid bearer token is 403.
func Authenticate(tokens *auth.TokenService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			handlers.WriteError(w, handlers.Unauthenticated("missing authorization header"))
			return
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			handlers.WriteError(w, handlers.Forbidden("invalid authorization header"))
			return
		}

		id, err := tokens.Verify(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrExpired) {
				msg = "token expired"
			}
			handlers.WriteError(w, handlers.Forbidden(msg))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// Authorize evaluates the role policy for action before calling next.
func Authorize(action auth.Action, logger *logrus.Entry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFrom(r.Context())
		decision := auth.Decide(id, action, auth.Target{})
		if !decision.Allowed() {
			entry := logger.WithFields(logrus.Fields{
				"event":  "access_denied",
				"action": action,
				"reason": decision.Reason,
			})
			if id != nil {
				entry = entry.WithField("user_email", id.Email)
			}
			entry.Info("request denied by policy")
			handlers.WriteDecision(w, decision)
			return
		}
		next.ServeHTTP(w, r)
	})
}
