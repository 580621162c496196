// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/jasim-space/showcase/internal/session"
)

// ContextKey is the type for request context keys set by middleware.
type ContextKey string

// ContextKeySession is the context key for the authenticated session.
const ContextKeySession ContextKey = "admin_session"

// RequireSession gates a route group behind the admin session token.
// Requests without a valid, unexpired token in the session header get
// a 401 with no detail about what was wrong with it.
func RequireSession(manager *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := manager.Parse(r.Header.Get(session.HeaderName), time.Now())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession injects a valid session into the context when the
// header carries one, but never rejects the request. Used on routes
// that serve extra detail to authenticated admins.
func OptionalSession(manager *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, err := manager.Parse(r.Header.Get(session.HeaderName), time.Now()); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ContextKeySession, sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSession retrieves the authenticated session from the request
// context. The second return is false outside RequireSession routes.
func GetSession(r *http.Request) (session.Session, bool) {
	sess, ok := r.Context().Value(ContextKeySession).(session.Session)
	return sess, ok
}
