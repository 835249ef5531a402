// Package auth handles login sessions. Identity is stored in an scs
// session cookie and surfaced to handlers as claims.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/wshao/campus-market/api/web"
	"github.com/wshao/campus-market/api/weberr"
	"github.com/wshao/campus-market/core/claims"
)

const (
	sessionEmail = "email"
	sessionName  = "name"
	sessionRole  = "role"
)

// LoadAndSave adapts the scs middleware to the Handler signature. It must
// run before any middleware touching the session.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			wrapped := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			wrapped.ServeHTTP(w, r)

			return err
		}
		return h
	}
	return m
}

// Authenticate rejects requests without a logged-in session and attaches
// the claims to the context.
func Authenticate(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			email := sm.GetString(ctx, sessionEmail)
			if email == "" {
				return weberr.NotAuthorized(errors.New("no authenticated session"))
			}

			ctx = claims.Set(ctx, claims.Claims{
				Email: email,
				Name:  sm.GetString(ctx, sessionName),
				Role:  sm.GetString(ctx, sessionRole),
			})

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Admin additionally requires the ADMIN role.
func Admin(sm *scs.SessionManager) web.Middleware {
	authen := Authenticate(sm)
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				return weberr.NotAuthorized(errors.New("admin role required"))
			}
			return handler(ctx, w, r)
		}
		return authen(h)
	}
	return m
}
