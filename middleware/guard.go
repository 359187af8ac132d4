package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/session"
)

// Authenticator is the part of sessionauth.Engine the guard needs.
type Authenticator[U any] interface {
	SessionLogin(ctx context.Context, s session.Session, lookup sessionauth.SessionLookupFunc[U]) (U, error)
	CookieManager() *session.CookieManager
}

type userContextKey struct{}
type sessionContextKey struct{}

// UserFromContext returns the user placed on the context by an accepting
// guard.
func UserFromContext[U any](ctx context.Context) (U, bool) {
	u, ok := ctx.Value(userContextKey{}).(U)
	return u, ok
}

// SessionFromContext returns the session the request was accepted with.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(session.Session)
	return s, ok
}

// Option configures a guard.
type Option func(*options)

type options struct {
	exempt        map[string]struct{}
	redirectTo    string
	authenticated http.Handler
	cookies       *session.CookieManager
	logger        *slog.Logger
}

// WithExempt adds paths served without any cookie work. Matching is exact
// string equality against r.URL.Path.
func WithExempt(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			o.exempt[p] = struct{}{}
		}
	}
}

// WithRedirect switches the rejection policy to 303 See Other with
// Location: location.
func WithRedirect(location string) Option {
	return func(o *options) {
		o.redirectTo = location
	}
}

// WithAuthenticatedHandler serves accepted requests with h instead of the
// wrapped handler.
func WithAuthenticatedHandler(h http.Handler) Option {
	return func(o *options) {
		o.authenticated = h
	}
}

// WithCookieManager overrides the engine's cookie manager for reading and
// reissuing the cookie.
func WithCookieManager(m *session.CookieManager) Option {
	return func(o *options) {
		o.cookies = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Deny is SessionAuth rejecting with 401.
func Deny[U any](auth Authenticator[U], lookup sessionauth.SessionLookupFunc[U], opts ...Option) func(http.Handler) http.Handler {
	return SessionAuth(auth, lookup, opts...)
}

// Redirect is SessionAuth rejecting with 303 to location.
func Redirect[U any](auth Authenticator[U], lookup sessionauth.SessionLookupFunc[U], location string, opts ...Option) func(http.Handler) http.Handler {
	return SessionAuth(auth, lookup, append(opts, WithRedirect(location))...)
}

// SessionAuth returns a guard that admits requests whose session cookie
// resolves through auth.SessionLogin(ctx, s, lookup).
func SessionAuth[U any](auth Authenticator[U], lookup sessionauth.SessionLookupFunc[U], opts ...Option) func(http.Handler) http.Handler {
	o := options{exempt: make(map[string]struct{})}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cookies == nil && auth != nil {
		o.cookies = auth.CookieManager()
	}
	if o.cookies == nil {
		o.cookies = session.NewCookieManager(session.DefaultCookieConfig())
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	return func(next http.Handler) http.Handler {
		accepted := next
		if o.authenticated != nil {
			accepted = o.authenticated
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := o.exempt[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			s, ok := o.cookies.Extract(r)
			if !ok {
				o.reject(w, r, "no_cookie")
				return
			}

			if auth == nil {
				o.reject(w, r, "no_authenticator")
				return
			}

			user, err := auth.SessionLogin(r.Context(), s, lookup)
			if err != nil {
				var serr *sessionauth.SessionError
				if !errors.As(err, &serr) {
					o.logger.WarnContext(r.Context(), "session lookup failed",
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
				}
				o.reject(w, r, "invalid_session")
				return
			}

			http.SetCookie(w, o.cookies.Create(s))

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			ctx = context.WithValue(ctx, sessionContextKey{}, s)
			accepted.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (o *options) reject(w http.ResponseWriter, r *http.Request, reason string) {
	o.logger.DebugContext(r.Context(), "request rejected",
		slog.String("path", r.URL.Path),
		slog.String("reason", reason),
	)

	if o.redirectTo != "" {
		w.Header().Set("Location", o.redirectTo)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
