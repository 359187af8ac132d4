package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/session"
)

type testUser struct {
	ID int64
}

// fakeAuth resolves sessions from a map and counts lookups.
type fakeAuth struct {
	sessions map[session.Session]testUser
	calls    int
	err      error
	cookies  *session.CookieManager
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		sessions: make(map[session.Session]testUser),
		cookies:  session.NewCookieManager(session.DefaultCookieConfig()),
	}
}

func (f *fakeAuth) SessionLogin(ctx context.Context, s session.Session, lookup sessionauth.SessionLookupFunc[testUser]) (testUser, error) {
	f.calls++
	if f.err != nil {
		return testUser{}, f.err
	}
	return lookup(ctx, s)
}

func (f *fakeAuth) CookieManager() *session.CookieManager {
	return f.cookies
}

func (f *fakeAuth) lookup(_ context.Context, s session.Session) (testUser, error) {
	u, ok := f.sessions[s]
	if !ok {
		return testUser{}, &sessionauth.SessionError{Kind: sessionauth.ErrSessionNotFound, Session: s}
	}
	return u, nil
}

func okHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func request(path string, cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func TestExemptPathPassesWithoutCookieWork(t *testing.T) {
	auth := newFakeAuth()
	h := Deny[testUser](auth, auth.lookup, WithExempt("/login", "/register"))(okHandler(t))

	for _, c := range []*http.Cookie{nil, {Name: "session", Value: "garbage"}} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request("/login", c))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on exempt path, got %d", rec.Code)
		}
		if rec.Header().Get("Set-Cookie") != "" {
			t.Fatal("exempt path must not touch cookies")
		}
	}
	if auth.calls != 0 {
		t.Fatalf("expected no session lookups, got %d", auth.calls)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("/login/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("exemption must be exact, got %d", rec.Code)
	}
}

func TestDenyRejectsMissingAndInvalidIdentically(t *testing.T) {
	auth := newFakeAuth()
	h := Deny[testUser](auth, auth.lookup)(okHandler(t))

	missing := httptest.NewRecorder()
	h.ServeHTTP(missing, request("/ping", nil))

	invalid := httptest.NewRecorder()
	h.ServeHTTP(invalid, request("/ping", &http.Cookie{Name: "session", Value: "removed"}))

	for _, rec := range []*httptest.ResponseRecorder{missing, invalid} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if rec.Header().Get("Set-Cookie") != "" {
			t.Fatal("rejection must not issue a cookie")
		}
	}
	if missing.Body.String() != invalid.Body.String() {
		t.Fatalf("responses differ: %q vs %q", missing.Body.String(), invalid.Body.String())
	}
	if auth.calls != 1 {
		t.Fatalf("expected one lookup for the invalid cookie only, got %d", auth.calls)
	}
}

func TestRedirectPolicy(t *testing.T) {
	auth := newFakeAuth()
	h := Redirect[testUser](auth, auth.lookup, "/login")(okHandler(t))

	for _, c := range []*http.Cookie{nil, {Name: "session", Value: "removed"}} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request("/ping", c))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/login" {
			t.Fatalf("expected Location /login, got %q", got)
		}
	}
}

func TestAuthenticatedRequestGetsReissuedCookie(t *testing.T) {
	auth := newFakeAuth()
	s := session.FromString("tok-1")
	auth.sessions[s] = testUser{ID: 1}

	var seenUser testUser
	var seenSession session.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext[testUser](r.Context())
		if !ok {
			t.Fatal("user missing from context")
		}
		seenUser = u
		seenSession, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	h := Deny[testUser](auth, auth.lookup)(next)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("/ping", &http.Cookie{Name: "session", Value: "tok-1"}))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected downstream status, got %d", rec.Code)
	}
	if seenUser.ID != 1 || seenSession != s {
		t.Fatalf("unexpected context values %+v %v", seenUser, seenSession)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one reissued cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "session" || c.Value != "tok-1" {
		t.Fatalf("expected same token reissued, got %s=%s", c.Name, c.Value)
	}
	if c.MaxAge != 15552000 || !c.Secure || !c.HttpOnly || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attributes %+v", c)
	}
	if auth.calls != 1 {
		t.Fatalf("expected exactly one lookup, got %d", auth.calls)
	}
}

func TestAlternateAuthenticatedHandler(t *testing.T) {
	auth := newFakeAuth()
	auth.sessions[session.FromString("tok")] = testUser{ID: 2}

	alt := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	h := Deny[testUser](auth, auth.lookup, WithAuthenticatedHandler(alt), WithExempt("/open"))(okHandler(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("/ping", &http.Cookie{Name: "session", Value: "tok"}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected alternate handler, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request("/open", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("exempt path must use the wrapped handler, got %d", rec.Code)
	}
}

func TestLookupTransportErrorRejectsWithoutDetail(t *testing.T) {
	auth := newFakeAuth()
	auth.err = errors.New("redis: connection refused")
	h := Deny[testUser](auth, auth.lookup)(okHandler(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("/ping", &http.Cookie{Name: "session", Value: "tok"}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "unauthorized\n" {
		t.Fatalf("error detail leaked: %q", body)
	}
}

func TestCustomCookieManager(t *testing.T) {
	auth := newFakeAuth()
	auth.sessions[session.FromString("tok")] = testUser{ID: 3}
	custom := session.NewCookieManager(session.CookieConfig{Name: "sid", HTTPOnly: false})

	h := Deny[testUser](auth, auth.lookup, WithCookieManager(custom))(okHandler(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("/ping", &http.Cookie{Name: "session", Value: "tok"}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("default cookie name must be ignored, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request("/ping", &http.Cookie{Name: "sid", Value: "tok"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].Name != "sid" || c[0].HttpOnly {
		t.Fatalf("unexpected reissued cookie %+v", c)
	}
}
