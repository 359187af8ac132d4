package sessionauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/sessionauth/internal/audit"
	"github.com/MrEthical07/sessionauth/password"
	"github.com/MrEthical07/sessionauth/session"
)

// dummyPassword is hashed once per engine when timing equalization is on.
const dummyPassword = "sessionauth-timing-equalization"

// Engine authenticates principals of type U, keyed by K, identified by ID and
// registered with details D. It holds no user or session state: the lookup
// fixed at build time and the per-call callbacks own all storage.
//
// An Engine is safe for concurrent use once built.
type Engine[K LoginKey, ID comparable, D any, U Principal[K, ID]] struct {
	lookup   LookupFunc[K, U]
	hasher   password.Hasher
	generate session.Generator
	cookies  *session.CookieManager

	equalizeTiming bool
	dummyOnce      sync.Once
	dummyHash      string

	obs instruments
}

// CookieManager returns the manager built from Config.Cookie.
func (e *Engine[K, ID, D, U]) CookieManager() *session.CookieManager {
	if e == nil {
		return nil
	}
	return e.cookies
}

// MetricsSnapshot copies the engine counters. It is empty when metrics are
// disabled.
func (e *Engine[K, ID, D, U]) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.obs.metrics == nil {
		return emptySnapshot()
	}
	return e.obs.metrics.Snapshot()
}

// AuditDropped reports audit events discarded because the buffer was full.
func (e *Engine[K, ID, D, U]) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.obs.audit.Dropped()
}

// Close flushes and stops the audit dispatcher.
func (e *Engine[K, ID, D, U]) Close() {
	if e == nil {
		return
	}
	e.obs.close()
}

func (e *Engine[K, ID, D, U]) ready() bool {
	return e != nil && e.lookup != nil && e.hasher != nil && e.generate != nil
}

/*
====================================
LOGIN
====================================
*/

// Login verifies creds and returns a fresh session. The session is not
// recorded anywhere; use LoginAndCreate to persist the mapping.
//
// Failures are *AuthenticationError with Kind ErrUserNotFound or
// ErrInvalidCredentials. Lookup failures other than ErrUserNotFound are
// returned wrapped.
func (e *Engine[K, ID, D, U]) Login(ctx context.Context, creds RawCredentials[K]) (session.Session, error) {
	s, _, err := e.authenticate(ctx, creds)
	return s, err
}

// LoginAndCreate is Login followed by create(ctx, session, userID). When
// create fails no session is returned and the error matches
// ErrSessionCreationFailed and the cause.
func (e *Engine[K, ID, D, U]) LoginAndCreate(ctx context.Context, creds RawCredentials[K], create CreateSessionFunc[ID]) (session.Session, error) {
	if create == nil {
		return session.Session{}, fmt.Errorf("%w: nil create callback", ErrEngineNotReady)
	}

	s, user, err := e.authenticate(ctx, creds)
	if err != nil {
		return session.Session{}, err
	}

	id := user.UserID()
	if err := create(ctx, s, id); err != nil {
		e.obs.inc(MetricSessionCreateFailed)
		e.obs.emit(ctx, audit.EventSessionCreateFailure, creds.LoginKey.String(), fmt.Sprint(id), ErrSessionCreationFailed, nil)
		e.obs.debug(ctx, "session creation failed",
			slog.String("login_key", creds.LoginKey.String()),
			slog.Any("user_id", id),
			slog.String("reason", err.Error()),
		)
		return session.Session{}, fmt.Errorf("%w: %w", ErrSessionCreationFailed, err)
	}

	e.obs.inc(MetricSessionCreated)
	e.obs.emit(ctx, audit.EventSessionCreated, creds.LoginKey.String(), fmt.Sprint(id), nil, nil)
	return s, nil
}

func (e *Engine[K, ID, D, U]) authenticate(ctx context.Context, creds RawCredentials[K]) (session.Session, U, error) {
	var zero U
	if !e.ready() {
		return session.Session{}, zero, ErrEngineNotReady
	}

	start := time.Now()
	defer e.obs.observe(MetricLoginLatency, start)

	key := creds.LoginKey.String()

	user, err := e.lookup(ctx, creds.LoginKey)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			e.obs.emit(ctx, audit.EventLoginFailure, key, "", err, nil)
			return session.Session{}, zero, fmt.Errorf("lookup user: %w", err)
		}
		e.equalize(creds.Password)
		e.obs.inc(MetricLoginUserNotFound)
		e.obs.emit(ctx, audit.EventLoginFailure, key, "", ErrUserNotFound, nil)
		e.obs.debug(ctx, "login rejected", slog.String("login_key", key), slog.String("reason", "user_not_found"))
		return session.Session{}, zero, &AuthenticationError{Kind: ErrUserNotFound, LoginKey: key}
	}

	stored := user.Credentials()
	if !e.hasher.Validate(creds.Password.Reveal(), stored.Password.String()) {
		e.obs.inc(MetricLoginInvalidCredentials)
		e.obs.emit(ctx, audit.EventLoginFailure, key, fmt.Sprint(user.UserID()), ErrInvalidCredentials, nil)
		e.obs.debug(ctx, "login rejected", slog.String("login_key", key), slog.String("reason", "invalid_credentials"))
		return session.Session{}, zero, &AuthenticationError{Kind: ErrInvalidCredentials, LoginKey: key}
	}

	s, err := e.generate()
	if err != nil {
		e.obs.emit(ctx, audit.EventLoginFailure, key, fmt.Sprint(user.UserID()), err, nil)
		return session.Session{}, zero, fmt.Errorf("generate session: %w", err)
	}

	e.obs.inc(MetricLoginSuccess)
	e.obs.emit(ctx, audit.EventLoginSuccess, key, fmt.Sprint(user.UserID()), nil, nil)
	e.obs.debug(ctx, "login succeeded", slog.String("login_key", key), slog.Any("user_id", user.UserID()))
	return s, user, nil
}

// equalize spends one validation on a dummy hash so an unknown login key
// costs about as much as a wrong password.
func (e *Engine[K, ID, D, U]) equalize(raw RawPassword) {
	if !e.equalizeTiming {
		return
	}
	e.dummyOnce.Do(func() {
		hash, err := e.hasher.Hash(dummyPassword)
		if err == nil {
			e.dummyHash = hash
		}
	})
	if e.dummyHash == "" {
		return
	}
	_ = e.hasher.Validate(raw.Reveal(), e.dummyHash)
}

/*
====================================
SESSION LOGIN
====================================
*/

// SessionLogin resolves s to its user through lookup. The session is not
// refreshed or extended. A zero session fails with ErrSessionNotFound without
// calling lookup.
//
// Lookup errors matching ErrSessionNotFound or ErrUserNotFound are returned as
// *SessionError; any other lookup error is returned wrapped.
func (e *Engine[K, ID, D, U]) SessionLogin(ctx context.Context, s session.Session, lookup SessionLookupFunc[U]) (U, error) {
	var zero U
	if e == nil {
		return zero, ErrEngineNotReady
	}
	if lookup == nil {
		return zero, fmt.Errorf("%w: nil session lookup", ErrEngineNotReady)
	}

	if s.IsZero() {
		return zero, e.sessionFailure(ctx, &SessionError{Kind: ErrSessionNotFound})
	}

	user, err := lookup(ctx, s)
	if err == nil {
		e.obs.inc(MetricSessionLoginSuccess)
		e.obs.emit(ctx, audit.EventSessionLoginSuccess, "", fmt.Sprint(user.UserID()), nil, nil)
		return user, nil
	}

	var serr *SessionError
	switch {
	case errors.As(err, &serr):
		out := *serr
		out.Session = s
		return zero, e.sessionFailure(ctx, &out)
	case errors.Is(err, ErrSessionNotFound):
		return zero, e.sessionFailure(ctx, &SessionError{Kind: ErrSessionNotFound, Session: s})
	case errors.Is(err, ErrUserNotFound):
		return zero, e.sessionFailure(ctx, &SessionError{Kind: ErrUserNotFound, Session: s})
	default:
		e.obs.emit(ctx, audit.EventSessionLoginFailure, "", "", err, nil)
		return zero, fmt.Errorf("session lookup: %w", err)
	}
}

func (e *Engine[K, ID, D, U]) sessionFailure(ctx context.Context, err *SessionError) error {
	e.obs.inc(MetricSessionLoginFailure)
	e.obs.emit(ctx, audit.EventSessionLoginFailure, err.LoginKey, "", err.Kind, nil)
	e.obs.debug(ctx, "session login rejected", slog.String("reason", auditErrorCodeString(err.Kind)))
	return err
}

func auditErrorCodeString(err error) string {
	return string(auditErrorCode(err))
}

/*
====================================
REGISTRATION
====================================
*/

// Register builds a shell from creds and details and registers it. See
// RegisterEntity.
func (e *Engine[K, ID, D, U]) Register(ctx context.Context, creds RawCredentials[K], details D, persist PersistFunc[K, ID, D]) (UserEntity[K, ID, D], error) {
	shell, err := NewShell[K, ID, D](creds).WithDetails(details)
	if err != nil {
		return UserEntity[K, ID, D]{}, err
	}
	return e.RegisterEntity(ctx, shell, persist)
}

// RegisterEntity takes a shell with details through hashing, persistence and
// id assignment, and returns the identified entity.
//
// The shell is rejected with ErrInvalidUser when it is not a shell, has no
// details, or has an empty login key or password. A login key the engine's
// lookup resolves is rejected with ErrUserAlreadyExists and persist is not
// called. persist only ever sees a hashed entity; when it reports
// ErrUserAlreadyExists the error is normalized to a *RegistrationError.
func (e *Engine[K, ID, D, U]) RegisterEntity(ctx context.Context, shell UserEntity[K, ID, D], persist PersistFunc[K, ID, D]) (UserEntity[K, ID, D], error) {
	var none UserEntity[K, ID, D]
	if !e.ready() {
		return none, ErrEngineNotReady
	}
	if persist == nil {
		return none, fmt.Errorf("%w: nil persist callback", ErrEngineNotReady)
	}

	key := shell.LoginKey().String()

	if reason := invalidShellReason(shell); reason != "" {
		return none, e.registrationFailure(ctx, MetricRegisterInvalid, &RegistrationError{Kind: ErrInvalidUser, LoginKey: key, Reason: reason})
	}

	_, err := e.lookup(ctx, shell.LoginKey())
	switch {
	case err == nil:
		return none, e.registrationFailure(ctx, MetricRegisterDuplicate, &RegistrationError{Kind: ErrUserAlreadyExists, LoginKey: key})
	case !errors.Is(err, ErrUserNotFound):
		e.obs.emit(ctx, audit.EventRegisterFailure, key, "", err, nil)
		return none, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := shell.Hash(e.hasher)
	if err != nil {
		if errors.Is(err, password.ErrEmptyPassword) || errors.Is(err, password.ErrPasswordTooLong) {
			return none, e.registrationFailure(ctx, MetricRegisterInvalid, &RegistrationError{Kind: ErrInvalidUser, LoginKey: key, Reason: err.Error()})
		}
		e.obs.emit(ctx, audit.EventRegisterFailure, key, "", err, nil)
		return none, fmt.Errorf("hash password: %w", err)
	}

	id, err := persist(ctx, hashed)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return none, e.registrationFailure(ctx, MetricRegisterDuplicate, &RegistrationError{Kind: ErrUserAlreadyExists, LoginKey: key})
		}
		e.obs.emit(ctx, audit.EventRegisterFailure, key, "", err, nil)
		return none, fmt.Errorf("persist user: %w", err)
	}

	identified, err := hashed.AssignID(id)
	if err != nil {
		return none, err
	}

	e.obs.inc(MetricRegisterSuccess)
	e.obs.emit(ctx, audit.EventRegisterSuccess, key, fmt.Sprint(id), nil, nil)
	e.obs.debug(ctx, "user registered", slog.String("login_key", key), slog.Any("user_id", id))
	return identified, nil
}

func invalidShellReason[K LoginKey, ID comparable, D any](shell UserEntity[K, ID, D]) string {
	switch {
	case shell.Stage() != StageShell:
		return "entity is " + shell.Stage().String() + ", expected shell"
	case !shell.HasDetails():
		return "details required"
	case shell.LoginKey().String() == "":
		return "empty login key"
	case shell.rawPassword() == "":
		return "empty password"
	default:
		return ""
	}
}

func (e *Engine[K, ID, D, U]) registrationFailure(ctx context.Context, metric MetricID, err *RegistrationError) error {
	e.obs.inc(metric)
	e.obs.emit(ctx, audit.EventRegisterFailure, err.LoginKey, "", err.Kind, nil)
	e.obs.debug(ctx, "registration rejected",
		slog.String("login_key", err.LoginKey),
		slog.String("reason", auditErrorCodeString(err.Kind)),
	)
	return err
}

/*
====================================
LOGOUT / DELETE
====================================
*/

// Logout removes every session of id through remove.
func (e *Engine[K, ID, D, U]) Logout(ctx context.Context, id ID, remove RemoveSessionsFunc[ID]) error {
	return delegate(ctx, e, "logout", MetricLogout, audit.EventLogout, "", fmt.Sprint(id), func(ctx context.Context) error {
		if remove == nil {
			return errNilCallback
		}
		return remove(ctx, id)
	})
}

// LogoutSession removes a single session through remove.
func (e *Engine[K, ID, D, U]) LogoutSession(ctx context.Context, s session.Session, remove RemoveSessionFunc) error {
	return delegate(ctx, e, "logout", MetricLogout, audit.EventLogout, "", "", func(ctx context.Context) error {
		if remove == nil {
			return errNilCallback
		}
		return remove(ctx, s)
	})
}

// LogoutCredentials removes the sessions of the user owning creds. The
// engine does not verify creds; remove decides what they mean.
func (e *Engine[K, ID, D, U]) LogoutCredentials(ctx context.Context, creds RawCredentials[K], remove CredentialsFunc[K]) error {
	return delegate(ctx, e, "logout", MetricLogout, audit.EventLogout, creds.LoginKey.String(), "", func(ctx context.Context) error {
		if remove == nil {
			return errNilCallback
		}
		return remove(ctx, creds)
	})
}

// Delete removes the user id through del.
func (e *Engine[K, ID, D, U]) Delete(ctx context.Context, id ID, del DeleteFunc[ID]) error {
	return delegate(ctx, e, "delete", MetricDelete, audit.EventDelete, "", fmt.Sprint(id), func(ctx context.Context) error {
		if del == nil {
			return errNilCallback
		}
		return del(ctx, id)
	})
}

// DeleteCredentials removes the user owning creds through del.
func (e *Engine[K, ID, D, U]) DeleteCredentials(ctx context.Context, creds RawCredentials[K], del CredentialsFunc[K]) error {
	return delegate(ctx, e, "delete", MetricDelete, audit.EventDelete, creds.LoginKey.String(), "", func(ctx context.Context) error {
		if del == nil {
			return errNilCallback
		}
		return del(ctx, creds)
	})
}

var errNilCallback = errors.New("nil callback")

func delegate[K LoginKey, ID comparable, D any, U Principal[K, ID]](
	ctx context.Context,
	e *Engine[K, ID, D, U],
	op string,
	metric MetricID,
	eventType string,
	loginKey string,
	userID string,
	fn func(context.Context) error,
) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := fn(ctx); err != nil {
		e.obs.emit(ctx, eventType, loginKey, userID, err, nil)
		return fmt.Errorf("%s: %w", op, err)
	}

	e.obs.inc(metric)
	e.obs.emit(ctx, eventType, loginKey, userID, nil, nil)
	return nil
}
