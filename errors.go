package sessionauth

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/sessionauth/session"
)

var (
	// ErrUserNotFound reports that no user has the login key, or that a
	// session points at a user that no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials reports a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound reports an unknown session. It is the same value as
	// session.ErrNotFound so store errors match without translation.
	ErrSessionNotFound = session.ErrNotFound
	// ErrUserAlreadyExists reports a registration for a login key in use.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidUser reports a registration request that cannot be accepted.
	ErrInvalidUser = errors.New("invalid user")
	// ErrSessionCreationFailed reports a failing CreateSessionFunc.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrStageOrder reports a lifecycle transition out of order.
	ErrStageOrder = errors.New("user entity stage order violated")
	// ErrDetailsRequired reports hashing a shell without details.
	ErrDetailsRequired = errors.New("user details required")
	// ErrEngineNotReady is returned by operations on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
)

// AuthenticationError is returned by Login and LoginAndCreate. Kind is
// ErrUserNotFound or ErrInvalidCredentials.
type AuthenticationError struct {
	Kind     error
	LoginKey string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for %q: %v", e.LoginKey, e.Kind)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Kind
}

// SessionError is returned by SessionLogin. Kind is ErrSessionNotFound or
// ErrUserNotFound. LoginKey is set when the lookup reported one.
type SessionError struct {
	Kind     error
	Session  session.Session
	LoginKey string
}

func (e *SessionError) Error() string {
	if e.LoginKey != "" {
		return fmt.Sprintf("session login failed for %q: %v", e.LoginKey, e.Kind)
	}
	return fmt.Sprintf("session login failed: %v", e.Kind)
}

func (e *SessionError) Unwrap() error {
	return e.Kind
}

// RegistrationError is returned by Register and RegisterEntity. Kind is
// ErrUserAlreadyExists or ErrInvalidUser.
type RegistrationError struct {
	Kind     error
	LoginKey string
	Reason   string
}

func (e *RegistrationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("registration of %q rejected: %v: %s", e.LoginKey, e.Kind, e.Reason)
	}
	return fmt.Sprintf("registration of %q rejected: %v", e.LoginKey, e.Kind)
}

func (e *RegistrationError) Unwrap() error {
	return e.Kind
}
