package session

import (
	"log/slog"

	"github.com/google/uuid"
)

// Session is an opaque, unguessable session token. It is a comparable value
// type and can be used as a map key.
type Session struct {
	value string
}

// Generator produces fresh session tokens.
type Generator func() (Session, error)

// New returns a random (version 4) token.
func New() (Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return Session{}, err
	}
	return Session{value: id.String()}, nil
}

// FromString wraps token text received from a client, e.g. a cookie value.
// No format check is applied: unknown tokens simply fail lookup.
func FromString(token string) Session {
	return Session{value: token}
}

// String returns the canonical text form sent to clients.
func (s Session) String() string {
	return s.value
}

// IsZero reports whether s is the empty token.
func (s Session) IsZero() bool {
	return s.value == ""
}

// LogValue keeps token text out of structured logs.
func (s Session) LogValue() slog.Value {
	if s.IsZero() {
		return slog.StringValue("")
	}
	return slog.StringValue("[redacted]")
}
