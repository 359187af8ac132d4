package sessionauth

import (
	"context"
	"log/slog"

	"github.com/MrEthical07/sessionauth/password"
	"github.com/MrEthical07/sessionauth/session"
)

// LoginKey is the identifier a principal logs in with. Keys are compared by
// value; String returns the text handed to lookups and logs.
type LoginKey interface {
	comparable
	String() string
}

// Email is an email-shaped login key.
type Email string

func (e Email) String() string { return string(e) }

// Username is a free-form login name.
type Username string

func (u Username) String() string { return string(u) }

// RawPassword is plaintext as received from a client. It must never be
// persisted and prints redacted.
type RawPassword string

// String never returns the password text.
func (RawPassword) String() string { return "[redacted]" }

// LogValue keeps the password out of structured logs.
func (RawPassword) LogValue() slog.Value { return slog.StringValue("[redacted]") }

// Reveal returns the plaintext for hashing or validation.
func (p RawPassword) Reveal() string { return string(p) }

// HashedPassword is the persisted, encoded hash of a password.
type HashedPassword string

func (h HashedPassword) String() string { return string(h) }

// RawCredentials pair a login key with a plaintext password.
type RawCredentials[K LoginKey] struct {
	LoginKey K
	Password RawPassword
}

// Hash is the only way to turn raw input into HashedCredentials.
func (c RawCredentials[K]) Hash(h password.Hasher) (HashedCredentials[K], error) {
	encoded, err := h.Hash(c.Password.Reveal())
	if err != nil {
		return HashedCredentials[K]{}, err
	}
	return HashedCredentials[K]{
		LoginKey: c.LoginKey,
		Password: HashedPassword(encoded),
	}, nil
}

// HashedCredentials pair a login key with a stored password hash.
type HashedCredentials[K LoginKey] struct {
	LoginKey K
	Password HashedPassword
}

// Principal is what the engine needs from a stored user.
type Principal[K LoginKey, ID comparable] interface {
	UserID() ID
	Credentials() HashedCredentials[K]
}

// LookupFunc resolves a login key to a stored user. It returns an error
// matching ErrUserNotFound when no user has the key.
type LookupFunc[K LoginKey, U any] func(ctx context.Context, key K) (U, error)

// SessionLookupFunc resolves a session to its user. It returns an error
// matching ErrSessionNotFound for unknown sessions and ErrUserNotFound when
// the mapped user no longer exists.
type SessionLookupFunc[U any] func(ctx context.Context, s session.Session) (U, error)

// CreateSessionFunc records the mapping from a new session to its user.
type CreateSessionFunc[ID comparable] func(ctx context.Context, s session.Session, id ID) error

// PersistFunc stores a hashed entity and returns the id it was assigned.
// Returning an error matching ErrUserAlreadyExists reports a uniqueness
// violation detected by storage.
type PersistFunc[K LoginKey, ID comparable, D any] func(ctx context.Context, entity UserEntity[K, ID, D]) (ID, error)

// RemoveSessionsFunc removes every session of a user.
type RemoveSessionsFunc[ID comparable] func(ctx context.Context, id ID) error

// RemoveSessionFunc removes a single session.
type RemoveSessionFunc func(ctx context.Context, s session.Session) error

// CredentialsFunc acts on the user owning the given credentials.
type CredentialsFunc[K LoginKey] func(ctx context.Context, creds RawCredentials[K]) error

// DeleteFunc deletes a user.
type DeleteFunc[ID comparable] func(ctx context.Context, id ID) error
