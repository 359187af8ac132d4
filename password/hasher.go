package password

import "errors"

// ErrEmptyPassword is returned by Hash when the plaintext is empty.
var ErrEmptyPassword = errors.New("password must not be empty")

// ErrPasswordTooLong is returned by Hash when the algorithm cannot accept
// the plaintext length.
var ErrPasswordTooLong = errors.New("password too long")

// Hasher produces and checks password hashes.
//
// Implementations must be safe for concurrent use.
type Hasher interface {
	// Hash returns a salted hash of raw. Two calls with the same input return
	// different encodings.
	Hash(raw string) (string, error)

	// Validate reports whether raw verifies against hashed. It returns false,
	// never panics, for malformed hashes.
	Validate(raw, hashed string) bool
}
