package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used by [NewDefaultBcrypt].
const DefaultBcryptCost = 12

// maxBcryptBytes is the input limit of the bcrypt algorithm.
const maxBcryptBytes = 72

// Bcrypt hashes passwords with bcrypt at a fixed cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher using cost. Costs outside
// [bcrypt.MinCost, bcrypt.MaxCost] are rejected.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

// NewDefaultBcrypt returns a bcrypt hasher at [DefaultBcryptCost].
func NewDefaultBcrypt() *Bcrypt {
	return &Bcrypt{cost: DefaultBcryptCost}
}

// Cost reports the configured work factor.
func (b *Bcrypt) Cost() int {
	return b.cost
}

// Hash returns the bcrypt encoding of raw. Inputs longer than 72 bytes are
// rejected rather than silently truncated.
func (b *Bcrypt) Hash(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmptyPassword
	}
	if len(raw) > maxBcryptBytes {
		return "", fmt.Errorf("%w: bcrypt accepts at most %d bytes", ErrPasswordTooLong, maxBcryptBytes)
	}

	out, err := bcrypt.GenerateFromPassword([]byte(raw), b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Validate reports whether raw matches the bcrypt hash.
func (b *Bcrypt) Validate(raw, hashed string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(raw)) == nil
}
