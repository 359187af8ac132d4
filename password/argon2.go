package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash is returned by Verify for input that is not an Argon2id
// PHC string this package can check.
var ErrMalformedHash = errors.New("malformed argon2id hash")

// Lower bounds accepted by NewArgon2 and by Verify for stored parameters.
const (
	argon2MinMemoryKB  = 8 * 1024
	argon2MinTime      = 1
	argon2MinThreads   = 1
	argon2MinSaltBytes = 16
	argon2MinKeyBytes  = 16
	argon2Prefix       = "$argon2id$"
)

// PHC strings carry unpadded standard base64.
var phcEncoding = base64.RawStdEncoding

// Config holds the Argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory      uint32 `env:"MEMORY"`
	Time        uint32 `env:"TIME"`
	Parallelism uint8  `env:"PARALLELISM"`
	SaltLength  uint32 `env:"SALT_LENGTH"`
	KeyLength   uint32 `env:"KEY_LENGTH"`
}

// DefaultArgon2Config returns parameters with a cost comparable to bcrypt at
// work factor 12.
func DefaultArgon2Config() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate reports the first parameter below its floor.
func (c Config) Validate() error {
	switch {
	case c.Memory < argon2MinMemoryKB:
		return fmt.Errorf("argon2 memory must be >= %d KiB", argon2MinMemoryKB)
	case c.Time < argon2MinTime:
		return errors.New("argon2 time must be >= 1")
	case c.Parallelism < argon2MinThreads:
		return errors.New("argon2 parallelism must be >= 1")
	case c.SaltLength < argon2MinSaltBytes:
		return fmt.Errorf("argon2 salt length must be >= %d", argon2MinSaltBytes)
	case c.KeyLength < argon2MinKeyBytes:
		return fmt.Errorf("argon2 key length must be >= %d", argon2MinKeyBytes)
	}
	return nil
}

// Argon2 hashes passwords with Argon2id and encodes them as
//
//	$argon2id$v=19$m=<KiB>,t=<passes>,p=<threads>$<salt>$<key>
type Argon2 struct {
	cfg Config
}

// NewArgon2 validates cfg and returns a hasher using it.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Argon2{cfg: cfg}, nil
}

// Hash derives a key from raw with a fresh random salt. raw is used byte for
// byte; no Unicode normalization is applied.
func (a *Argon2) Hash(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, a.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	p := phc{
		memory:  a.cfg.Memory,
		time:    a.cfg.Time,
		threads: a.cfg.Parallelism,
		salt:    salt,
	}
	p.key = p.derive(raw, a.cfg.KeyLength)
	return p.String(), nil
}

// Verify checks raw against encoded. A mismatch is (false, nil); input that
// does not parse is an error matching ErrMalformedHash.
func (a *Argon2) Verify(raw, encoded string) (bool, error) {
	p, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	computed := p.derive(raw, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1, nil
}

// Validate is Verify with malformed input reported as a mismatch.
func (a *Argon2) Validate(raw, encoded string) bool {
	ok, err := a.Verify(raw, encoded)
	return err == nil && ok
}

// NeedsRehash reports whether encoded was produced with parameters other
// than the hasher's own, or cannot be parsed at all.
func (a *Argon2) NeedsRehash(encoded string) bool {
	p, err := parsePHC(encoded)
	if err != nil {
		return true
	}
	return p.memory != a.cfg.Memory ||
		p.time != a.cfg.Time ||
		p.threads != a.cfg.Parallelism ||
		uint32(len(p.key)) != a.cfg.KeyLength
}

type phc struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (p phc) derive(raw string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(raw), p.salt, p.time, p.memory, p.threads, keyLen)
}

func (p phc) String() string {
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		phcEncoding.EncodeToString(p.salt),
		phcEncoding.EncodeToString(p.key),
	)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedHash, fmt.Sprintf(format, args...))
}

func parsePHC(encoded string) (phc, error) {
	if !strings.HasPrefix(encoded, argon2Prefix) {
		return phc{}, malformed("missing %q prefix", argon2Prefix)
	}
	parts := strings.Split(strings.TrimPrefix(encoded, argon2Prefix), "$")
	if len(parts) != 4 {
		return phc{}, malformed("expected 4 fields after prefix, got %d", len(parts))
	}

	var version int
	if n, err := fmt.Sscanf(parts[0], "v=%d", &version); err != nil || n != 1 {
		return phc{}, malformed("bad version field %q", parts[0])
	}
	if version != argon2.Version {
		return phc{}, malformed("unsupported version %d", version)
	}

	var memory, time, threads uint32
	if n, err := fmt.Sscanf(parts[1], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil || n != 3 {
		return phc{}, malformed("bad parameter field %q", parts[1])
	}
	if memory < argon2MinMemoryKB || time < argon2MinTime || threads < argon2MinThreads || threads > 255 {
		return phc{}, malformed("parameters out of range")
	}

	salt, err := phcEncoding.DecodeString(parts[2])
	if err != nil || len(salt) < argon2MinSaltBytes {
		return phc{}, malformed("bad salt")
	}
	key, err := phcEncoding.DecodeString(parts[3])
	if err != nil || len(key) < argon2MinKeyBytes {
		return phc{}, malformed("bad key")
	}

	return phc{
		memory:  memory,
		time:    time,
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, nil
}
