package sessionauth

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/sessionauth/password"
	"github.com/MrEthical07/sessionauth/session"
	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

const (
	// AlgorithmBcrypt selects password.Bcrypt.
	AlgorithmBcrypt = "bcrypt"
	// AlgorithmArgon2id selects password.Argon2.
	AlgorithmArgon2id = "argon2id"
)

// Config is the engine configuration. Build validates it once; it is not
// consulted for mutable state afterwards.
type Config struct {
	Cookie   session.CookieConfig `envPrefix:"COOKIE_"`
	Password PasswordConfig       `envPrefix:"PASSWORD_"`
	Login    LoginConfig          `envPrefix:"LOGIN_"`
	Metrics  MetricsConfig        `envPrefix:"METRICS_"`
	Audit    AuditConfig          `envPrefix:"AUDIT_"`
}

/*
====================================
SECTIONS
====================================
*/

// PasswordConfig selects the hasher built when none is supplied to the
// Builder.
type PasswordConfig struct {
	Algorithm  string          `env:"ALGORITHM"`
	BcryptCost int             `env:"BCRYPT_COST"`
	Argon2     password.Config `envPrefix:"ARGON2_"`
}

// LoginConfig controls login behavior.
type LoginConfig struct {
	// EqualizeTiming validates against a dummy hash when the login key is
	// unknown, so both failure kinds cost one hash validation.
	EqualizeTiming bool `env:"EQUALIZE_TIMING"`
}

type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when the Builder is given
// none: bcrypt at cost 12, the default cookie and timing equalization on.
func DefaultConfig() Config {
	return Config{
		Cookie: session.DefaultCookieConfig(),
		Password: PasswordConfig{
			Algorithm:  AlgorithmBcrypt,
			BcryptCost: password.DefaultBcryptCost,
			Argon2:     password.DefaultArgon2Config(),
		},
		Login: LoginConfig{
			EqualizeTiming: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

// ConfigFromEnv overlays environment variables on DefaultConfig. With prefix
// "AUTH_" the cookie name is read from AUTH_COOKIE_NAME, the bcrypt cost from
// AUTH_PASSWORD_BCRYPT_COST and so on.
func ConfigFromEnv(prefix string) (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := c.Cookie.Validate(); err != nil {
		return err
	}

	switch c.Password.Algorithm {
	case AlgorithmBcrypt:
		if c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost {
			return fmt.Errorf("Password BcryptCost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
		}
	case AlgorithmArgon2id:
		if err := c.Password.Argon2.Validate(); err != nil {
			return err
		}
	default:
		return errors.New("unsupported password algorithm")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}

// NewHasher builds the configured hasher.
func (c PasswordConfig) NewHasher() (password.Hasher, error) {
	switch c.Algorithm {
	case AlgorithmBcrypt, "":
		cost := c.BcryptCost
		if cost == 0 {
			cost = password.DefaultBcryptCost
		}
		return password.NewBcrypt(cost)
	case AlgorithmArgon2id:
		return password.NewArgon2(c.Argon2)
	default:
		return nil, errors.New("unsupported password algorithm")
	}
}
