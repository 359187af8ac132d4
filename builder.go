package sessionauth

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/sessionauth/internal/audit"
	"github.com/MrEthical07/sessionauth/password"
	"github.com/MrEthical07/sessionauth/session"
)

// Builder assembles an Engine. A Builder is single use: Build may succeed at
// most once.
type Builder[K LoginKey, ID comparable, D any, U Principal[K, ID]] struct {
	config    Config
	lookup    LookupFunc[K, U]
	hasher    password.Hasher
	generator session.Generator
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder with DefaultConfig.
func New[K LoginKey, ID comparable, D any, U Principal[K, ID]]() *Builder[K, ID, D, U] {
	return &Builder[K, ID, D, U]{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder[K, ID, D, U]) WithConfig(cfg Config) *Builder[K, ID, D, U] {
	b.config = cfg
	return b
}

// WithLookup sets the login-key lookup. It is required.
func (b *Builder[K, ID, D, U]) WithLookup(lookup LookupFunc[K, U]) *Builder[K, ID, D, U] {
	b.lookup = lookup
	return b
}

// WithHasher overrides the hasher otherwise built from Config.Password.
func (b *Builder[K, ID, D, U]) WithHasher(h password.Hasher) *Builder[K, ID, D, U] {
	b.hasher = h
	return b
}

// WithSessionGenerator overrides session.New as the token source.
func (b *Builder[K, ID, D, U]) WithSessionGenerator(gen session.Generator) *Builder[K, ID, D, U] {
	b.generator = gen
	return b
}

func (b *Builder[K, ID, D, U]) WithLogger(logger *slog.Logger) *Builder[K, ID, D, U] {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination and enables auditing.
func (b *Builder[K, ID, D, U]) WithAuditSink(sink AuditSink) *Builder[K, ID, D, U] {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

func (b *Builder[K, ID, D, U]) WithMetricsEnabled(enabled bool) *Builder[K, ID, D, U] {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder[K, ID, D, U]) WithLatencyHistograms(enabled bool) *Builder[K, ID, D, U] {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the engine.
func (b *Builder[K, ID, D, U]) Build() (*Engine[K, ID, D, U], error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.lookup == nil {
		return nil, errors.New("lookup function required")
	}

	hasher := b.hasher
	if hasher == nil {
		h, err := cfg.Password.NewHasher()
		if err != nil {
			return nil, err
		}
		hasher = h
	}

	generator := b.generator
	if generator == nil {
		generator = session.New
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	engine := &Engine[K, ID, D, U]{
		lookup:         b.lookup,
		hasher:         hasher,
		generate:       generator,
		cookies:        session.NewCookieManager(cfg.Cookie),
		equalizeTiming: cfg.Login.EqualizeTiming,
		obs: instruments{
			logger:  logger,
			metrics: NewMetrics(cfg.Metrics),
			audit: audit.NewDispatcher(audit.Config{
				Enabled:    cfg.Audit.Enabled,
				BufferSize: cfg.Audit.BufferSize,
				DropIfFull: cfg.Audit.DropIfFull,
			}, b.auditSink),
		},
	}

	b.built = true
	return engine, nil
}
