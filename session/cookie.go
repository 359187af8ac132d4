package session

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultCookieName is the cookie name used when none is configured.
	DefaultCookieName = "session"
	// DefaultCookiePath scopes the cookie to the whole site.
	DefaultCookiePath = "/"
	// DefaultCookieTTL is 60*60*24*7*30 seconds (about 180 days).
	DefaultCookieTTL = 60 * 60 * 24 * 7 * 30 * time.Second
)

// CookieConfig controls the session cookie attributes. Secure and
// SameSite=Lax are always set.
type CookieConfig struct {
	Name     string        `env:"NAME"`
	Path     string        `env:"PATH"`
	TTL      time.Duration `env:"TTL"`
	HTTPOnly bool          `env:"HTTP_ONLY"`
}

// DefaultCookieConfig returns the default wire shape.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:     DefaultCookieName,
		Path:     DefaultCookiePath,
		TTL:      DefaultCookieTTL,
		HTTPOnly: true,
	}
}

// Validate reports configuration that would produce an unusable cookie.
func (c CookieConfig) Validate() error {
	if c.Name == "" || strings.ContainsAny(c.Name, " \t\r\n;,=") {
		return errors.New("cookie name must be a non-empty token")
	}
	if c.Path != "" && !strings.HasPrefix(c.Path, "/") {
		return errors.New("cookie path must start with /")
	}
	if c.TTL < 0 {
		return errors.New("cookie TTL must be >= 0")
	}
	return nil
}

// CookieManager issues, clears and reads session cookies.
type CookieManager struct {
	cfg CookieConfig
}

// NewCookieManager returns a manager for cfg. Empty Name, Path and TTL fall
// back to the defaults; HTTPOnly is taken as given.
func NewCookieManager(cfg CookieConfig) *CookieManager {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if cfg.Path == "" {
		cfg.Path = DefaultCookiePath
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultCookieTTL
	}
	return &CookieManager{cfg: cfg}
}

// Name returns the cookie name.
func (m *CookieManager) Name() string {
	return m.cfg.Name
}

// TTL returns the cookie lifetime, handy as the store TTL for new sessions.
func (m *CookieManager) TTL() time.Duration {
	return m.cfg.TTL
}

// Create returns the cookie carrying s with the configured TTL and HttpOnly flag.
func (m *CookieManager) Create(s Session) *http.Cookie {
	return m.CreateWith(s, m.cfg.TTL, m.cfg.HTTPOnly)
}

// CreateWith returns the cookie carrying s with an explicit TTL and HttpOnly flag.
func (m *CookieManager) CreateWith(s Session, ttl time.Duration, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.Name,
		Value:    s.String(),
		Path:     m.cfg.Path,
		MaxAge:   int(ttl / time.Second),
		Secure:   true,
		HttpOnly: httpOnly,
		SameSite: http.SameSiteLaxMode,
	}
}

// Destroy returns a cookie that makes the client drop the session cookie
// immediately.
func (m *CookieManager) Destroy() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.Name,
		Value:    "",
		Path:     m.cfg.Path,
		MaxAge:   -1,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Extract reads the session cookie off r. A missing or empty cookie is the
// normal "no session" outcome.
func (m *CookieManager) Extract(r *http.Request) (Session, bool) {
	if r == nil {
		return Session{}, false
	}
	c, err := r.Cookie(m.cfg.Name)
	if err != nil || c.Value == "" {
		return Session{}, false
	}
	return FromString(c.Value), true
}
