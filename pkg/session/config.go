package session

import "time"

// Config holds session settings.
type Config struct {
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	// TTL is a sliding lifetime: every update pushes ExpiresAt forward.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// CleanupInterval for the memory store (0 disables the sweeper).
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	SecureCookies bool   `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
	RedisPrefix   string `env:"SESSION_REDIS_PREFIX" envDefault:"growwise:session:"`
}

// DefaultConfig mirrors the env defaults.
func DefaultConfig() Config {
	return Config{
		CookieName:      "sid",
		TTL:             30 * 24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
		RedisPrefix:     "growwise:session:",
	}
}
