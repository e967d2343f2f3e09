package app

import (
	"strings"
	"time"

	"github.com/dmitrymomot/growwise/pkg/apiclient"
	"github.com/dmitrymomot/growwise/pkg/cookie"
	"github.com/dmitrymomot/growwise/pkg/httpserver"
	"github.com/dmitrymomot/growwise/pkg/ratelimiter"
	"github.com/dmitrymomot/growwise/pkg/redis"
	"github.com/dmitrymomot/growwise/pkg/session"
	"github.com/dmitrymomot/growwise/pkg/validator"
	"github.com/dmitrymomot/growwise/svc/auth"
)

type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"growwise"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	// TrustProxy enables client address headers set by a reverse proxy.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	HTTP      httpserver.Config
	API       apiclient.Config
	Cookie    cookie.Config
	Session   session.Config
	Redis     redis.Config
	Auth      auth.Config
	Notices   NoticesConfig
	RateLimit ratelimiter.Config `envPrefix:"AUTH_RATE_LIMIT_"`
}

type NoticesConfig struct {
	RedisPrefix string        `env:"NOTICES_REDIS_PREFIX" envDefault:"growwise:notices:"`
	TTL         time.Duration `env:"NOTICES_TTL" envDefault:"24h"`
}

var logLevels = []string{"", "debug", "info", "warn", "error"}

// Validate rejects configuration the process cannot run with.
func (c Config) Validate() error {
	rules := []validator.Rule{
		validator.RequiredString("APP_NAME", c.AppName),
		validator.OneOfString("LOG_LEVEL", strings.ToLower(c.LogLevel), logLevels),
		validator.ValidURL("API_BASE_URL", c.API.BaseURL, "http", "https"),
		validator.MinNum("API_TIMEOUT", c.API.Timeout, time.Millisecond),
		validator.RequiredString("COOKIE_SECRETS", c.Cookie.Secrets),
		validator.RequiredString("SESSION_COOKIE_NAME", c.Session.CookieName),
		validator.MinNum("SESSION_TTL", c.Session.TTL, time.Minute),
		validator.MinNum("AUTH_MAX_IDENTITY_ATTEMPTS", c.Auth.MaxIdentityAttempts, 1),
		validator.MinNum("GUARD_LOADING_REFRESH", c.Auth.LoadingRefresh, time.Second),
		validator.MinNum("AUTH_RATE_LIMIT_CAPACITY", c.RateLimit.Capacity, 1),
		validator.MinNum("AUTH_RATE_LIMIT_REFILL_RATE", c.RateLimit.RefillRate, 1),
		validator.MinNum("AUTH_RATE_LIMIT_REFILL_INTERVAL", c.RateLimit.RefillInterval, time.Millisecond),
	}
	for secret := range strings.SplitSeq(c.Cookie.Secrets, ",") {
		if secret = strings.TrimSpace(secret); secret != "" {
			rules = append(rules, validator.MinLenString("COOKIE_SECRETS", secret, 32))
		}
	}
	if c.Redis.Enabled() {
		rules = append(rules, validator.ValidURL("REDIS_URL", c.Redis.ConnectionURL, "redis", "rediss"))
	}
	return validator.Apply(rules...)
}
