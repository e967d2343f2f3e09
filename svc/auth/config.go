package auth

import "time"

type Config struct {
	// MaxIdentityAttempts consecutive failed profile fetches end the session.
	MaxIdentityAttempts int           `env:"AUTH_MAX_IDENTITY_ATTEMPTS" envDefault:"3"`
	IdentityTimeout     time.Duration `env:"AUTH_IDENTITY_TIMEOUT" envDefault:"10s"`
	// LoadingRefresh is how often the loading placeholder reloads itself.
	LoadingRefresh time.Duration `env:"GUARD_LOADING_REFRESH" envDefault:"1s"`
}

func DefaultConfig() Config {
	return Config{
		MaxIdentityAttempts: 3,
		IdentityTimeout:     10 * time.Second,
		LoadingRefresh:      time.Second,
	}
}
