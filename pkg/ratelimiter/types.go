package ratelimiter

import (
	"context"
	"time"
)

// Result is the outcome of one check.
type Result struct {
	Limit     int       // bucket capacity
	Remaining int       // negative when denied
	ResetAt   time.Time // next refill
}

func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before the next attempt, measured
// from now. Zero when allowed.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(r.ResetAt.Sub(now), 0)
}

// Config is the bucket shape. Env tags let it be embedded in app config.
type Config struct {
	Capacity       int           `env:"CAPACITY" envDefault:"5"`
	RefillRate     int           `env:"REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"REFILL_INTERVAL" envDefault:"10s"`
}

// Store keeps bucket state.
type Store interface {
	// ConsumeTokens refills the bucket for the time elapsed since its last
	// refill, then takes tokens. A negative remaining count means deny.
	ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config, now time.Time) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}
