// Package ratelimiter implements a token bucket limiter with memory and
// Redis stores and an HTTP middleware.
//
// The credential endpoints use it keyed by client address so that password
// guessing against the backend is throttled before it leaves the BFF:
//
//	limiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
//		Capacity:       5,
//		RefillRate:     1,
//		RefillInterval: 10 * time.Second,
//	})
//	r.With(ratelimiter.Middleware(limiter, ratelimiter.ByClientIP)).Post("/auth/login", login)
//
// A request is denied when the bucket would go negative. A denied request
// takes no tokens.
package ratelimiter
