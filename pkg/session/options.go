package session

import (
	"time"

	"github.com/dmitrymomot/growwise/pkg/cookie"
)

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the envelope store. Defaults to a MemoryStore.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithTransport sets how the session id travels. Defaults to an encrypted cookie.
func WithTransport(transport Transport) Option {
	return func(m *Manager) {
		m.transport = transport
	}
}

// WithCookieManager sets the cookie manager for the default cookie transport.
func WithCookieManager(mgr *cookie.Manager, opts ...cookie.Option) Option {
	return func(m *Manager) {
		m.cookieManager = mgr
		m.cookieOptions = opts
	}
}

// WithConfig sets the configuration.
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithBootID overrides the generated boot id. Two managers sharing a boot id
// trust each other's cached profiles.
func WithBootID(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.boot = id
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
