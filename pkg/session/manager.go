package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/growwise/pkg/cookie"
)

// cookieRefreshStep is how far ExpiresAt must slide past the lifetime the
// client holds before the id is sent again.
const cookieRefreshStep = time.Minute

// Manager loads, creates and mutates session envelopes.
type Manager struct {
	store         Store
	transport     Transport
	config        Config
	cookieManager *cookie.Manager
	cookieOptions []cookie.Option
	boot          string
	now           func() time.Time
}

// New creates a Manager. It panics when neither a transport nor a cookie
// manager is configured.
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		boot:   uuid.NewString(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}

	if m.transport == nil {
		if m.cookieManager == nil {
			panic("session: cookie manager is required when using default cookie transport")
		}
		m.transport = NewCookieTransport(m.cookieManager, m.config.CookieName, m.config.SecureCookies, m.cookieOptions...)
	}

	return m
}

// Boot returns the id of this process generation.
func (m *Manager) Boot() string {
	return m.boot
}

// Load returns the envelope named by the request, if any.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	id, err := m.transport.GetID(r)
	if err != nil {
		return nil, err
	}
	return m.Get(ctx, id)
}

// Ensure returns the request's envelope, creating one and setting the
// cookie when the request has none or it expired. The cookie of an existing
// envelope is re-sent once updates have extended its lifetime.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	s, err := m.Load(ctx, r)
	if err == nil {
		return m.refreshCookie(ctx, w, s)
	}
	if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired) && !errors.Is(err, ErrInvalidSession) {
		return nil, err
	}

	s, err = m.create(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.transport.SetID(w, s.ID, m.config.TTL); err != nil {
		_ = m.store.Delete(ctx, s.ID)
		return nil, err
	}

	return s, nil
}

// Get loads an envelope by id.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.hydrate(s)
	return s, nil
}

// Update applies fn atomically and extends the envelope's lifetime.
// Profiles cached by another boot are dropped before fn runs.
func (m *Manager) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	s, err := m.store.Update(ctx, id, func(s *Session) error {
		m.hydrate(s)
		if err := fn(s); err != nil {
			return err
		}
		now := m.now()
		s.UpdatedAt = now
		if m.config.TTL > 0 {
			s.ExpiresAt = now.Add(m.config.TTL)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.hydrate(s)
	return s, nil
}

// Rotate moves the envelope to a fresh id, deletes the old id and sends the
// new one to the client. Call it when the session gains privileges so an id
// known before sign-in never becomes a signed-in one.
func (m *Manager) Rotate(ctx context.Context, w http.ResponseWriter, id string) (*Session, error) {
	cur, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	newID, err := generateID()
	if err != nil {
		return nil, err
	}

	now := m.now()
	next := cur.Clone()
	next.ID = newID
	next.UpdatedAt = now
	if m.config.TTL > 0 {
		next.ExpiresAt = now.Add(m.config.TTL)
	}
	next.CookieExpiresAt = next.ExpiresAt

	if err := m.store.Save(ctx, next); err != nil {
		return nil, err
	}
	if err := m.transport.SetID(w, newID, m.config.TTL); err != nil {
		_ = m.store.Delete(ctx, newID)
		return nil, err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	return next, nil
}

// Middleware ensures every request has an envelope and stores a snapshot of
// it in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Ensure(r.Context(), w, r)
		if err != nil {
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func (m *Manager) create(ctx context.Context) (*Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if m.config.TTL > 0 {
		s.ExpiresAt = now.Add(m.config.TTL)
	}
	s.CookieExpiresAt = s.ExpiresAt

	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// refreshCookie re-sends the id with the envelope's remaining lifetime when
// updates moved ExpiresAt past what the client was last given.
func (m *Manager) refreshCookie(ctx context.Context, w http.ResponseWriter, s *Session) (*Session, error) {
	if m.config.TTL <= 0 || s.ExpiresAt.Sub(s.CookieExpiresAt) < cookieRefreshStep {
		return s, nil
	}
	if err := m.transport.SetID(w, s.ID, s.ExpiresAt.Sub(m.now())); err != nil {
		return nil, err
	}

	expires := s.ExpiresAt
	updated, err := m.store.Update(ctx, s.ID, func(cur *Session) error {
		cur.CookieExpiresAt = expires
		return nil
	})
	if err != nil {
		// The id is sent again on the next request.
		return s, nil
	}
	m.hydrate(updated)
	return updated, nil
}

// hydrate hides a profile fetched by another process generation. The
// credential survives; the profile is fetched again on the next guarded request.
func (m *Manager) hydrate(s *Session) {
	if s.User != nil && s.IdentityBoot != m.boot {
		s.User = nil
		s.IdentityBoot = ""
		s.IdentityFailures = 0
	}
}

func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
