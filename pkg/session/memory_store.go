package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory.
// Envelopes are lost on restart; use RedisStore for anything beyond one instance.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	ticker    *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithStoreClock replaces time.Now for expiry checks. Give the store the
// same clock as the Manager.
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore creates an in-memory store. A positive cleanupInterval
// starts a goroutine that sweeps expired envelopes until Close.
func NewMemoryStore(cleanupInterval time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}

	if cleanupInterval > 0 {
		store.ticker = time.NewTicker(cleanupInterval)
		go store.cleanupLoop(store.ticker)
	}

	return store
}

// Get returns a copy of the envelope.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, exists := m.sessions[id]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}

	if s.IsExpired(m.now()) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrSessionExpired
	}

	return s.Clone(), nil
}

// Save stores a copy of s.
func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	m.sessions[s.ID] = s.Clone()
	m.mu.Unlock()
	return nil
}

// Update runs fn under the store lock.
func (m *MemoryStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if current.IsExpired(m.now()) {
		delete(m.sessions, id)
		return nil, ErrSessionExpired
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = id
	m.sessions[id] = next

	return next.Clone(), nil
}

// Delete removes the envelope.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// DeleteExpired removes all expired envelopes.
func (m *MemoryStore) DeleteExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, id)
		}
	}

	return nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

// Stats returns the number of stored and signed-in envelopes.
func (m *MemoryStore) Stats() (total, authenticated int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total = len(m.sessions)
	for _, s := range m.sessions {
		if s.Authenticated() {
			authenticated++
		}
	}
	return
}

func (m *MemoryStore) cleanupLoop(ticker *time.Ticker) {
	for {
		select {
		case <-ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}
