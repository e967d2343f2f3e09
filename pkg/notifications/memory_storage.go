package notifications

import (
	"context"
	"sync"
)

// DefaultQueueLimit caps queued notices per session; the oldest are dropped.
const DefaultQueueLimit = 20

// MemoryStorage keeps queues in process memory.
type MemoryStorage struct {
	mu     sync.Mutex
	queues map[string][]Notice
	limit  int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		queues: make(map[string][]Notice),
		limit:  DefaultQueueLimit,
	}
}

func (s *MemoryStorage) Push(ctx context.Context, n Notice) error {
	if err := validate(n); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q := append(s.queues[n.SessionID], n)
	if len(q) > s.limit {
		q = q[len(q)-s.limit:]
	}
	s.queues[n.SessionID] = q
	return nil
}

func (s *MemoryStorage) Drain(ctx context.Context, sessionID string) ([]Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queues[sessionID]
	delete(s.queues, sessionID)
	return q, nil
}
