package session

import "context"

// Store persists envelopes keyed by Session.ID.
type Store interface {
	// Get returns a copy of the envelope.
	Get(ctx context.Context, id string) (*Session, error)

	// Save creates or replaces the envelope. The store keeps it until ExpiresAt.
	Save(ctx context.Context, s *Session) error

	// Update atomically applies fn to the stored envelope and persists the
	// result. When fn returns an error nothing is written and the error is
	// returned as is.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)

	// Delete removes the envelope. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}
