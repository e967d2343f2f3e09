package notifications

import (
	"context"
	"errors"
)

var (
	ErrMissingSession = errors.New("notifications.missing_session_id")
	ErrEmptyMessage   = errors.New("notifications.empty_message")
)

// Storage is a per-session FIFO of notices.
type Storage interface {
	// Push appends a notice to the session's queue.
	Push(ctx context.Context, n Notice) error

	// Drain returns all queued notices in insertion order and empties the queue.
	Drain(ctx context.Context, sessionID string) ([]Notice, error)
}

func validate(n Notice) error {
	if n.SessionID == "" {
		return ErrMissingSession
	}
	if n.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}
