package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/growwise/pkg/logger"
)

// Manager stores notices and hands them to a Deliverer.
type Manager struct {
	storage   Storage
	deliverer Deliverer
	logger    *slog.Logger
	now       func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.logger = log
		}
	}
}

func WithDeliverer(d Deliverer) ManagerOption {
	return func(m *Manager) {
		if d != nil {
			m.deliverer = d
		}
	}
}

func NewManager(storage Storage, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage:   storage,
		deliverer: NoOpDeliverer{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Notify queues a notice for the session.
func (m *Manager) Notify(ctx context.Context, sessionID string, typ Type, message string) error {
	n := Notice{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Type:      typ,
		Message:   message,
		CreatedAt: m.now(),
	}

	if err := m.storage.Push(ctx, n); err != nil {
		return fmt.Errorf("failed to store notice: %w", err)
	}

	// Stored notices stay visible even if delivery fails.
	if err := m.deliverer.Deliver(ctx, n); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "failed to deliver notice",
			logger.SessionID(sessionID),
			logger.Error(err),
		)
	}
	return nil
}

func (m *Manager) Info(ctx context.Context, sessionID, message string) error {
	return m.Notify(ctx, sessionID, TypeInfo, message)
}

func (m *Manager) Success(ctx context.Context, sessionID, message string) error {
	return m.Notify(ctx, sessionID, TypeSuccess, message)
}

func (m *Manager) Error(ctx context.Context, sessionID, message string) error {
	return m.Notify(ctx, sessionID, TypeError, message)
}

// Pending drains the session's queue.
func (m *Manager) Pending(ctx context.Context, sessionID string) ([]Notice, error) {
	if sessionID == "" {
		return nil, nil
	}
	return m.storage.Drain(ctx, sessionID)
}

// Transfer moves the queued notices of one session to another, keeping
// their order. Used when a session id is rotated.
func (m *Manager) Transfer(ctx context.Context, from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	pending, err := m.storage.Drain(ctx, from)
	if err != nil {
		return err
	}
	var errs []error
	for _, n := range pending {
		n.SessionID = to
		if err := m.storage.Push(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
