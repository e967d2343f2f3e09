package notifications

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/growwise/pkg/logger"
)

// Deliverer pushes a stored notice somewhere else in real time.
type Deliverer interface {
	Deliver(ctx context.Context, n Notice) error
}

// NoOpDeliverer does nothing.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(context.Context, Notice) error { return nil }

// LogDeliverer writes every notice to a logger. Error notices are logged
// at warn level.
type LogDeliverer struct {
	logger *slog.Logger
}

func NewLogDeliverer(log *slog.Logger) *LogDeliverer {
	if log == nil {
		log = slog.Default()
	}
	return &LogDeliverer{logger: log}
}

func (d *LogDeliverer) Deliver(ctx context.Context, n Notice) error {
	level := slog.LevelInfo
	if n.Type == TypeError || n.Type == TypeWarning {
		level = slog.LevelWarn
	}
	d.logger.LogAttrs(ctx, level, "notice queued",
		logger.Component("notifications"),
		logger.SessionID(n.SessionID),
		slog.String("notice_type", string(n.Type)),
		slog.String("notice", n.Message),
	)
	return nil
}
