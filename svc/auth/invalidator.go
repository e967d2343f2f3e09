package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/growwise/pkg/apiclient"
	"github.com/dmitrymomot/growwise/pkg/logger"
	"github.com/dmitrymomot/growwise/pkg/navigate"
	"github.com/dmitrymomot/growwise/pkg/notifications"
	"github.com/dmitrymomot/growwise/pkg/session"
)

// EntryPath is where signed-out visitors are sent.
const EntryPath = "/"

var errNothingToClear = errors.New("auth: nothing to clear")

// Invalidator ends a session after the API rejected its credential. It only
// needs a context, so the HTTP client can call it from anywhere.
type Invalidator struct {
	sessions *session.Manager
	notices  *notifications.Manager
	logger   *slog.Logger

	mu    sync.RWMutex
	hooks []func(sid string)
}

func NewInvalidator(sessions *session.Manager, notices *notifications.Manager, log *slog.Logger) *Invalidator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Invalidator{
		sessions: sessions,
		notices:  notices,
		logger:   log.With(logger.Component("invalidator")),
	}
}

// OnInvalidate registers fn to run after a session was torn down.
func (i *Invalidator) OnInvalidate(fn func(sid string)) {
	i.mu.Lock()
	i.hooks = append(i.hooks, fn)
	i.mu.Unlock()
}

// HandleUnauthorized implements apiclient.UnauthorizedHandler.
func (i *Invalidator) HandleUnauthorized(ctx context.Context, cred apiclient.Credential) {
	i.Invalidate(ctx, cred)
}

// Invalidate clears the credential, role, profile and error of the session
// that sent cred, queues the "session expired" notice and forces a hard
// navigation to the entry page unless the request is already there.
//
// Only a credential that is still current tears the session down, so several
// requests failing with the same token produce one teardown and one notice.
// It reports whether this call performed the teardown.
func (i *Invalidator) Invalidate(ctx context.Context, cred apiclient.Credential) bool {
	sid := cred.SessionID
	if sid == "" {
		sid = session.IDFromContext(ctx)
	}

	tornDown := false
	if sid != "" && cred.Token != "" {
		_, err := i.sessions.Update(context.WithoutCancel(ctx), sid, func(cur *session.Session) error {
			if !cur.Authenticated() || cur.AccessToken != cred.Token || cur.Epoch != cred.Epoch {
				return errNothingToClear
			}
			cur.SignOut()
			return nil
		})
		switch {
		case err == nil:
			tornDown = true
		case errors.Is(err, errNothingToClear),
			errors.Is(err, session.ErrSessionNotFound),
			errors.Is(err, session.ErrSessionExpired):
		default:
			i.logger.ErrorContext(ctx, "failed to clear session", logger.SessionID(sid), logger.Error(err))
		}
	}

	if tornDown {
		i.mu.RLock()
		hooks := i.hooks
		i.mu.RUnlock()
		for _, fn := range hooks {
			fn(sid)
		}

		i.logger.InfoContext(ctx, "session invalidated", logger.SessionID(sid))
		if err := i.notices.Error(context.WithoutCancel(ctx), sid, MsgSessionExpired); err != nil {
			i.logger.WarnContext(ctx, "failed to queue notice", logger.SessionID(sid), logger.Error(err))
		}
	}

	navigate.Force(ctx, EntryPath)
	return tornDown
}
