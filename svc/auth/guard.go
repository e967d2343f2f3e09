package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/growwise/pkg/apiclient"
	"github.com/dmitrymomot/growwise/pkg/logger"
	"github.com/dmitrymomot/growwise/pkg/navigate"
	"github.com/dmitrymomot/growwise/pkg/session"
	"github.com/dmitrymomot/growwise/pkg/statemachine"
)

// Guard decisions, tried in this order.
const (
	StateNoToken          statemachine.State = "no-token"
	StateRefreshing       statemachine.State = "refreshing"
	StateAwaitingIdentity statemachine.State = "awaiting-identity"
	StateRoleMismatch     statemachine.State = "role-mismatch"
	StateAuthorized       statemachine.State = "authorized"

	stateEvaluating statemachine.State = "evaluating"
	eventEvaluate   statemachine.Event = "evaluate"
)

type evaluation struct {
	w        http.ResponseWriter
	r        *http.Request
	sess     *session.Session
	required Role
}

func evalOf(data any) *evaluation {
	ev, _ := data.(*evaluation)
	return ev
}

// Guard gates handlers behind a signed-in session and optionally a role.
type Guard struct {
	sessions *session.Manager
	svc      *Service
	inv      *Invalidator
	table    *statemachine.Table
	loading  http.Handler
	logger   *slog.Logger
	now      func() time.Time
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithLoadingPage sets the placeholder served while the profile loads.
func WithLoadingPage(h http.Handler) GuardOption {
	return func(g *Guard) {
		if h != nil {
			g.loading = h
		}
	}
}

func WithGuardLogger(log *slog.Logger) GuardOption {
	return func(g *Guard) {
		if log != nil {
			g.logger = log
		}
	}
}

func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGuard(sessions *session.Manager, svc *Service, inv *Invalidator, opts ...GuardOption) *Guard {
	g := &Guard{
		sessions: sessions,
		svc:      svc,
		inv:      inv,
		loading:  http.HandlerFunc(defaultLoading),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(logger.Component("guard"))

	g.table = statemachine.MustNew(
		statemachine.WithTransition(stateEvaluating, StateNoToken, eventEvaluate,
			statemachine.WithGuard(noToken),
			statemachine.WithAction(g.redirectHome)),
		statemachine.WithTransition(stateEvaluating, StateRefreshing, eventEvaluate,
			statemachine.WithGuard(g.refreshing)),
		statemachine.WithTransition(stateEvaluating, StateAwaitingIdentity, eventEvaluate,
			statemachine.WithGuard(awaitingIdentity),
			statemachine.WithAction(g.startRefresh)),
		statemachine.WithTransition(stateEvaluating, StateRoleMismatch, eventEvaluate,
			statemachine.WithGuard(roleMismatch),
			statemachine.WithAction(g.redirectHome)),
		statemachine.WithTransition(stateEvaluating, StateAuthorized, eventEvaluate),
	)
	return g
}

// Authenticated requires a signed-in session with a loaded profile.
func (g *Guard) Authenticated() func(http.Handler) http.Handler {
	return g.Require("")
}

// Require gates next behind a signed-in session whose login role is role.
// An empty role accepts any signed-in session.
func (g *Guard) Require(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, err := g.load(r)
			if err != nil {
				g.logger.ErrorContext(ctx, "failed to load session", logger.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if sess.Authenticated() && TokenExpired(sess.AccessToken, g.now()) {
				g.inv.Invalidate(ctx, apiclient.Credential{SessionID: sess.ID, Token: sess.AccessToken, Epoch: sess.Epoch})
				sess = sess.Clone()
				sess.SignOut()
			}

			ev := &evaluation{w: w, r: r, sess: sess, required: role}
			state, err := g.table.Fire(ctx, stateEvaluating, eventEvaluate, ev)
			if err != nil {
				g.logger.ErrorContext(ctx, "guard evaluation failed", logger.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			g.logger.DebugContext(ctx, "guard decision",
				logger.SessionID(sess.ID), logger.Event(string(state)), logger.Path(r.URL.Path))

			switch state {
			case StateRefreshing, StateAwaitingIdentity:
				w.Header().Set("Cache-Control", "no-store")
				g.loading.ServeHTTP(w, r)
			case StateAuthorized:
				ctx = session.WithSession(ctx, sess)
				ctx = WithProfile(ctx, sess.User)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

// load reads the envelope fresh from the store; the snapshot taken by the
// session middleware may predate writes made earlier in this request. A
// vanished envelope counts as signed out. Other store failures are returned
// so the guard never decides from the snapshot.
func (g *Guard) load(r *http.Request) (*session.Session, error) {
	snapshot, ok := session.FromContext(r.Context())
	if !ok {
		return &session.Session{}, nil
	}
	fresh, err := g.sessions.Get(r.Context(), snapshot.ID)
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionExpired):
		return &session.Session{ID: snapshot.ID}, nil
	case err != nil:
		return nil, err
	}
	return fresh, nil
}

func noToken(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	return !evalOf(data).sess.Authenticated()
}

func (g *Guard) refreshing(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	return g.svc.Loading(evalOf(data).sess.ID)
}

func awaitingIdentity(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	return evalOf(data).sess.Identity() == nil
}

func roleMismatch(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	ev := evalOf(data)
	return ev.required != "" && NormalizeRole(ev.sess.Role) != ev.required
}

func (g *Guard) startRefresh(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, data any) error {
	g.svc.RefreshIdentity(ctx, evalOf(data).sess.ID)
	return nil
}

func (g *Guard) redirectHome(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, data any) error {
	if navigate.Force(ctx, EntryPath) {
		return nil
	}
	if _, pending := navigate.Pending(ctx); pending {
		return nil
	}
	ev := evalOf(data)
	return navigate.Redirect(ev.w, ev.r, EntryPath)
}

func defaultLoading(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, `<!doctype html><meta http-equiv="refresh" content="1"><p>Loading…</p>`)
}
