package auth_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/growwise/pkg/navigate"
	"github.com/dmitrymomot/growwise/pkg/session"
	"github.com/dmitrymomot/growwise/svc/auth"
)

type protectedPage struct {
	calls atomic.Int32
	fn    http.HandlerFunc
}

func (p *protectedPage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.calls.Add(1)
	if p.fn != nil {
		p.fn(w, r)
		return
	}
	profile := auth.ProfileFromContext(r.Context())
	_, _ = fmt.Fprintf(w, "%s %s", profile.Name, auth.RoleFromContext(r.Context()))
}

func (f *fixture) serve(t *testing.T, role auth.Role, sid string, next http.Handler, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	h := navigate.Middleware(f.sessions.Middleware(f.guard.Require(role)(next)))

	r := httptest.NewRequest(http.MethodGet, "/dashboard/manager", nil)
	r.Header.Set(sessionHeader, "Bearer "+sid)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestGuard_NoToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	sid := f.newSession(t)
	_, err := f.sessions.Update(context.Background(), sid, func(s *session.Session) error {
		s.User = &session.Profile{ID: 1, Name: "Ghost"}
		s.IdentityBoot = f.sessions.Boot()
		return nil
	})
	require.NoError(t, err)

	next := &protectedPage{}
	w := f.serve(t, auth.RoleManager, sid, next)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Zero(t, next.calls.Load(), "a cached profile without a token is not access")

	t.Run("htmx", func(t *testing.T) {
		w := f.serve(t, auth.RoleManager, sid, next, navigate.HXRequest, "true")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/", w.Header().Get(navigate.HXRedirect))
	})
}

func TestGuard_RoleMismatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleEmployee, "tok")

	next := &protectedPage{}
	w := f.serve(t, auth.RoleManager, sid, next)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Zero(t, next.calls.Load())

	w = f.serve(t, auth.RoleEmployee, sid, next)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dana employee", w.Body.String())
}

func TestGuard_Authorized(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleManager, "tok")

	next := &protectedPage{}
	w := f.serve(t, auth.RoleManager, sid, next)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dana manager", w.Body.String())

	w = f.serve(t, "", sid, next)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestGuard_AwaitingIdentity(t *testing.T) {
	t.Parallel()

	loading := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("placeholder"))
	})
	f := newFixture(t, newFakeAPI(), fixtureOptions{guard: []auth.GuardOption{auth.WithLoadingPage(loading)}})
	ctx := context.Background()
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleManager, "tok")
	before := f.api.count("/users/me")

	release := make(chan struct{})
	f.api.handle("/users/me", func(w http.ResponseWriter, r *http.Request) {
		<-release
		reply(http.StatusOK, session.Profile{ID: 7, Name: "Dana"})(w, r)
	})
	_, err := f.sessions.Update(ctx, sid, func(s *session.Session) error {
		s.User = nil
		return nil
	})
	require.NoError(t, err)

	next := &protectedPage{}
	w := f.serve(t, auth.RoleManager, sid, next)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "placeholder", w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	require.Eventually(t, func() bool { return f.api.count("/users/me") == before+1 }, time.Second, 5*time.Millisecond)

	w = f.serve(t, auth.RoleManager, sid, next)
	assert.Equal(t, "placeholder", w.Body.String())
	assert.Zero(t, next.calls.Load())

	close(release)
	require.Eventually(t, func() bool { return f.get(t, sid).Identity() != nil }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !f.svc.Loading(sid) }, 2*time.Second, 5*time.Millisecond)

	w = f.serve(t, auth.RoleManager, sid, next)
	assert.Equal(t, "Dana manager", w.Body.String())
	assert.Equal(t, before+1, f.api.count("/users/me"), "one fetch for all placeholder renders")
}

func TestGuard_ExpiredToken(t *testing.T) {
	t.Parallel()

	now := time.Now()
	f := newFixture(t, newFakeAPI(), fixtureOptions{guard: []auth.GuardOption{
		auth.WithGuardClock(func() time.Time { return now.Add(2 * time.Hour) }),
	}})
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleManager, signToken(t, "manager", now.Add(time.Hour)))

	next := &protectedPage{}
	w := f.serve(t, auth.RoleManager, sid, next)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Zero(t, next.calls.Load())

	s := f.get(t, sid)
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.Identity())

	notices := f.pending(t, sid)
	require.Len(t, notices, 1)
	assert.Equal(t, auth.MsgSessionExpired, notices[0].Message)
}

func TestGuard_UnauthorizedInsideHandler(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleManager, "tok")
	f.api.handle("/feedback/manager", detail(http.StatusUnauthorized, "expired"))

	next := &protectedPage{fn: func(w http.ResponseWriter, r *http.Request) {
		err := f.client.Get(r.Context(), "/feedback/manager", nil)
		assert.Error(t, err)
		_, _ = w.Write([]byte("stale dashboard"))
	}}

	w := f.serve(t, auth.RoleManager, sid, next, "Accept", "text/event-stream")
	assert.Equal(t, int32(1), next.calls.Load())
	assert.NotContains(t, w.Body.String(), "stale dashboard")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, w.Body.String(), "window.location")

	assert.False(t, f.get(t, sid).Authenticated())
	require.Len(t, f.pending(t, sid), 1)
}

// flakyStore fails reads once its budget of successful reads is spent.
type flakyStore struct {
	*session.MemoryStore
	armed  atomic.Bool
	budget atomic.Int32
}

func (s *flakyStore) Get(ctx context.Context, id string) (*session.Session, error) {
	if s.armed.Load() && s.budget.Add(-1) < 0 {
		return nil, errors.New("store unavailable")
	}
	return s.MemoryStore.Get(ctx, id)
}

func TestGuard_StoreFailureIsNotAccess(t *testing.T) {
	t.Parallel()

	store := &flakyStore{MemoryStore: session.NewMemoryStore(0)}
	t.Cleanup(func() { _ = store.Close() })

	f := newFixture(t, newFakeAPI(), fixtureOptions{store: store})
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleManager, "tok")

	next := &protectedPage{}
	w := f.serve(t, auth.RoleManager, sid, next)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, next.calls.Load())

	// The session middleware read succeeds; the guard's fresh read fails.
	store.budget.Store(1)
	store.armed.Store(true)
	w = f.serve(t, auth.RoleManager, sid, next)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.EqualValues(t, 1, next.calls.Load(), "the request snapshot never authorizes")
}

func TestGuard_VanishedEnvelopeIsSignedOut(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleManager, "tok")

	next := &protectedPage{fn: func(w http.ResponseWriter, r *http.Request) {}}
	h := navigate.Middleware(f.sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, f.store.Delete(r.Context(), sid))
		f.guard.Require(auth.RoleManager)(next).ServeHTTP(w, r)
	})))

	r := httptest.NewRequest(http.MethodGet, "/dashboard/manager", nil)
	r.Header.Set(sessionHeader, "Bearer "+sid)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Zero(t, next.calls.Load())
}
