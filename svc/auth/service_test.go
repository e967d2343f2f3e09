package auth_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/growwise/pkg/apiclient"
	"github.com/dmitrymomot/growwise/pkg/notifications"
	"github.com/dmitrymomot/growwise/pkg/session"
	"github.com/dmitrymomot/growwise/svc/auth"
)

func TestService_Login(t *testing.T) {
	t.Parallel()

	t.Run("success stores credential and profile", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, newFakeAPI(), fixtureOptions{})
		sid := f.newSession(t)

		f.login(t, sid, "Manager", signToken(t, "manager", time.Time{}))

		s := f.get(t, sid)
		assert.True(t, s.Authenticated())
		assert.Equal(t, "manager", s.Role)
		assert.Equal(t, "manager", s.SelectedRole)
		require.NotNil(t, s.Identity())
		assert.Equal(t, "Dana", s.User.Name)
		assert.Equal(t, uint64(1), s.Epoch)
		assert.Empty(t, s.Error)
		assert.Empty(t, f.pending(t, sid))
	})

	t.Run("failure reports backend detail", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, newFakeAPI(), fixtureOptions{})
		sid := f.newSession(t)
		f.api.handle(apiclient.PathLogin, detail(http.StatusUnauthorized, "Incorrect email or password"))

		res := f.svc.Login(context.Background(), sid, auth.Credentials{Email: "a@b.c", Password: "x"})
		assert.False(t, res.OK)
		assert.Equal(t, "Incorrect email or password", res.Message)

		s := f.get(t, sid)
		assert.False(t, s.Authenticated())
		assert.Equal(t, "Incorrect email or password", s.Error)
		assert.Empty(t, f.pending(t, sid), "a rejected login is not an expired session")
	})

	t.Run("failure without detail uses generic message", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, newFakeAPI(), fixtureOptions{})
		sid := f.newSession(t)
		f.api.handle(apiclient.PathLogin, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		res := f.svc.Login(context.Background(), sid, auth.Credentials{Email: "a@b.c", Password: "x"})
		assert.False(t, res.OK)
		assert.Equal(t, auth.MsgLoginFailed, res.Message)
	})

	t.Run("role falls back to token claim", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, newFakeAPI(), fixtureOptions{})
		sid := f.newSession(t)

		f.login(t, sid, "", signToken(t, "Employee", time.Time{}))
		assert.Equal(t, "employee", f.get(t, sid).Role)
	})

	t.Run("role mismatch keeps backend role and notifies", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, newFakeAPI(), fixtureOptions{})
		sid := f.newSession(t)

		_, err := f.svc.SelectRole(context.Background(), sid, "employee")
		require.NoError(t, err)
		f.login(t, sid, auth.RoleManager, signToken(t, "manager", time.Time{}))

		s := f.get(t, sid)
		assert.Equal(t, "manager", s.Role)
		assert.Equal(t, "manager", s.SelectedRole)

		notices := f.pending(t, sid)
		require.Len(t, notices, 1)
		assert.Equal(t, notifications.TypeInfo, notices[0].Type)
		assert.Equal(t, "You are signed in as manager.", notices[0].Message)
	})

	t.Run("second login replaces the first", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, newFakeAPI(), fixtureOptions{})
		sid := f.newSession(t)

		f.login(t, sid, auth.RoleManager, "first")
		f.login(t, sid, auth.RoleEmployee, "second")

		s := f.get(t, sid)
		assert.Equal(t, "second", s.AccessToken)
		assert.Equal(t, "employee", s.Role)
		assert.Equal(t, uint64(2), s.Epoch)
	})
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	ctx := context.Background()

	sent := make(chan auth.Registration, 1)
	f.api.handle(apiclient.PathRegister, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var reg auth.Registration
		assert.NoError(t, decodeJSON(r, &reg))
		sent <- reg
		reply(http.StatusCreated, session.Profile{ID: 12, Name: reg.Name, Email: reg.Email, Role: string(reg.Role)})(w, r)
	})

	res := f.svc.Register(ctx, auth.Registration{Name: "Lee", Email: "lee@example.com", Password: "pw", Role: "EMPLOYEE"})
	assert.True(t, res.OK)
	require.NotNil(t, res.User)
	assert.Equal(t, int64(12), res.User.ID)
	assert.Equal(t, auth.RoleEmployee, (<-sent).Role)

	t.Run("conflict", func(t *testing.T) {
		f.api.handle(apiclient.PathRegister, detail(http.StatusBadRequest, "Email already registered"))
		res := f.svc.Register(ctx, auth.Registration{Name: "Lee", Email: "lee@example.com", Password: "pw", Role: "employee"})
		assert.False(t, res.OK)
		assert.Equal(t, "Email already registered", res.Message)
	})

	t.Run("validation list", func(t *testing.T) {
		f.api.handle(apiclient.PathRegister, reply(http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body", "email"}, "msg": "value is not a valid email address"}},
		}))
		res := f.svc.Register(ctx, auth.Registration{Name: "Lee", Email: "nope", Password: "pw"})
		assert.False(t, res.OK)
		assert.Equal(t, "value is not a valid email address", res.Message)
	})
}

func TestService_Logout(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	ctx := context.Background()
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleEmployee, "tok")
	_, err := f.svc.SelectRole(ctx, sid, "employee")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, sid))
	require.NoError(t, f.svc.Logout(ctx, sid))

	s := f.get(t, sid)
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Role)
	assert.Equal(t, "employee", s.SelectedRole)
	assert.Equal(t, uint64(2), s.Epoch)
	assert.Empty(t, f.pending(t, sid))

	assert.NoError(t, f.svc.Logout(ctx, "unknown"))
}

func TestService_SelectRoleAndClearError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	ctx := context.Background()
	sid := f.newSession(t)

	_, err := f.svc.SelectRole(ctx, sid, "admin")
	assert.ErrorIs(t, err, auth.ErrInvalidRole)

	role, err := f.svc.SelectRole(ctx, sid, " Manager ")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleManager, role)

	f.api.handle(apiclient.PathLogin, detail(http.StatusUnauthorized, "nope"))
	f.svc.Login(ctx, sid, auth.Credentials{Email: "a", Password: "b"})
	require.Equal(t, "nope", f.get(t, sid).Error)

	require.NoError(t, f.svc.ClearError(ctx, sid))
	s := f.get(t, sid)
	assert.Empty(t, s.Error)
	assert.Equal(t, "manager", s.SelectedRole)
}

func TestService_FetchMeDropsStaleResult(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	ctx := context.Background()
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleManager, "tok")

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.handle("/users/me", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		reply(http.StatusOK, session.Profile{ID: 7, Name: "Late"})(w, r)
	})
	_, err := f.sessions.Update(ctx, sid, func(s *session.Session) error {
		s.User = nil
		return nil
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- f.svc.FetchMe(ctx, sid) }()

	<-entered
	assert.True(t, f.svc.Loading(sid))
	require.NoError(t, f.svc.Logout(ctx, sid))
	close(release)

	assert.ErrorIs(t, <-done, auth.ErrStaleSession)
	s := f.get(t, sid)
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.Identity())
	assert.False(t, f.svc.Loading(sid))
}

func TestService_FetchMeRetryCap(t *testing.T) {
	t.Parallel()

	cfg := auth.DefaultConfig()
	cfg.MaxIdentityAttempts = 3
	f := newFixture(t, newFakeAPI(), fixtureOptions{service: []auth.ServiceOption{auth.WithServiceConfig(cfg)}})
	ctx := context.Background()
	sid := f.newSession(t)

	f.api.handle(apiclient.PathLogin, reply(http.StatusOK, map[string]string{"access_token": "tok", "role": "employee"}))
	f.api.handle("/users/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	res := f.svc.Login(ctx, sid, auth.Credentials{Email: "a", Password: "b"})
	assert.False(t, res.OK)
	assert.Equal(t, auth.MsgLoginFailed, res.Message)

	s := f.get(t, sid)
	assert.True(t, s.Authenticated())
	assert.Equal(t, 1, s.IdentityFailures)

	assert.Error(t, f.svc.FetchMe(ctx, sid))
	assert.Equal(t, 2, f.get(t, sid).IdentityFailures)
	assert.Empty(t, f.pending(t, sid))

	assert.Error(t, f.svc.FetchMe(ctx, sid))
	s = f.get(t, sid)
	assert.False(t, s.Authenticated())
	assert.Equal(t, 0, s.IdentityFailures)

	notices := f.pending(t, sid)
	require.Len(t, notices, 1)
	assert.Equal(t, notifications.TypeError, notices[0].Type)
	assert.Equal(t, auth.MsgIdentityUnavailable, notices[0].Message)

	assert.ErrorIs(t, f.svc.FetchMe(ctx, sid), auth.ErrNotAuthenticated)
	assert.Equal(t, 3, f.api.count("/users/me"))
}

func TestService_FetchMeSharesInflightRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	ctx := context.Background()
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleManager, "tok")
	before := f.api.count("/users/me")

	var arrived atomic.Int32
	release := make(chan struct{})
	f.api.handle("/users/me", func(w http.ResponseWriter, r *http.Request) {
		arrived.Add(1)
		<-release
		reply(http.StatusOK, session.Profile{ID: 7, Name: "Dana"})(w, r)
	})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.svc.FetchMe(ctx, sid))
		}()
	}
	require.Eventually(t, func() bool { return arrived.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, before+1, f.api.count("/users/me"))
}

func TestService_RefreshIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	ctx := context.Background()
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleManager, "tok")

	release := make(chan struct{})
	f.api.handle("/users/me", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		reply(http.StatusOK, session.Profile{ID: 7, Name: "Again"})(w, r)
	})
	_, err := f.sessions.Update(ctx, sid, func(s *session.Session) error {
		s.User = nil
		return nil
	})
	require.NoError(t, err)

	reqCtx, cancel := context.WithCancel(ctx)
	assert.True(t, f.svc.RefreshIdentity(reqCtx, sid))
	assert.False(t, f.svc.RefreshIdentity(reqCtx, sid), "one refresh per session")
	cancel()

	assert.True(t, f.svc.Loading(sid))
	close(release)

	require.Eventually(t, func() bool { return !f.svc.Loading(sid) }, 2*time.Second, 5*time.Millisecond)
	s := f.get(t, sid)
	require.NotNil(t, s.Identity(), "request cancellation must not stop the refresh")
	assert.Equal(t, "Again", s.User.Name)

	t.Run("logout cancels it", func(t *testing.T) {
		_, err := f.sessions.Update(ctx, sid, func(s *session.Session) error {
			s.User = nil
			return nil
		})
		require.NoError(t, err)
		f.api.handle("/users/me", func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})

		require.True(t, f.svc.RefreshIdentity(ctx, sid))
		require.NoError(t, f.svc.Logout(ctx, sid))
		assert.Eventually(t, func() bool { return !f.svc.Loading(sid) }, 2*time.Second, 5*time.Millisecond)

		s := f.get(t, sid)
		assert.False(t, s.Authenticated())
	})
}

func TestService_ReloadRoundTrip(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	first := newFixture(t, api, fixtureOptions{boot: "boot-1"})
	sid := first.newSession(t)
	first.login(t, sid, auth.RoleEmployee, "tok")
	require.NotNil(t, first.get(t, sid).Identity())

	second := newFixture(t, api, fixtureOptions{store: first.store, boot: "boot-2"})
	s := second.get(t, sid)
	assert.True(t, s.Authenticated(), "credential survives a restart")
	assert.Equal(t, "employee", s.Role)
	assert.Nil(t, s.Identity(), "profile from the previous boot is not trusted")

	require.NoError(t, second.svc.FetchMe(context.Background(), sid))
	require.NotNil(t, second.get(t, sid).Identity())
}

func TestService_ConcurrentUnauthorized(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	sid := f.newSession(t)
	f.login(t, sid, auth.RoleManager, "tok")

	var teardowns atomic.Int32
	f.inv.OnInvalidate(func(string) { teardowns.Add(1) })
	f.api.handle("/feedback/manager", detail(http.StatusUnauthorized, "Could not validate credentials"))

	ctx := f.ctxFor(t, sid)
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.client.Get(ctx, "/feedback/manager", nil)
			assert.True(t, errors.Is(err, apiclient.ErrUnauthorized))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), teardowns.Load())
	s := f.get(t, sid)
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Role)
	assert.Nil(t, s.Identity())

	notices := f.pending(t, sid)
	require.Len(t, notices, 1)
	assert.Equal(t, notifications.TypeError, notices[0].Type)
	assert.Equal(t, auth.MsgSessionExpired, notices[0].Message)
}

func TestSessionTokenSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newFakeAPI(), fixtureOptions{})
	src := auth.SessionTokenSource(f.sessions)
	sid := f.newSession(t)

	_, ok := src.Credential(context.Background())
	assert.False(t, ok)

	cred, ok := src.Credential(f.ctxFor(t, sid))
	assert.False(t, ok)
	assert.Equal(t, sid, cred.SessionID)

	f.login(t, sid, auth.RoleManager, "tok")
	// The context still carries the signed-out snapshot; the source reads the store.
	cred, ok = src.Credential(session.WithSession(context.Background(), &session.Session{ID: sid}))
	require.True(t, ok)
	assert.Equal(t, "tok", cred.Token)
	assert.Equal(t, uint64(1), cred.Epoch)
}
