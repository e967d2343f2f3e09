package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/growwise/pkg/apiclient"
	"github.com/dmitrymomot/growwise/pkg/notifications"
	"github.com/dmitrymomot/growwise/pkg/session"
	"github.com/dmitrymomot/growwise/svc/auth"
)

const sessionHeader = "X-Session"

// fakeAPI is a programmable stand-in for the GrowWise backend.
type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{routes: map[string]http.HandlerFunc{}, calls: map[string]int{}}
}

func (f *fakeAPI) handle(path string, h http.HandlerFunc) {
	f.mu.Lock()
	f.routes["/api"+path] = h
	f.mu.Unlock()
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls["/api"+path]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	h := f.routes[r.URL.Path]
	f.calls[r.URL.Path]++
	f.mu.Unlock()
	if h == nil {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func reply(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

func detail(status int, msg string) http.HandlerFunc {
	return reply(status, map[string]string{"detail": msg})
}

func signToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "7"}
	if role != "" {
		claims["role"] = role
	}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return tok
}

type fixture struct {
	api      *fakeAPI
	store    session.Store
	sessions *session.Manager
	notices  *notifications.Manager
	inv      *auth.Invalidator
	client   *apiclient.Client
	svc      *auth.Service
	guard    *auth.Guard
}

type fixtureOptions struct {
	store   session.Store
	boot    string
	service []auth.ServiceOption
	guard   []auth.GuardOption
}

func newFixture(t *testing.T, api *fakeAPI, fo fixtureOptions) *fixture {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store := fo.store
	if store == nil {
		mem := session.NewMemoryStore(0)
		t.Cleanup(func() { _ = mem.Close() })
		store = mem
	}

	sessOpts := []session.Option{
		session.WithStore(store),
		session.WithTransport(session.NewHeaderTransport(sessionHeader)),
	}
	if fo.boot != "" {
		sessOpts = append(sessOpts, session.WithBootID(fo.boot))
	}
	sessions := session.New(sessOpts...)
	notices := notifications.NewManager(notifications.NewMemoryStorage())
	inv := auth.NewInvalidator(sessions, notices, nil)

	client, err := apiclient.New(
		apiclient.Config{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second},
		apiclient.WithTokenSource(auth.SessionTokenSource(sessions)),
		apiclient.WithUnauthorizedHandler(inv),
	)
	require.NoError(t, err)

	svc := auth.NewService(sessions, client, notices, inv, fo.service...)
	return &fixture{
		api:      api,
		store:    store,
		sessions: sessions,
		notices:  notices,
		inv:      inv,
		client:   client,
		svc:      svc,
		guard:    auth.NewGuard(sessions, svc, inv, fo.guard...),
	}
}

func (f *fixture) newSession(t *testing.T) string {
	t.Helper()
	s, err := f.sessions.Ensure(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return s.ID
}

func (f *fixture) get(t *testing.T, sid string) *session.Session {
	t.Helper()
	s, err := f.sessions.Get(context.Background(), sid)
	require.NoError(t, err)
	return s
}

// ctxFor returns a context bound to the session, as the session middleware does.
func (f *fixture) ctxFor(t *testing.T, sid string) context.Context {
	t.Helper()
	return session.WithSession(context.Background(), f.get(t, sid))
}

func (f *fixture) login(t *testing.T, sid string, role auth.Role, token string) {
	t.Helper()
	f.api.handle(apiclient.PathLogin, reply(http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
		"role":         string(role),
	}))
	f.api.handle("/users/me", reply(http.StatusOK, session.Profile{ID: 7, Name: "Dana", Email: "dana@example.com", Role: string(role)}))

	res := f.svc.Login(context.Background(), sid, auth.Credentials{Email: "dana@example.com", Password: "secret"})
	require.True(t, res.OK, res.Message)
}

func (f *fixture) pending(t *testing.T, sid string) []notifications.Notice {
	t.Helper()
	list, err := f.notices.Pending(context.Background(), sid)
	require.NoError(t, err)
	return list
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
