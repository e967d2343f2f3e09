package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/growwise/handler"
	"github.com/dmitrymomot/growwise/modules/dashboard"
	"github.com/dmitrymomot/growwise/pkg/apiclient"
	"github.com/dmitrymomot/growwise/pkg/navigate"
	"github.com/dmitrymomot/growwise/pkg/notifications"
	"github.com/dmitrymomot/growwise/pkg/session"
	"github.com/dmitrymomot/growwise/svc/auth"
	"github.com/dmitrymomot/growwise/svc/feedback"
)

const sessionHeader = "X-Session"

type fixture struct {
	sessions *session.Manager
	notices  *notifications.Manager
	router   http.Handler
}

func newFixture(t *testing.T, backend *http.ServeMux) *fixture {
	t.Helper()

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	sessions := session.New(
		session.WithStore(store),
		session.WithTransport(session.NewHeaderTransport(sessionHeader)),
	)
	notices := notifications.NewManager(notifications.NewMemoryStorage())
	inv := auth.NewInvalidator(sessions, notices, nil)

	client, err := apiclient.New(
		apiclient.Config{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second},
		apiclient.WithTokenSource(auth.SessionTokenSource(sessions)),
		apiclient.WithUnauthorizedHandler(inv),
	)
	require.NoError(t, err)

	authSvc := auth.NewService(sessions, client, notices, inv)
	guard := auth.NewGuard(sessions, authSvc, inv)
	svc := dashboard.NewService(
		feedback.NewService(client),
		notices,
		guard,
		handler.NewErrorHandler(nil, handler.ErrorHandlerConfig{}),
		nil,
	)

	r := chi.NewRouter()
	r.Use(navigate.Middleware, sessions.Middleware)
	r.Mount("/dashboard", svc.Handle())

	return &fixture{sessions: sessions, notices: notices, router: r}
}

// signIn creates a session that already holds a token and a loaded profile.
func (f *fixture) signIn(t *testing.T, role auth.Role) string {
	t.Helper()
	ctx := context.Background()
	s, err := f.sessions.Ensure(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	_, err = f.sessions.Update(ctx, s.ID, func(cur *session.Session) error {
		cur.SignIn("tok-"+string(role), string(role))
		cur.User = &session.Profile{ID: 7, Name: "Dana", Role: string(role)}
		cur.IdentityBoot = f.sessions.Boot()
		return nil
	})
	require.NoError(t, err)
	return s.ID
}

func (f *fixture) do(t *testing.T, method, target, sid string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set(sessionHeader, "Bearer "+sid)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func (f *fixture) pending(t *testing.T, sid string) []notifications.Notice {
	t.Helper()
	list, err := f.notices.Pending(context.Background(), sid)
	require.NoError(t, err)
	return list
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestManagerDashboard(t *testing.T) {
	t.Parallel()

	var authHeader atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/dashboard/manager/overview", func(w http.ResponseWriter, r *http.Request) {
		authHeader.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"team_feedback_counts": map[string]any{"3": map[string]any{"name": "Ravi", "feedback_count": 2}},
		})
	})
	mux.HandleFunc("GET /api/dashboard/manager/sentiment_trends", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "trends offline"})
	})
	mux.HandleFunc("GET /api/users/team", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 3, "name": "Ravi", "email": "ravi@example.com", "role": "employee"}})
	})
	mux.HandleFunc("GET /api/feedback/manager", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{})
	})

	f := newFixture(t, mux)
	sid := f.signIn(t, auth.RoleManager)

	w := f.do(t, http.MethodGet, "/dashboard/manager/", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Ravi")
	assert.Contains(t, body, "trends offline", "a failed slice is shown inline")
	assert.Equal(t, "Bearer tok-manager", authHeader.Load())

	t.Run("employee is sent to the entry page", func(t *testing.T) {
		emp := f.signIn(t, auth.RoleEmployee)
		w := f.do(t, http.MethodGet, "/dashboard/manager/", emp, nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})
}

func TestCreateFeedback(t *testing.T) {
	t.Parallel()

	got := make(chan map[string]any, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/feedback/", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		got <- in
		if in["sentiment"] == "negative" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Employee is not on your team"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 11, "employee_id": 3, "sentiment": in["sentiment"]})
	})

	f := newFixture(t, mux)
	sid := f.signIn(t, auth.RoleManager)

	w := f.do(t, http.MethodPost, "/dashboard/manager/feedback", sid, url.Values{
		"employee_id":      {"3"},
		"strengths":        {"  Clear writing "},
		"areas_to_improve": {"Estimates"},
		"sentiment":        {"positive"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard/manager", w.Header().Get("Location"))

	payload := <-got
	assert.Equal(t, "Clear writing", payload["strengths"])
	assert.EqualValues(t, 3, payload["employee_id"])

	notices := f.pending(t, sid)
	require.Len(t, notices, 1)
	assert.Equal(t, "Feedback sent.", notices[0].Message)

	w = f.do(t, http.MethodPost, "/dashboard/manager/feedback", sid, url.Values{
		"employee_id":      {"4"},
		"strengths":        {"x"},
		"areas_to_improve": {"y"},
		"sentiment":        {"negative"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	<-got
	notices = f.pending(t, sid)
	require.Len(t, notices, 1)
	assert.Equal(t, notifications.TypeError, notices[0].Type)
	assert.Equal(t, "Employee is not on your team", notices[0].Message)
}

func TestEmployeeDashboard(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/feedback/employee", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{
			"id": 5, "manager_id": 1, "employee_id": 7,
			"strengths": "Ownership", "areas_to_improve": "Docs", "sentiment": "positive",
		}})
	})
	mux.HandleFunc("GET /api/feedback/notifications", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 9, "message": "New feedback received", "is_read": false}})
	})
	mux.HandleFunc("POST /api/feedback/5/acknowledge", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id": 5, "manager_id": 1, "employee_id": 7,
			"strengths": "Ownership", "areas_to_improve": "Docs", "sentiment": "positive", "acknowledged": true,
		})
	})
	mux.HandleFunc("POST /api/feedback/6/acknowledge", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Feedback not found"})
	})
	var cleared atomic.Int32
	mux.HandleFunc("DELETE /api/feedback/notifications/clear-all", func(w http.ResponseWriter, _ *http.Request) {
		cleared.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	f := newFixture(t, mux)
	sid := f.signIn(t, auth.RoleEmployee)

	t.Run("page", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/dashboard/employee/", sid, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Ownership")
		assert.Contains(t, w.Body.String(), "New feedback received")
	})

	t.Run("acknowledge redirects with a notice", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/dashboard/employee/feedback/5/acknowledge", sid, url.Values{})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/employee", w.Header().Get("Location"))
		notices := f.pending(t, sid)
		require.Len(t, notices, 1)
		assert.Equal(t, "Feedback acknowledged.", notices[0].Message)
	})

	t.Run("acknowledge patches the card for datastar", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/dashboard/employee/feedback/5/acknowledge", sid, nil, "Accept", "text/event-stream")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
		assert.Contains(t, w.Body.String(), "feedback-5")
		assert.Empty(t, f.pending(t, sid))
	})

	t.Run("unknown feedback is a 404", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/dashboard/employee/feedback/6/acknowledge", sid, url.Values{})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Feedback not found")
	})

	t.Run("invalid id is a bad request", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/dashboard/employee/feedback/abc/acknowledge", sid, url.Values{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("clear notifications", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/dashboard/employee/notifications/clear", sid, url.Values{})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.EqualValues(t, 1, cleared.Load())
	})
}

func TestDashboard_SignedOut(t *testing.T) {
	t.Parallel()

	f := newFixture(t, http.NewServeMux())
	s, err := f.sessions.Ensure(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/dashboard/employee/", s.ID, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestDashboard_BackendRejectsToken(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	reject := func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	}
	mux.HandleFunc("GET /api/feedback/employee", reject)
	mux.HandleFunc("GET /api/feedback/notifications", reject)

	f := newFixture(t, mux)
	sid := f.signIn(t, auth.RoleEmployee)

	w := f.do(t, http.MethodGet, "/dashboard/employee/", sid, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	s, err := f.sessions.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())

	notices := f.pending(t, sid)
	require.Len(t, notices, 1, "two rejected calls end the session once")
	assert.Equal(t, auth.MsgSessionExpired, notices[0].Message)
}
