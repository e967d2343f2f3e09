package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/growwise/pkg/apiclient"
	"github.com/dmitrymomot/growwise/pkg/logger"
	"github.com/dmitrymomot/growwise/pkg/notifications"
	"github.com/dmitrymomot/growwise/pkg/sanitizer"
	"github.com/dmitrymomot/growwise/pkg/session"
)

const (
	pathMe = "/users/me"
)

// Credentials are the login form fields. The API calls the email "username".
type Credentials struct {
	Email    string
	Password string
}

// Registration is the sign-up payload.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Result is the outcome of Login and Register. Callers branch on OK;
// Message is set on failure.
type Result struct {
	OK      bool
	User    *session.Profile
	Role    Role
	Message string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

// Service implements the session store operations.
type Service struct {
	sessions *session.Manager
	api      *apiclient.Client
	notices  *notifications.Manager
	logger   *slog.Logger
	cfg      Config

	fetches singleflight.Group

	mu         sync.Mutex
	fetching   map[string]int
	background map[string]*refresh
}

type refresh struct {
	cancel context.CancelFunc
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

func WithServiceConfig(cfg Config) ServiceOption {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// NewService wires the store operations. When an Invalidator is given, the
// service cancels background identity fetches for sessions it tears down.
func NewService(sessions *session.Manager, api *apiclient.Client, notices *notifications.Manager, inv *Invalidator, opts ...ServiceOption) *Service {
	s := &Service{
		sessions:   sessions,
		api:        api,
		notices:    notices,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:        DefaultConfig(),
		fetching:   make(map[string]int),
		background: make(map[string]*refresh),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("auth"))

	if inv != nil {
		inv.OnInvalidate(s.cancelBackground)
	}
	return s
}

// Login exchanges credentials for a token, stores it with the returned role
// and fetches the profile. It never returns an error; failures are reported
// in Result.Message and recorded as the session's last error.
func (s *Service) Login(ctx context.Context, sid string, creds Credentials) Result {
	form := url.Values{
		"username": {sanitizer.NormalizeEmail(creds.Email)},
		"password": {creds.Password},
	}

	var tok tokenResponse
	if err := s.api.PostForm(ctx, apiclient.PathLogin, form, &tok); err != nil || tok.AccessToken == "" {
		msg := apiclient.Message(err, MsgLoginFailed)
		s.logger.InfoContext(ctx, "login rejected", logger.SessionID(sid), logger.Error(err))
		s.recordError(ctx, sid, msg)
		return Result{Message: msg}
	}

	role := NormalizeRole(tok.Role)
	if role == "" {
		role = RoleFromToken(tok.AccessToken)
	}

	var selected Role
	_, err := s.sessions.Update(ctx, sid, func(cur *session.Session) error {
		selected = NormalizeRole(cur.SelectedRole)
		cur.SignIn(tok.AccessToken, string(role))
		if role != "" {
			cur.SelectedRole = string(role)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store credential", logger.SessionID(sid), logger.Error(err))
		return Result{Message: MsgLoginFailed}
	}
	s.cancelBackground(sid)

	if selected != "" && role != "" && selected != role {
		if err := s.notices.Info(ctx, sid, fmt.Sprintf("You are signed in as %s.", role)); err != nil {
			s.logger.WarnContext(ctx, "failed to queue role notice", logger.Error(err))
		}
	}

	if err := s.FetchMe(ctx, sid); err != nil {
		msg := apiclient.Message(err, MsgLoginFailed)
		s.recordError(ctx, sid, msg)
		return Result{Role: role, Message: msg}
	}

	cur, err := s.sessions.Get(ctx, sid)
	if err != nil || cur.Identity() == nil {
		return Result{Role: role, Message: MsgLoginFailed}
	}

	s.logger.InfoContext(ctx, "login succeeded",
		logger.SessionID(sid), logger.UserID(cur.User.ID), logger.Role(string(role)))
	return Result{OK: true, User: cur.User, Role: role}
}

// Register creates an account. The caller stays signed out.
func (s *Service) Register(ctx context.Context, reg Registration) Result {
	reg.Role = NormalizeRole(string(reg.Role))
	reg.Name = sanitizer.SingleLine(reg.Name)
	reg.Email = sanitizer.NormalizeEmail(reg.Email)

	var created session.Profile
	if err := s.api.PostJSON(ctx, apiclient.PathRegister, reg, &created); err != nil {
		s.logger.InfoContext(ctx, "registration rejected", logger.Error(err))
		return Result{Message: apiclient.Message(err, MsgRegisterFailed)}
	}

	res := Result{OK: true, Role: reg.Role}
	if created.ID != 0 {
		res.User = &created
	}
	return res
}

// Logout clears the credential, role, profile and last error. Calling it on
// a signed-out or unknown session is not an error.
func (s *Service) Logout(ctx context.Context, sid string) error {
	s.cancelBackground(sid)

	_, err := s.sessions.Update(ctx, sid, func(cur *session.Session) error {
		cur.SignOut()
		return nil
	})
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) && !errors.Is(err, session.ErrSessionExpired) {
		return err
	}
	return nil
}

// ClearError resets the last error only.
func (s *Service) ClearError(ctx context.Context, sid string) error {
	_, err := s.sessions.Update(ctx, sid, func(cur *session.Session) error {
		cur.Error = ""
		return nil
	})
	return err
}

// SelectRole stores the landing page role preference.
func (s *Service) SelectRole(ctx context.Context, sid string, raw string) (Role, error) {
	role := NormalizeRole(raw)
	if !role.Valid() {
		return "", ErrInvalidRole
	}
	_, err := s.sessions.Update(ctx, sid, func(cur *session.Session) error {
		cur.SelectedRole = string(role)
		return nil
	})
	return role, err
}

// FetchMe loads the profile for the session's current credential.
// Concurrent calls for the same credential share one request. The result is
// written only if the credential did not change while the request was out.
// On failure the profile is cleared; the session is ended once failures
// reach the configured limit.
func (s *Service) FetchMe(ctx context.Context, sid string) error {
	cur, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return err
	}
	if !cur.Authenticated() {
		return ErrNotAuthenticated
	}

	cred := apiclient.Credential{SessionID: sid, Token: cur.AccessToken, Epoch: cur.Epoch}
	key := fmt.Sprintf("%s:%d", sid, cur.Epoch)
	_, err, _ = s.fetches.Do(key, func() (any, error) {
		return nil, s.fetchMe(ctx, cred)
	})
	return err
}

func (s *Service) fetchMe(ctx context.Context, cred apiclient.Credential) error {
	sid := cred.SessionID
	s.markFetching(sid, 1)
	defer s.markFetching(sid, -1)

	var profile session.Profile
	fetchErr := s.api.Get(apiclient.WithCredential(ctx, cred), pathMe, &profile)
	if errors.Is(fetchErr, context.Canceled) {
		return fetchErr
	}

	exhausted := false
	_, err := s.sessions.Update(context.WithoutCancel(ctx), sid, func(cur *session.Session) error {
		if cur.Epoch != cred.Epoch || cur.AccessToken != cred.Token {
			return ErrStaleSession
		}
		if fetchErr == nil {
			cur.User = &profile
			cur.IdentityBoot = s.sessions.Boot()
			cur.IdentityFailures = 0
			return nil
		}

		cur.User = nil
		cur.IdentityBoot = ""
		cur.IdentityFailures++
		if s.cfg.MaxIdentityAttempts > 0 && cur.IdentityFailures >= s.cfg.MaxIdentityAttempts {
			exhausted = true
			cur.SignOut()
		}
		return nil
	})

	switch {
	case errors.Is(err, ErrStaleSession):
		s.logger.DebugContext(ctx, "dropped stale identity result", logger.SessionID(sid))
		return ErrStaleSession
	case err != nil:
		return errors.Join(fetchErr, err)
	}

	if fetchErr != nil {
		s.logger.WarnContext(ctx, "identity fetch failed", logger.SessionID(sid), logger.Error(fetchErr))
	}
	if exhausted {
		s.cancelBackground(sid)
		s.logger.WarnContext(ctx, "identity retries exhausted, session ended", logger.SessionID(sid))
		if err := s.notices.Error(context.WithoutCancel(ctx), sid, MsgIdentityUnavailable); err != nil {
			s.logger.WarnContext(ctx, "failed to queue notice", logger.Error(err))
		}
	}
	return fetchErr
}

// Loading reports whether an identity fetch for the session is in flight.
func (s *Service) Loading(sid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, bg := s.background[sid]
	return bg || s.fetching[sid] > 0
}

// RefreshIdentity starts FetchMe in the background, detached from the
// request but cancelled by Logout and invalidation. It returns false when a
// refresh for the session is already running.
func (s *Service) RefreshIdentity(ctx context.Context, sid string) bool {
	s.mu.Lock()
	if _, busy := s.background[sid]; busy {
		s.mu.Unlock()
		return false
	}
	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if s.cfg.IdentityTimeout > 0 {
		bg, cancel = withTimeout(bg, cancel, s.cfg.IdentityTimeout)
	}
	r := &refresh{cancel: cancel}
	s.background[sid] = r
	s.mu.Unlock()

	go func() {
		defer s.finishBackground(sid, r)
		if err := s.FetchMe(bg, sid); err != nil {
			s.logger.DebugContext(bg, "background identity refresh ended", logger.SessionID(sid), logger.Error(err))
		}
	}()
	return true
}

func (s *Service) finishBackground(sid string, r *refresh) {
	r.cancel()
	s.mu.Lock()
	if s.background[sid] == r {
		delete(s.background, sid)
	}
	s.mu.Unlock()
}

func (s *Service) cancelBackground(sid string) {
	s.mu.Lock()
	r, ok := s.background[sid]
	delete(s.background, sid)
	s.mu.Unlock()
	if ok {
		r.cancel()
	}
}

func (s *Service) markFetching(sid string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetching[sid] += delta
	if s.fetching[sid] <= 0 {
		delete(s.fetching, sid)
	}
}

func (s *Service) recordError(ctx context.Context, sid, msg string) {
	_, err := s.sessions.Update(ctx, sid, func(cur *session.Session) error {
		cur.Error = msg
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record error", logger.SessionID(sid), logger.Error(err))
	}
}

func withTimeout(ctx context.Context, cancel context.CancelFunc, d time.Duration) (context.Context, context.CancelFunc) {
	tctx, cancelTimeout := context.WithTimeout(ctx, d)
	return tctx, func() {
		cancelTimeout()
		cancel()
	}
}
