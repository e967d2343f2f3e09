package account

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/growwise/binder"
	"github.com/dmitrymomot/growwise/handler"
	"github.com/dmitrymomot/growwise/pkg/logger"
	"github.com/dmitrymomot/growwise/pkg/navigate"
	"github.com/dmitrymomot/growwise/pkg/notifications"
	"github.com/dmitrymomot/growwise/pkg/ratelimiter"
	"github.com/dmitrymomot/growwise/pkg/session"
	"github.com/dmitrymomot/growwise/svc/auth"
	"github.com/dmitrymomot/growwise/views"
)

const msgTooManyAttempts = "Too many attempts. Please wait a moment and try again."

type Service struct {
	auth         *auth.Service
	sessions     *session.Manager
	notices      *notifications.Manager
	errorHandler handler.ErrorHandler[handler.Context]
	logger       *slog.Logger
	limiter      *ratelimiter.Bucket
}

type Option func(*Service)

// WithLimiter throttles the login and register endpoints per client address.
func WithLimiter(b *ratelimiter.Bucket) Option {
	return func(s *Service) { s.limiter = b }
}

func NewService(
	authSvc *auth.Service,
	sessions *session.Manager,
	notices *notifications.Manager,
	errorHandler handler.ErrorHandler[handler.Context],
	log *slog.Logger,
	opts ...Option,
) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		auth:         authSvc,
		sessions:     sessions,
		notices:      notices,
		errorHandler: errorHandler,
		logger:       log.With(logger.Component("account")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes registers the landing page and the /auth endpoints on r.
func (s *Service) Routes(r chi.Router) {
	r.Get("/", handler.Wrap(s.landing,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))
	r.Post("/role", handler.Wrap(s.selectRole,
		handler.WithBinders[handler.Context, RoleRequest](binder.Form()),
		handler.WithErrorHandler[handler.Context, RoleRequest](s.errorHandler),
	))

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(ratelimiter.Middleware(s.limiter,
					ratelimiter.Prefixed("auth", ratelimiter.ByClientIP),
					ratelimiter.WithResponder(s.throttled),
				))
			}
			r.Post("/login", handler.Wrap(s.login,
				handler.WithBinders[handler.Context, LoginRequest](binder.Form()),
				handler.WithErrorHandler[handler.Context, LoginRequest](s.errorHandler),
			))
			r.Post("/register", handler.Wrap(s.register,
				handler.WithBinders[handler.Context, RegisterRequest](binder.Form()),
				handler.WithErrorHandler[handler.Context, RegisterRequest](s.errorHandler),
			))
		})
		r.Post("/logout", handler.Wrap(s.logout,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Post("/error/clear", handler.Wrap(s.clearError,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
	})
}

// throttled answers a limited credential request. Store failures surface
// as 503; a denial sends the visitor back to the landing page with a notice.
func (s *Service) throttled(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result, err error) {
	ctx := r.Context()
	if err != nil {
		s.logger.ErrorContext(ctx, "rate limiter unavailable", logger.Error(err))
		s.errorHandler(handler.NewContext(w, r), handler.NewHTTPError(http.StatusServiceUnavailable, "Please try again later."))
		return
	}

	sid := session.IDFromContext(ctx)
	s.logger.WarnContext(ctx, "credential attempts throttled", logger.SessionID(sid), logger.Path(r.URL.Path))
	if err := s.notices.Error(ctx, sid, msgTooManyAttempts); err != nil {
		s.logger.WarnContext(ctx, "failed to queue notice", logger.SessionID(sid), logger.Error(err))
	}
	if err := navigate.Redirect(w, r, "/"); err != nil {
		s.logger.ErrorContext(ctx, "failed to redirect", logger.Error(err))
	}
}

func (s *Service) landing(ctx handler.Context, _ struct{}) handler.Response {
	sid := session.IDFromContext(ctx)
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return handler.Error(err)
	}

	if _, pending := navigate.Pending(ctx); pending {
		return handler.Empty()
	}
	notices, err := s.notices.Pending(ctx, sid)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to drain notices", logger.SessionID(sid), logger.Error(err))
	}

	data := views.LandingData{
		SelectedRole: sess.SelectedRole,
		Error:        sess.Error,
	}
	if sess.Authenticated() && sess.Identity() != nil {
		data.User = sess.User
		data.HomePath = auth.NormalizeRole(sess.Role).HomePath()
	}
	return handler.Templ(views.Layout("Welcome", notices, views.Landing(data)))
}

type RoleRequest struct {
	Role string `form:"role"`
}

func (s *Service) selectRole(ctx handler.Context, req RoleRequest) handler.Response {
	if _, err := s.auth.SelectRole(ctx, session.IDFromContext(ctx), req.Role); err != nil {
		if errors.Is(err, auth.ErrInvalidRole) {
			return handler.Error(handler.NewHTTPError(http.StatusBadRequest, "Unknown role"))
		}
		return handler.Error(err)
	}
	return handler.Redirect("/")
}

type LoginRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (s *Service) login(ctx handler.Context, req LoginRequest) handler.Response {
	sid := session.IDFromContext(ctx)
	res := s.auth.Login(ctx, sid, auth.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if !res.OK {
		return handler.Redirect("/")
	}

	rotated, err := s.sessions.Rotate(ctx, ctx.ResponseWriter(), sid)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to rotate session id", logger.SessionID(sid), logger.Error(err))
		if err := s.auth.Logout(ctx, sid); err != nil {
			s.logger.ErrorContext(ctx, "failed to sign out after rotation failure", logger.SessionID(sid), logger.Error(err))
		}
		return handler.Error(err)
	}
	if err := s.notices.Transfer(ctx, sid, rotated.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to move notices", logger.SessionID(rotated.ID), logger.Error(err))
	}
	return handler.Redirect(res.Role.HomePath())
}

type RegisterRequest struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Password string `form:"password"`
	Role     string `form:"role"`
}

func (s *Service) register(ctx handler.Context, req RegisterRequest) handler.Response {
	sid := session.IDFromContext(ctx)
	res := s.auth.Register(ctx, auth.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     auth.Role(req.Role),
	})

	notify, msg := s.notices.Success, auth.MsgRegistered
	if !res.OK {
		notify, msg = s.notices.Error, res.Message
	}
	if err := notify(ctx, sid, msg); err != nil {
		s.logger.WarnContext(ctx, "failed to queue notice", logger.SessionID(sid), logger.Error(err))
	}
	return handler.Redirect("/")
}

func (s *Service) logout(ctx handler.Context, _ struct{}) handler.Response {
	if err := s.auth.Logout(ctx, session.IDFromContext(ctx)); err != nil {
		return handler.Error(err)
	}
	return handler.Redirect("/")
}

func (s *Service) clearError(ctx handler.Context, _ struct{}) handler.Response {
	if err := s.auth.ClearError(ctx, session.IDFromContext(ctx)); err != nil {
		return handler.Error(err)
	}
	return handler.Redirect("/")
}
