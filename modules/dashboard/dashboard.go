package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/growwise/binder"
	"github.com/dmitrymomot/growwise/handler"
	"github.com/dmitrymomot/growwise/pkg/apiclient"
	"github.com/dmitrymomot/growwise/pkg/logger"
	"github.com/dmitrymomot/growwise/pkg/navigate"
	"github.com/dmitrymomot/growwise/pkg/notifications"
	"github.com/dmitrymomot/growwise/pkg/session"
	"github.com/dmitrymomot/growwise/svc/auth"
	"github.com/dmitrymomot/growwise/svc/feedback"
	"github.com/dmitrymomot/growwise/views"
)

const (
	managerHome  = "/dashboard/manager"
	employeeHome = "/dashboard/employee"
)

type Service struct {
	feedback     *feedback.Service
	notices      *notifications.Manager
	guard        *auth.Guard
	errorHandler handler.ErrorHandler[handler.Context]
	logger       *slog.Logger
}

func NewService(
	fb *feedback.Service,
	notices *notifications.Manager,
	guard *auth.Guard,
	errorHandler handler.ErrorHandler[handler.Context],
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		feedback:     fb,
		notices:      notices,
		guard:        guard,
		errorHandler: errorHandler,
		logger:       log.With(logger.Component("dashboard")),
	}
}

// Handle returns the router mounted at /dashboard.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Route("/manager", func(r chi.Router) {
		r.Use(s.guard.Require(auth.RoleManager))
		r.Get("/", handler.Wrap(s.manager,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Post("/feedback", handler.Wrap(s.createFeedback,
			handler.WithBinders[handler.Context, CreateFeedbackRequest](binder.Form()),
			handler.WithErrorHandler[handler.Context, CreateFeedbackRequest](s.errorHandler),
		))
	})

	r.Route("/employee", func(r chi.Router) {
		r.Use(s.guard.Require(auth.RoleEmployee))
		r.Get("/", handler.Wrap(s.employee,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Post("/feedback/{id}/acknowledge", handler.Wrap(s.acknowledge,
			handler.WithBinders[handler.Context, IDRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, IDRequest](s.errorHandler),
		))
		r.Post("/notifications/{id}/read", handler.Wrap(s.markRead,
			handler.WithBinders[handler.Context, IDRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, IDRequest](s.errorHandler),
		))
		r.Post("/notifications/clear", handler.Wrap(s.clearNotifications,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
	})

	return r
}

// load fills one dashboard slice. Failures are logged and shown inline.
func load[T any](ctx context.Context, log *slog.Logger, what string, fetch func(context.Context) (T, error)) views.Section[T] {
	data, err := fetch(ctx)
	if err != nil {
		log.WarnContext(ctx, "failed to load dashboard slice", slog.String("slice", what), logger.Error(err))
		return views.Section[T]{Err: apiclient.Message(err, "Could not load "+what+".")}
	}
	return views.Section[T]{Data: data}
}

func (s *Service) manager(ctx handler.Context, _ struct{}) handler.Response {
	data := views.ManagerData{User: auth.ProfileFromContext(ctx)}

	var g errgroup.Group
	g.Go(func() error {
		data.Overview = load(ctx, s.logger, "the team overview", s.feedback.ManagerOverview)
		return nil
	})
	g.Go(func() error {
		data.Trends = load(ctx, s.logger, "sentiment trends", s.feedback.SentimentTrends)
		return nil
	})
	g.Go(func() error {
		data.Team = load(ctx, s.logger, "your team", s.feedback.TeamMembers)
		return nil
	})
	g.Go(func() error {
		data.Feedback = load(ctx, s.logger, "feedback", s.feedback.ManagerFeedback)
		return nil
	})
	_ = g.Wait()

	return s.page(ctx, "Manager dashboard", views.ManagerDashboard(data))
}

func (s *Service) employee(ctx handler.Context, _ struct{}) handler.Response {
	data := views.EmployeeData{User: auth.ProfileFromContext(ctx)}

	var g errgroup.Group
	g.Go(func() error {
		data.Feedback = load(ctx, s.logger, "your feedback", s.feedback.EmployeeFeedback)
		return nil
	})
	g.Go(func() error {
		data.Notifications = load(ctx, s.logger, "notifications", s.feedback.Notifications)
		return nil
	})
	_ = g.Wait()

	return s.page(ctx, "Employee dashboard", views.EmployeeDashboard(data))
}

// page drains the session's notices into the layout. When a slice ended the
// session the response is replaced by a redirect, so the notices stay queued
// for the page the visitor lands on.
func (s *Service) page(ctx handler.Context, title string, body templ.Component) handler.Response {
	if _, pending := navigate.Pending(ctx); pending {
		return handler.Empty()
	}
	sid := session.IDFromContext(ctx)
	notices, err := s.notices.Pending(ctx, sid)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to drain notices", logger.SessionID(sid), logger.Error(err))
	}
	return handler.Templ(views.Layout(title, notices, body))
}

type IDRequest struct {
	ID int64 `path:"id"`
}

func (s *Service) acknowledge(ctx handler.Context, req IDRequest) handler.Response {
	fb, err := s.feedback.Acknowledge(ctx, req.ID)
	if err != nil {
		return handler.Error(badID(err))
	}
	if navigate.IsDataStar(ctx.Request()) {
		return handler.Templ(views.FeedbackCard(fb, true))
	}
	s.notify(ctx, s.notices.Success, "Feedback acknowledged.")
	return handler.Redirect(employeeHome)
}

func (s *Service) markRead(ctx handler.Context, req IDRequest) handler.Response {
	if err := s.feedback.MarkNotificationRead(ctx, req.ID); err != nil {
		return handler.Error(badID(err))
	}
	return handler.Redirect(employeeHome)
}

func (s *Service) clearNotifications(ctx handler.Context, _ struct{}) handler.Response {
	if err := s.feedback.ClearNotifications(ctx); err != nil {
		return handler.Error(err)
	}
	return handler.Redirect(employeeHome)
}

func badID(err error) error {
	if errors.Is(err, feedback.ErrInvalidID) {
		return handler.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}
	return err
}

type CreateFeedbackRequest struct {
	EmployeeID     int64  `form:"employee_id"`
	Strengths      string `form:"strengths"`
	AreasToImprove string `form:"areas_to_improve"`
	Sentiment      string `form:"sentiment"`
}

func (s *Service) createFeedback(ctx handler.Context, req CreateFeedbackRequest) handler.Response {
	_, err := s.feedback.Create(ctx, feedback.NewFeedback{
		EmployeeID:     req.EmployeeID,
		Strengths:      req.Strengths,
		AreasToImprove: req.AreasToImprove,
		Sentiment:      feedback.Sentiment(req.Sentiment),
	})
	if err != nil {
		s.notify(ctx, s.notices.Error, apiclient.Message(err, "Could not send feedback."))
	} else {
		s.notify(ctx, s.notices.Success, "Feedback sent.")
	}
	return handler.Redirect(managerHome)
}

func (s *Service) notify(ctx context.Context, fn func(context.Context, string, string) error, msg string) {
	sid := session.IDFromContext(ctx)
	if err := fn(ctx, sid, msg); err != nil {
		s.logger.WarnContext(ctx, "failed to queue notice", logger.SessionID(sid), logger.Error(err))
	}
}
