package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/growwise/handler"
	"github.com/dmitrymomot/growwise/modules/account"
	"github.com/dmitrymomot/growwise/modules/dashboard"
	"github.com/dmitrymomot/growwise/pkg/clientip"
	"github.com/dmitrymomot/growwise/pkg/httpserver"
	"github.com/dmitrymomot/growwise/pkg/logger"
	"github.com/dmitrymomot/growwise/pkg/navigate"
	"github.com/dmitrymomot/growwise/pkg/requestid"
	"github.com/dmitrymomot/growwise/pkg/session"
	"github.com/dmitrymomot/growwise/views"
)

type routerDeps struct {
	logger    *slog.Logger
	sessions  *session.Manager
	resolver  *clientip.Resolver
	account   *account.Service
	dashboard *dashboard.Service
	checks    []func(context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	// Probes bypass sessions so they never create envelopes.
	r.Get("/healthz", httpserver.HealthCheckHandler(d.logger))
	r.Get("/readyz", httpserver.HealthCheckHandler(d.logger, d.checks...))

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Recoverer,
			requestid.Middleware,
			d.resolver.Middleware,
			logger.RequestLogger(d.logger),
			navigate.Middleware,
			d.sessions.Middleware,
		)

		d.account.Routes(r)
		r.Mount("/dashboard", d.dashboard.Handle())

		r.NotFound(handler.Wrap(func(handler.Context, struct{}) handler.Response {
			return handler.TemplStatus(http.StatusNotFound, views.NotFound())
		}))
	})

	return r
}
