package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/growwise/handler"
	"github.com/dmitrymomot/growwise/modules/account"
	"github.com/dmitrymomot/growwise/modules/dashboard"
	"github.com/dmitrymomot/growwise/pkg/apiclient"
	"github.com/dmitrymomot/growwise/pkg/clientip"
	"github.com/dmitrymomot/growwise/pkg/cookie"
	"github.com/dmitrymomot/growwise/pkg/httpserver"
	"github.com/dmitrymomot/growwise/pkg/logger"
	"github.com/dmitrymomot/growwise/pkg/notifications"
	"github.com/dmitrymomot/growwise/pkg/ratelimiter"
	"github.com/dmitrymomot/growwise/pkg/redis"
	"github.com/dmitrymomot/growwise/pkg/requestid"
	"github.com/dmitrymomot/growwise/pkg/session"
	"github.com/dmitrymomot/growwise/svc/auth"
	"github.com/dmitrymomot/growwise/svc/feedback"
	"github.com/dmitrymomot/growwise/views"
)

var ErrInvalidConfig = errors.New("app: invalid configuration")

// App owns the wired components and their shutdown.
type App struct {
	cfg     Config
	logger  *slog.Logger
	handler http.Handler
	server  *httpserver.Server
	closers []func() error

	Sessions *session.Manager
	Auth     *auth.Service
}

type Option func(*options)

type options struct {
	logger      *slog.Logger
	redisClient goredis.UniversalClient
	transport   http.RoundTripper
}

// WithLogger replaces the logger built from configuration.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithRedisClient uses an existing client instead of dialing REDIS_URL.
// The caller keeps ownership of the client.
func WithRedisClient(client goredis.UniversalClient) Option {
	return func(o *options) { o.redisClient = client }
}

// WithAPITransport sets the round tripper under the API client.
func WithAPITransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New validates cfg and builds the application. Close releases what New
// opened, also when New fails halfway.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	log := o.logger
	if log == nil {
		log = logger.New(
			logger.ForEnv(cfg.AppEnv, cfg.AppName),
			logger.WithLevelName(cfg.LogLevel),
			logger.WithContextExtractors(requestid.LogExtractor, clientip.LogExtractor),
		)
	}

	a := &App{cfg: cfg, logger: log}
	if err := a.wire(ctx, o); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, o options) error {
	cfg := a.cfg
	log := a.logger

	rdb := o.redisClient
	if rdb == nil && cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Close)
		rdb = client
	}

	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return fmt.Errorf("app: cookies: %w", err)
	}

	var (
		sessionStore session.Store
		noticeStore  notifications.Storage
		limitStore   ratelimiter.Store
	)
	if rdb != nil {
		sessionStore = session.NewRedisStore(rdb, cfg.Session.RedisPrefix)
		noticeStore = notifications.NewRedisStorage(rdb, cfg.Notices.RedisPrefix, cfg.Notices.TTL)
		limitStore = ratelimiter.NewRedisStore(rdb, cfg.AppName+":ratelimit:")
		log.Info("using redis stores")
	} else {
		mem := session.NewMemoryStore(cfg.Session.CleanupInterval)
		limits := ratelimiter.NewMemoryStore()
		a.closers = append(a.closers, mem.Close, limits.Close)
		sessionStore = mem
		noticeStore = notifications.NewMemoryStorage()
		limitStore = limits
		log.Warn("REDIS_URL not set, sessions are kept in memory")
	}

	sessions := session.New(
		session.WithStore(sessionStore),
		session.WithCookieManager(cookies),
		session.WithConfig(cfg.Session),
	)
	notices := notifications.NewManager(noticeStore,
		notifications.WithLogger(log),
		notifications.WithDeliverer(notifications.NewLogDeliverer(log)),
	)
	inv := auth.NewInvalidator(sessions, notices, log)

	apiOpts := []apiclient.Option{
		apiclient.WithTokenSource(auth.SessionTokenSource(sessions)),
		apiclient.WithUnauthorizedHandler(inv),
		apiclient.WithLogger(log),
	}
	if o.transport != nil {
		apiOpts = append(apiOpts, apiclient.WithRoundTripper(o.transport))
	}
	api, err := apiclient.New(cfg.API, apiOpts...)
	if err != nil {
		return fmt.Errorf("app: api client: %w", err)
	}

	authSvc := auth.NewService(sessions, api, notices, inv,
		auth.WithServiceLogger(log),
		auth.WithServiceConfig(cfg.Auth),
	)
	guard := auth.NewGuard(sessions, authSvc, inv,
		auth.WithLoadingPage(templ.Handler(views.Loading(cfg.Auth.LoadingRefresh))),
		auth.WithGuardLogger(log),
	)
	limiter, err := ratelimiter.NewBucket(limitStore, cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("app: rate limiter: %w", err)
	}

	errorHandler := handler.NewErrorHandler(log, handler.ErrorHandlerConfig{
		ErrorPage:  views.ErrorPage,
		ErrorToast: views.ErrorToast,
	})

	var checks []func(context.Context) error
	if rdb != nil {
		checks = append(checks, redis.Healthcheck(rdb))
	}

	a.Sessions = sessions
	a.Auth = authSvc
	a.handler = newRouter(routerDeps{
		logger:    log,
		sessions:  sessions,
		resolver:  clientip.NewResolver(cfg.TrustProxy),
		account:   account.NewService(authSvc, sessions, notices, errorHandler, log, account.WithLimiter(limiter)),
		dashboard: dashboard.NewService(feedback.NewService(api), notices, guard, errorHandler, log),
		checks:    checks,
	})
	a.server = httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return nil
}

// Handler is the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves until ctx is cancelled or the process is signalled.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx, a.handler)
}

// Close releases stores and connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
