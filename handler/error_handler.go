package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/growwise/pkg/apiclient"
	"github.com/dmitrymomot/growwise/pkg/logger"
	"github.com/dmitrymomot/growwise/pkg/navigate"
	"github.com/dmitrymomot/growwise/pkg/requestid"
)

type ErrorPageParams struct {
	Error      string
	StatusCode int
	RequestID  string
	RetryURL   string
}

type ErrorToastParams struct {
	Message   string
	Type      string // "error", "warning"
	RequestID string
}

type ErrorHandlerConfig struct {
	// ErrorPage renders the full page for regular requests.
	ErrorPage func(ErrorPageParams) templ.Component

	// ErrorToast renders a toast patched into the page for DataStar requests.
	ErrorToast func(ErrorToastParams) templ.Component

	// ToastTarget defaults to "#toasts".
	ToastTarget string
}

type ErrorInfo struct {
	StatusCode int
	Message    string
	Type       string
	LogLevel   slog.Level
}

// classifyError maps handler and backend errors to a status and a message
// safe to show. Backend failures become 502 unless the backend said 404.
func classifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Message:    "An error occurred processing your request",
	}

	var httpErr HTTPError
	var apiErr *apiclient.Error
	switch {
	case errors.As(err, &httpErr):
		info.StatusCode = httpErr.Code
		info.Message = httpErr.Key
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		info.StatusCode = http.StatusNotFound
		info.Message = apiclient.Message(err, "Not found")
	case errors.As(err, &apiErr):
		info.StatusCode = http.StatusBadGateway
		info.Message = apiclient.Message(err, "The service is unavailable. Please try again.")
	case errors.Is(err, apiclient.ErrTransport), errors.Is(err, apiclient.ErrDecode):
		info.StatusCode = http.StatusBadGateway
		info.Message = "The service is unavailable. Please try again."
	}

	info.Type = "error"
	info.LogLevel = slog.LevelError
	if info.StatusCode < http.StatusInternalServerError {
		info.Type = "warning"
		info.LogLevel = slog.LevelWarn
	}
	return info
}

// NewErrorHandler renders errors as a full page, or as a toast for DataStar
// requests, and logs them at warn (4xx) or error (5xx).
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("error_handler"))
	if cfg.ToastTarget == "" {
		cfg.ToastTarget = "#toasts"
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		w := ctx.ResponseWriter()
		rid := requestid.FromContext(r.Context())
		info := classifyError(err)

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.Error(err),
			logger.Status(info.StatusCode),
			slog.String("method", r.Method),
			logger.Path(r.URL.Path),
		)

		if navigate.IsDataStar(r) {
			if cfg.ErrorToast == nil {
				return
			}
			toast := cfg.ErrorToast(ErrorToastParams{Message: info.Message, Type: info.Type, RequestID: rid})
			resp := Templ(toast, WithTarget(cfg.ToastTarget), WithPatchMode(PatchPrepend))
			if renderErr := resp.Render(w, r); renderErr != nil {
				log.ErrorContext(r.Context(), "failed to render error toast", logger.Error(renderErr))
			}
			return
		}

		if cfg.ErrorPage == nil {
			http.Error(w, info.Message, info.StatusCode)
			return
		}
		page := cfg.ErrorPage(ErrorPageParams{
			Error:      info.Message,
			StatusCode: info.StatusCode,
			RequestID:  rid,
			RetryURL:   r.URL.Path,
		})
		if renderErr := TemplStatus(info.StatusCode, page).Render(w, r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error page", logger.Error(renderErr))
		}
	}
}
