// Package logger builds the application's *slog.Logger and keeps attribute
// keys consistent across packages.
//
// New returns a logger whose handler is wrapped by a decorator that pulls
// request-scoped values (for example the request id) out of the context on
// every record:
//
//	log := logger.New(
//	    logger.ForEnv("production", "growwise"),
//	    logger.WithContextExtractors(requestid.LogExtractor),
//	)
//	log.InfoContext(ctx, "login succeeded", logger.SessionID(sid), logger.Role(role))
//
// Attribute helpers return an empty slog.Attr for nil input, so callers can
// write logger.Error(err) without a nil check.
package logger
