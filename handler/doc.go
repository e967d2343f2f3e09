// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request value filled by binders and
// returns a Response. Wrap turns it into an http.HandlerFunc:
//
//	h := handler.HandlerFunc[handler.Context, LoginRequest](
//		func(ctx handler.Context, req LoginRequest) handler.Response {
//			return handler.Redirect("/dashboard/manager")
//		},
//	)
//	r.Post("/auth/login", handler.Wrap(h,
//		handler.WithBinders[handler.Context, LoginRequest](binder.Form()),
//		handler.WithErrorHandler[handler.Context, LoginRequest](errHandler),
//	))
//
// Responses adapt to the request kind: templ components are streamed as
// DataStar patches to DataStar clients and as HTML to everyone else, and
// redirects become SSE, HX-Redirect or 303 responses.
package handler
