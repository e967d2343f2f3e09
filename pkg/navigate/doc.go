// Package navigate performs hard navigations: redirects that replace the
// whole page rather than a fragment, and that may be requested from deep
// inside a request (for example by an API client that saw a 401).
//
// Middleware installs a request-scoped Navigator. Any code holding the
// request context can call Force; the first call wins, later calls are
// ignored, and once the handler returns the middleware discards whatever
// body the handler prepared and writes the redirect instead:
//
//   - plain requests get 303 See Other
//   - HTMX requests get an HX-Redirect header
//   - DataStar requests get an SSE redirect
//
// Force is a no-op when the request already targets the destination path,
// when the handler already committed its response, or when the context
// carries no Navigator.
package navigate
