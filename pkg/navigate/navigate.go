package navigate

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/starfederation/datastar-go/datastar"
)

type contextKey struct{}

// Navigator holds the pending hard navigation of one request.
type Navigator struct {
	path string

	mu        sync.Mutex
	target    string
	committed bool
	closed    bool
}

// Force requests a hard navigation to target. It reports whether this call
// scheduled the navigation.
func Force(ctx context.Context, target string) bool {
	nav, ok := ctx.Value(contextKey{}).(*Navigator)
	if !ok {
		return false
	}
	return nav.force(target)
}

// Pending returns the scheduled target, if any.
func Pending(ctx context.Context) (string, bool) {
	nav, ok := ctx.Value(contextKey{}).(*Navigator)
	if !ok {
		return "", false
	}
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.target, nav.target != ""
}

func (n *Navigator) force(target string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed || n.committed || n.target != "" {
		return false
	}
	if samePath(n.path, target) {
		return false
	}
	n.target = target
	return true
}

func (n *Navigator) pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target != ""
}

// commit marks the response as started. It returns false when a navigation
// is pending, in which case the caller must not write.
func (n *Navigator) commit() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.target != "" {
		return false
	}
	n.committed = true
	return true
}

func (n *Navigator) close() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return n.target
}

// Middleware installs a Navigator for every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nav := &Navigator{path: r.URL.Path}
		rw := &responseWriter{ResponseWriter: w, nav: nav}

		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), contextKey{}, nav)))

		if target := nav.close(); target != "" {
			h := w.Header()
			h.Del("Content-Type")
			h.Del("Content-Length")
			_ = Redirect(w, r, target)
		}
	})
}

// Redirect writes a full-page redirect suited to the request kind.
func Redirect(w http.ResponseWriter, r *http.Request, target string) error {
	switch {
	case IsDataStar(r):
		return datastar.NewSSE(w, r).Redirect(target)
	case IsHTMX(r):
		w.Header().Set(HXRedirect, target)
		w.WriteHeader(http.StatusOK)
		return nil
	default:
		http.Redirect(w, r, target, http.StatusSeeOther)
		return nil
	}
}

func samePath(current, target string) bool {
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() {
		return false
	}
	return u.Path == current
}

// responseWriter drops the handler's output once a navigation is pending.
type responseWriter struct {
	http.ResponseWriter
	nav *Navigator
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.nav.commit() {
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.nav.commit() {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Flush() {
	if w.nav.pending() {
		return
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		w.nav.commit()
		f.Flush()
	}
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
