package navigate

import (
	"net/http"
	"strings"
)

// HTMX headers.
const (
	HXRequest    = "HX-Request"
	HXBoosted    = "HX-Boosted"
	HXCurrentURL = "HX-Current-URL"
	HXRedirect   = "HX-Redirect"
	HXRefresh    = "HX-Refresh"
)

const (
	dataStarAccept     = "text/event-stream"
	dataStarQueryParam = "datastar"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HXRequest) == "true"
}

// IsDataStar reports whether the request was issued by a DataStar action.
func IsDataStar(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), dataStarAccept) {
		return true
	}
	if r.URL.Query().Has(dataStarQueryParam) {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/x-datastar")
}
