// Package dashboard serves the role dashboards behind the route guard.
// Each page loads its independent slices concurrently; a failed slice is
// rendered as an inline error and does not fail the page.
package dashboard
