// Package views holds the page components. They are plain templ components
// built with templ.ComponentFunc; every dynamic value goes through
// templ.EscapeString.
package views
