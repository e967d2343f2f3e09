// Package apiclient is the single HTTP client for the GrowWise REST API.
//
// Every request passes through one transport that
//
//   - sets "Authorization: Bearer <token>" from a TokenSource, except on the
//     credential exchange and registration endpoints;
//   - hands every 401 from any other endpoint to an UnauthorizedHandler,
//     exactly once per response, before the caller sees the error.
//
// Non-2xx responses become *Error values whose Detail is decoded from the
// API's "detail" field (a string, or a list of validation items with "msg").
package apiclient
