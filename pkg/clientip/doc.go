// Package clientip resolves the originating client address of a request
// served behind reverse proxies.
//
// Headers are checked in order until one holds a valid address:
//
//  1. CF-Connecting-IP
//  2. X-Forwarded-For (first valid entry)
//  3. X-Real-IP
//  4. RemoteAddr
//
// Only deploy with header trust enabled when a proxy you control
// overwrites these headers; otherwise clients can pick their own address.
// Resolver.Middleware stores the result in the request context for the
// login rate limiter and the request logger.
package clientip
