// Package session provides opaque session tokens, the session cookie wire
// format, and an optional Redis-backed Session→UserID store.
//
// # Tokens
//
// A [Session] carries 122 random bits rendered as canonical UUID text. The
// zero value means "no session".
//
// # Cookies
//
// [CookieManager] serializes a token into a Secure, SameSite=Lax cookie (name
// "session", Max-Age 180 days by default), issues the matching deletion cookie,
// and extracts the token from an inbound request.
//
// # Architecture boundaries
//
// The [Store] is a convenience for callers; the authentication engine never
// talks to Redis itself and only sees the callbacks the caller builds on top of
// a store. The store applies no server-side expiry unless a TTL is passed.
//
// # What this package must NOT do
//
//   - Import sessionauth or middleware (no upward imports).
//   - Make authentication decisions.
//   - Log token text.
package session
