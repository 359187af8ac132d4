// Package middleware gates HTTP handlers on a session cookie resolved through
// sessionauth.Engine.SessionLogin.
//
// # Guards
//
//   - [SessionAuth]: generic guard; the rejection policy comes from options.
//   - [Deny]: rejects with 401.
//   - [Redirect]: rejects with 303 and a Location header.
//
// A request to an exempt path (exact match on r.URL.Path) passes through
// untouched. Any other request needs a session cookie that the lookup
// resolves; a missing cookie and an unknown session get the same rejection.
// Accepted requests carry the user and session on their context and the
// response carries a reissued cookie for the same token.
//
// # What this package must NOT do
//
//   - Create or rotate session tokens.
//   - Expose lookup errors in responses.
//   - Look a session up more than once per request.
package middleware
