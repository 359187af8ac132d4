// Package sessionauth is a storage-agnostic authentication core: credential
// verification, user registration and session-based request authorization.
//
// The package never touches a database. The Engine is handed one lookup at
// build time and receives every other storage interaction as a per-call
// callback, so the caller owns persistence and its atomicity. Login returns an
// opaque [session.Session]; recording the Session to user mapping belongs to
// the caller (see [Engine.LoginAndCreate] and the Redis-backed session.Store).
//
// # User lifecycle
//
// A registering user is a [UserEntity] that only moves forward:
//
//	Shell (raw credentials, details) -> Hashed (hashed credentials) -> Identified (id)
//
// The persist callback of [Engine.Register] only ever sees a Hashed entity,
// and only an Identified entity carries an id. Reading a field before its
// stage panics with *EntityAccessError; use the Lookup accessors to inspect
// without panicking.
//
// # Errors
//
// Expected failures are returned as *AuthenticationError, *SessionError or
// *RegistrationError, each unwrapping to a sentinel such as ErrUserNotFound.
// Collaborator failures are returned wrapped.
//
// # What this package must NOT do
//
//   - Store raw passwords or hand them to callbacks.
//   - Expire or refresh sessions on its own.
//   - Log passwords or session token text.
package sessionauth
