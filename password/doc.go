// Package password implements the one-way, salted, adaptively-costed password
// hashing capability consumed by the authentication engine.
//
// # Algorithms
//
//   - [Bcrypt] (default): bcrypt with a fixed work factor, 12 unless configured.
//   - [Argon2]: Argon2id encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Both satisfy [Hasher]. Hash is non-deterministic (fresh salt per call) and
// Validate never fails loudly: malformed or mismatched input simply yields false.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords: callers supply plaintext and receive hashes.
//   - Import any other sessionauth package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
