package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a token has no mapping in the store.
var ErrNotFound = errors.New("session not found")

// ErrExists is returned by Create when the token is already mapped.
var ErrExists = errors.New("session already exists")

// ErrRedisUnavailable wraps transport failures from the Redis client.
var ErrRedisUnavailable = errors.New("redis unavailable")

const createSessionScript = `
local ok
if tonumber(ARGV[3]) > 0 then
  ok = redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[3])
else
  ok = redis.call("SET", KEYS[1], ARGV[1], "NX")
end
if not ok then
  return 0
end
redis.call("SADD", KEYS[2], ARGV[2])
return 1
`

var createSessionLua = redis.NewScript(createSessionScript)

const removeSessionScript = `
local user_id = redis.call("GET", KEYS[1])
if not user_id then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[1] .. user_id, ARGV[2])
return 1
`

var removeSessionLua = redis.NewScript(removeSessionScript)

const removeUserScript = `
local tokens = redis.call("SMEMBERS", KEYS[1])
local removed = 0
for _, token in ipairs(tokens) do
  removed = removed + redis.call("DEL", ARGV[1] .. token)
end
redis.call("DEL", KEYS[1])
return removed
`

var removeUserLua = redis.NewScript(removeUserScript)

// Store maps session tokens to user IDs in Redis and keeps a per-user index
// so every session of a principal can be removed at once. A principal may
// hold any number of sessions.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store using prefix as the key namespace.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "sa"
	}
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) sessionPrefix() string {
	return s.prefix + ":s:"
}

func (s *Store) userPrefix() string {
	return s.prefix + ":u:"
}

func (s *Store) key(sess Session) string {
	return s.sessionPrefix() + sess.String()
}

func (s *Store) userKey(userID string) string {
	return s.userPrefix() + userID
}

// Create maps sess to userID. A ttl <= 0 stores the mapping without expiry;
// the engine itself never expires sessions.
//
//	Performance: 1 Redis script call.
func (s *Store) Create(ctx context.Context, sess Session, userID string, ttl time.Duration) error {
	if sess.IsZero() || userID == "" {
		return errors.New("session and user id are required")
	}

	created, err := createSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(sess), s.userKey(userID)},
		userID,
		sess.String(),
		ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if created == 0 {
		return ErrExists
	}
	return nil
}

// Lookup returns the user ID mapped to sess.
//
//	Performance: 1 Redis GET.
func (s *Store) Lookup(ctx context.Context, sess Session) (string, error) {
	if sess.IsZero() {
		return "", ErrNotFound
	}

	userID, err := s.redis.Get(ctx, s.key(sess)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return userID, nil
}

// Remove deletes the mapping for sess. Removing an unknown token is not an
// error.
func (s *Store) Remove(ctx context.Context, sess Session) error {
	if sess.IsZero() {
		return nil
	}

	err := removeSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(sess)},
		s.userPrefix(),
		sess.String(),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RemoveUser deletes every session of userID and returns how many live
// mappings were removed.
func (s *Store) RemoveUser(ctx context.Context, userID string) (int, error) {
	removed, err := removeUserLua.Run(
		ctx,
		s.redis,
		[]string{s.userKey(userID)},
		s.sessionPrefix(),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return removed, nil
}

// Sessions lists the live sessions of userID. Index entries whose mapping has
// expired are pruned on the way.
func (s *Store) Sessions(ctx context.Context, userID string) ([]Session, error) {
	userKey := s.userKey(userID)

	tokens, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	pipe := s.redis.Pipeline()
	checks := make([]*redis.IntCmd, len(tokens))
	for i, token := range tokens {
		checks[i] = pipe.Exists(ctx, s.sessionPrefix()+token)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	live := make([]Session, 0, len(tokens))
	stale := make([]any, 0)
	for i, token := range tokens {
		if checks[i].Val() == 1 {
			live = append(live, FromString(token))
			continue
		}
		stale = append(stale, token)
	}

	if len(stale) > 0 {
		if err := s.redis.SRem(ctx, userKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return live, nil
}

// Ping measures a Redis round-trip.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
