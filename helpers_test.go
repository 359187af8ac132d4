package sessionauth

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/MrEthical07/sessionauth/password"
	"github.com/MrEthical07/sessionauth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

type testDetails struct {
	Name string
}

type testUser = UserEntity[Email, int64, testDetails]

type testEngine = Engine[Email, int64, testDetails, testUser]

// memUsers is a mutex-guarded user table keyed by login key and id.
type memUsers struct {
	mu           sync.Mutex
	nextID       int64
	byKey        map[Email]testUser
	byID         map[int64]testUser
	persistCalls int
	lookupCalls  int
}

func newMemUsers() *memUsers {
	return &memUsers{
		byKey: make(map[Email]testUser),
		byID:  make(map[int64]testUser),
	}
}

func (m *memUsers) lookup(_ context.Context, key Email) (testUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupCalls++
	u, ok := m.byKey[key]
	if !ok {
		return testUser{}, ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) byUserID(id int64) (testUser, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	return u, ok
}

func (m *memUsers) persist(_ context.Context, entity testUser) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistCalls++
	if _, ok := m.byKey[entity.LoginKey()]; ok {
		return 0, ErrUserAlreadyExists
	}
	m.nextID++
	identified, err := entity.AssignID(m.nextID)
	if err != nil {
		return 0, err
	}
	m.byKey[entity.LoginKey()] = identified
	m.byID[m.nextID] = identified
	return m.nextID, nil
}

func (m *memUsers) remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	delete(m.byID, id)
	delete(m.byKey, u.LoginKey())
	return nil
}

// redisSessions adapts session.Store to the engine callbacks.
type redisSessions struct {
	store *session.Store
	users *memUsers
}

func (r *redisSessions) create(ctx context.Context, s session.Session, id int64) error {
	return r.store.Create(ctx, s, strconv.FormatInt(id, 10), 0)
}

func (r *redisSessions) lookup(ctx context.Context, s session.Session) (testUser, error) {
	raw, err := r.store.Lookup(ctx, s)
	if err != nil {
		return testUser{}, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return testUser{}, err
	}
	u, ok := r.users.byUserID(id)
	if !ok {
		return testUser{}, ErrUserNotFound
	}
	return u, nil
}

func (r *redisSessions) removeUser(ctx context.Context, id int64) error {
	_, err := r.store.RemoveUser(ctx, strconv.FormatInt(id, 10))
	return err
}

func newTestHasher(t testing.TB) password.Hasher {
	t.Helper()
	h, err := password.NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	return h
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

type testFixture struct {
	engine   *testEngine
	users    *memUsers
	sessions *redisSessions
}

func newTestFixture(t testing.TB, configure func(*Builder[Email, int64, testDetails, testUser])) *testFixture {
	t.Helper()
	users := newMemUsers()
	_, rdb := newTestRedis(t)

	b := New[Email, int64, testDetails, testUser]().
		WithLookup(users.lookup).
		WithHasher(newTestHasher(t))
	if configure != nil {
		configure(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testFixture{
		engine:   engine,
		users:    users,
		sessions: &redisSessions{store: session.NewStore(rdb, "test"), users: users},
	}
}

func creds(key, pass string) RawCredentials[Email] {
	return RawCredentials[Email]{LoginKey: Email(key), Password: RawPassword(pass)}
}
