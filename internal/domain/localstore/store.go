package localstore

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Well known collection keys.
const (
	KeyAssessments     = "health_assessments"
	KeyUsers           = "health_app_users"
	KeyRatings         = "health_app_ratings"
	KeyFitnessProgress = "fitness_workout_progress"
	roleKeyPrefix      = "user_role_"
	sessionKeyPrefix   = "session_"
)

var jsonNull = []byte("null")

// KV is the raw key-value contract the persistence backends implement.
// A ttl of zero keeps the value until it is deleted.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RoleKey is the side-channel key holding the role of a user.
func RoleKey(userID string) string {
	return roleKeyPrefix + userID
}

// SessionKey is the key of a live session record.
func SessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// ScopedKey namespaces key under a storage scope such as a user ID.
func ScopedKey(scope, key string) string {
	if scope == "" {
		return key
	}
	return scope + ":" + key
}

// Store couples a KV backend with per-key write serialization.
type Store struct {
	kv     KV
	logger *slog.Logger
	locks  keyLocks
}

// NewStore wraps kv.
func NewStore(kv KV, logger *slog.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger.With("component", "localstore"),
		locks:  keyLocks{locks: make(map[string]*keyLock)},
	}
}

// KV exposes the raw backend.
func (s *Store) KV() KV {
	return s.kv
}

// Collection is a JSON value stored under a single key.
type Collection[T any] struct {
	store *Store
	key   string
	empty func() T
}

// NewCollection binds a collection to key. empty builds the value returned
// when nothing usable is stored.
func NewCollection[T any](store *Store, key string, empty func() T) *Collection[T] {
	return &Collection[T]{store: store, key: key, empty: empty}
}

// Key returns the storage key.
func (c *Collection[T]) Key() string {
	return c.key
}

// Load returns the stored value. Read and decode failures are logged and
// yield the empty value, as does a stored JSON null.
func (c *Collection[T]) Load(ctx context.Context) T {
	raw, found, err := c.store.kv.Get(ctx, c.key)
	if err != nil {
		c.store.logger.Warn("collection read failed, using empty value", "key", c.key, "error", err)
		return c.empty()
	}
	if !found || len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return c.empty()
	}
	value := c.empty()
	if err := json.Unmarshal(raw, &value); err != nil {
		c.store.logger.Warn("collection decode failed, using empty value", "key", c.key, "error", err)
		return c.empty()
	}
	return value
}

// Save replaces the stored value.
func (c *Collection[T]) Save(ctx context.Context, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.kv.Set(ctx, c.key, payload, 0)
}

// Update runs a read-modify-write cycle. Cycles on the same key are
// serialized within the process; fn returning an error aborts the write.
func (c *Collection[T]) Update(ctx context.Context, fn func(T) (T, error)) (T, error) {
	unlock := c.store.locks.lock(c.key)
	defer unlock()

	next, err := fn(c.Load(ctx))
	if err != nil {
		var zero T
		return zero, err
	}
	if err := c.Save(ctx, next); err != nil {
		return next, err
	}
	return next, nil
}

// Clear removes the stored value.
func (c *Collection[T]) Clear(ctx context.Context) error {
	return c.store.kv.Delete(ctx, c.key)
}

type keyLock struct {
	sync.Mutex
	refs int
}

type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
