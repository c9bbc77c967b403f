package rdx

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores serialized documents for read-through lookups. A miss and a
// cache failure look the same to callers: both mean "go to the database".
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Redis is a Cache backed by a go-redis client.
type Redis struct {
	Conn *redis.Client
	// OnError, when set, is told about failed cache calls.
	OnError func(op, key string, err error)
}

func NewRedis(addr, password string, db int) *Redis {
	return &Redis{Conn: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.Conn.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.report("get", key, err)
		}
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.Conn.Set(ctx, key, value, ttl).Err(); err != nil {
		r.report("set", key, err)
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.Conn.Del(ctx, key).Err(); err != nil {
		r.report("del", key, err)
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.Conn.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.Conn.Close()
}

func (r *Redis) report(op, key string, err error) {
	if r.OnError != nil {
		r.OnError(op, key, err)
	}
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (Noop) Set(context.Context, string, []byte, time.Duration) {}

func (Noop) Delete(context.Context, string) {}

// Memory is an in-process Cache. Entries expire lazily on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	m.entries[key] = e
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}
