package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultCTL = 8
	DefaultTTL = time.Hour
)

type options struct {
	ctl int
	ttl time.Duration
}

// Option configures a [Memo].
type Option func(*options)

// WithCTL sets how many calls an entry answers before it is refetched.
// Values <= 0 disable the call-count bound.
func WithCTL(n int) Option {
	return func(o *options) { o.ctl = n }
}

// WithTTL sets the maximum age of an entry. Values <= 0 disable expiry by age.
func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

type entry[V any] struct {
	value  V
	hits   int
	stored time.Time
}

// Memo is a mutex guarded, instance owned result cache.
type Memo[K comparable, V any] struct {
	mu      sync.Mutex
	ctl     int
	ttl     time.Duration
	entries map[K]*entry[V]
}

// New creates a [Memo] with ctl=8 and ttl=1h unless overridden.
func New[K comparable, V any](opts ...Option) *Memo[K, V] {
	o := options{ctl: DefaultCTL, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return &Memo[K, V]{ctl: o.ctl, ttl: o.ttl, entries: make(map[K]*entry[V])}
}

// valid reports whether e may answer one more call at now.
func (m *Memo[K, V]) valid(e *entry[V], now time.Time) bool {
	if m.ctl > 0 && e.hits >= m.ctl {
		return false
	}
	if m.ttl > 0 && now.Sub(e.stored) > m.ttl {
		return false
	}
	return true
}

// Do returns the cached value for key or runs fetch and stores its result.
//
// The lock is not held while fetch runs, so concurrent misses on the same key
// may each call fetch; the last result stored wins.
func (m *Memo[K, V]) Do(key K, fetch func() (V, error)) (V, error) {
	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		if m.valid(e, time.Now()) {
			e.hits++
			v := e.value
			m.mu.Unlock()
			return v, nil
		}
		delete(m.entries, key)
	}
	m.mu.Unlock()

	v, err := fetch()
	if err != nil {
		return v, err
	}

	m.mu.Lock()
	m.entries[key] = &entry[V]{value: v, hits: 1, stored: time.Now()}
	m.mu.Unlock()
	return v, nil
}

// Forget drops the entry for key.
func (m *Memo[K, V]) Forget(key K) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Purge drops every entry.
func (m *Memo[K, V]) Purge() {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Signature encodes an operation name and its arguments as a cache key.
//
// Arguments that JSON cannot represent (functions, channels, cyclic values)
// yield an error.
func Signature(op string, args ...any) (string, error) {
	if args == nil {
		args = []any{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("cache signature for %s: %w", op, err)
	}
	return op + string(b), nil
}

// Call memoizes fetch under [Signature](op, args...). When no signature can be
// built the fetch runs uncached.
func Call[V any](m *Memo[string, V], op string, fetch func() (V, error), args ...any) (V, error) {
	key, err := Signature(op, args...)
	if err != nil {
		return fetch()
	}
	return m.Do(key, fetch)
}
