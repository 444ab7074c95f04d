// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

// Package session holds process-wide caches of expensive per-player state:
// game sessions and conversation agent handles. Entries expire after a
// period of inactivity, checked lazily on access or by an explicit sweep.
package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

// DefaultTTL is the inactivity period after which an entry expires.
const DefaultTTL = 60 * time.Minute

type entry[T any] struct {
	value      T
	created    time.Time
	lastAccess time.Time
}

// Stats summarises a registry. Expired counts entries that are still held
// but would be discarded on their next access.
type Stats struct {
	Name    string        `json:"name"`
	Total   int           `json:"total_cached"`
	Valid   int           `json:"valid_cached"`
	Expired int           `json:"expired_cached"`
	TTL     time.Duration `json:"ttl"`
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithClock injects the time source. Tests use it to step past the TTL.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Registry is a keyed TTL cache safe for concurrent use.
type Registry[T any] struct {
	name string

	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*entry[T]
}

// NewRegistry creates an empty registry. The name labels its metrics.
func NewRegistry[T any](name string, opts ...Option) *Registry[T] {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry[T]{
		name:    name,
		ttl:     o.ttl,
		now:     o.now,
		entries: make(map[string]*entry[T]),
	}
}

// expired must be called with mu held.
func (r *Registry[T]) expired(e *entry[T], now time.Time) bool {
	return now.Sub(e.lastAccess) > r.ttl
}

// GetOrCreate returns the live entry for key, refreshing its access time,
// or builds a new one with factory. A factory error is returned as is and
// nothing is cached. The factory runs under the registry lock and must not
// call back into the registry.
func (r *Registry[T]) GetOrCreate(key string, factory func() (T, error)) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.entries[key]; ok {
		if !r.expired(e, now) {
			e.lastAccess = now
			recordLookup(r.name, lookupHit)
			return e.value, nil
		}
		delete(r.entries, key)
		recordEvictions(r.name, reasonExpired, 1)
	}

	recordLookup(r.name, lookupMiss)
	v, err := factory()
	if err != nil {
		var zero T
		return zero, err
	}
	r.entries[key] = &entry[T]{value: v, created: now, lastAccess: now}
	setSize(r.name, len(r.entries))
	return v, nil
}

// Get returns the live entry for key and refreshes its access time.
// An expired entry is dropped and reported as missing.
func (r *Registry[T]) Get(key string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	e, ok := r.entries[key]
	if !ok {
		recordLookup(r.name, lookupMiss)
		return zero, false
	}
	now := r.now()
	if r.expired(e, now) {
		delete(r.entries, key)
		recordEvictions(r.name, reasonExpired, 1)
		setSize(r.name, len(r.entries))
		recordLookup(r.name, lookupMiss)
		return zero, false
	}
	e.lastAccess = now
	recordLookup(r.name, lookupHit)
	return e.value, true
}

// Put stores value under key, replacing any existing entry.
func (r *Registry[T]) Put(key string, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.entries[key] = &entry[T]{value: value, created: now, lastAccess: now}
	setSize(r.name, len(r.entries))
}

// Touch refreshes the access time of a live entry. It reports false when
// the key is absent or already expired.
func (r *Registry[T]) Touch(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Update applies fn to a live entry in place and refreshes its access time.
func (r *Registry[T]) Update(key string, fn func(T) T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	now := r.now()
	if !ok || r.expired(e, now) {
		return false
	}
	e.value = fn(e.value)
	e.lastAccess = now
	return true
}

// Remove drops key and reports whether it was present.
func (r *Registry[T]) Remove(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[key]; !ok {
		return false
	}
	delete(r.entries, key)
	recordEvictions(r.name, reasonRemoved, 1)
	setSize(r.name, len(r.entries))
	return true
}

// ClearMatching drops every key matching the glob pattern and returns how
// many were removed.
func (r *Registry[T]) ClearMatching(pattern string) (int, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return 0, oops.Code(world.CodeInvalidInput).With("pattern", pattern).Wrapf(err, "invalid key pattern")
	}
	return r.clear(reasonRemoved, g.Match), nil
}

// ClearForPlayer drops every key that names playerID as one of its
// underscore-separated segments.
func (r *Registry[T]) ClearForPlayer(playerID string) int {
	if playerID == "" {
		return 0
	}
	return r.clear(reasonRemoved, func(key string) bool {
		return keyHasSegment(key, playerID)
	})
}

// ClearAll empties the registry and returns how many entries it held.
func (r *Registry[T]) ClearAll() int {
	return r.clear(reasonRemoved, func(string) bool { return true })
}

// CleanupExpired drops every expired entry and returns how many were removed.
func (r *Registry[T]) CleanupExpired() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k, e := range r.entries {
		if r.expired(e, now) {
			delete(r.entries, k)
			n++
		}
	}
	recordEvictions(r.name, reasonExpired, n)
	setSize(r.name, len(r.entries))
	return n
}

func (r *Registry[T]) clear(reason string, match func(string) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k := range r.entries {
		if match(k) {
			delete(r.entries, k)
			n++
		}
	}
	recordEvictions(r.name, reason, n)
	setSize(r.name, len(r.entries))
	return n
}

// SetTTL changes the inactivity period. It applies to existing entries on
// their next check.
func (r *Registry[T]) SetTTL(ttl time.Duration) {
	r.mu.Lock()
	r.ttl = ttl
	r.mu.Unlock()
}

// TTL returns the inactivity period.
func (r *Registry[T]) TTL() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl
}

// Len returns the number of held entries, expired or not.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Keys returns the held keys in sorted order.
func (r *Registry[T]) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stats reports the registry's contents without evicting anything.
func (r *Registry[T]) Stats() Stats {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{Name: r.name, Total: len(r.entries), TTL: r.ttl}
	for _, e := range r.entries {
		if r.expired(e, now) {
			s.Expired++
		} else {
			s.Valid++
		}
	}
	return s
}

// Values returns copies of all live entries keyed by their cache key.
func (r *Registry[T]) Values() map[string]T {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]T, len(r.entries))
	for k, e := range r.entries {
		if !r.expired(e, now) {
			out[k] = e.value
		}
	}
	return out
}

func keyHasSegment(key, segment string) bool {
	if !strings.Contains(key, segment) {
		return false
	}
	for part := range strings.SplitSeq(key, keySeparator) {
		if part == segment {
			return true
		}
	}
	return false
}
