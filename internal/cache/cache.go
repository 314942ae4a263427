// Package cache wraps ristretto with scope-level invalidation. Every key
// belongs to a scope (a group id) and a write to the scope drops all of its keys.
package cache

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Store caches values of type V.
type Store[V any] struct {
	c   *ristretto.Cache[string, V]
	ttl time.Duration

	mu          sync.Mutex
	keys        map[string]map[string]struct{}
	generations map[string]uint64
}

// New creates a Store whose entries expire after ttl.
func New[V any](ttl time.Duration) (*Store[V], error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
		// Cost counts entries, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Store[V]{
		c:           c,
		ttl:         ttl,
		keys:        make(map[string]map[string]struct{}),
		generations: make(map[string]uint64),
	}, nil
}

func cacheKey(scope, key string) string {
	return scope + "\x00" + key
}

// Get returns the cached value for key in scope.
func (s *Store[V]) Get(scope, key string) (V, bool) {
	return s.c.Get(cacheKey(scope, key))
}

// Generation returns the scope's invalidation counter. Read it before
// loading a value and pass it to Set.
func (s *Store[V]) Generation(scope string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[scope]
}

// Set stores v unless the scope was invalidated after gen was read, so a
// value loaded before a write is never cached after it.
func (s *Store[V]) Set(scope, key string, v V, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[scope] != gen {
		return
	}
	k := cacheKey(scope, key)
	if s.keys[scope] == nil {
		s.keys[scope] = make(map[string]struct{})
	}
	s.keys[scope][k] = struct{}{}
	s.c.SetWithTTL(k, v, 1, s.ttl)
}

// Invalidate drops every key in scope.
func (s *Store[V]) Invalidate(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[scope]++
	for k := range s.keys[scope] {
		s.c.Del(k)
	}
	delete(s.keys, scope)
}

// Wait blocks until buffered writes are applied.
func (s *Store[V]) Wait() {
	s.c.Wait()
}

// Close stops the cache's background goroutines.
func (s *Store[V]) Close() {
	s.c.Close()
}
