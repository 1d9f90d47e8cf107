package statestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrMiss is returned by Get when a key is unknown and the store has no loader
var ErrMiss = errors.New("no entry for key")

// LoadFunc fetches the durable value for a key on a cache miss
type LoadFunc[T any] func(ctx context.Context, key string) (T, error)

// Entry holds one entity's in-memory state behind its own mutex.
// Value must only be read or written between Lock and Unlock.
type Entry[T any] struct {
	mu    sync.Mutex
	Value T
}

func (e *Entry[T]) Lock()   { e.mu.Lock() }
func (e *Entry[T]) Unlock() { e.mu.Unlock() }

// Store is a keyed map of entries with per-key locking.
// The store mutex only guards the map; entity work happens under the entry mutex,
// so different keys never contend with each other.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]*Entry[T]
	load    LoadFunc[T]
}

// New creates a store that falls back to load for unknown keys. load may be nil.
func New[T any](load LoadFunc[T]) *Store[T] {
	return &Store[T]{
		entries: make(map[string]*Entry[T]),
		load:    load,
	}
}

// Get returns the entry for key, loading it on a miss.
// Loading runs without holding any lock; if two goroutines load concurrently the first insert wins.
func (s *Store[T]) Get(ctx context.Context, key string) (*Entry[T], error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}
	if s.load == nil {
		return nil, fmt.Errorf("statestore: key %s: %w", key, ErrMiss)
	}

	v, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	e, _ = s.Put(key, v)
	return e, nil
}

// Put inserts v under key unless an entry already exists.
// It returns the entry now stored and whether v was inserted.
func (s *Store[T]) Put(key string, v T) (*Entry[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e, false
	}
	e := &Entry[T]{Value: v}
	s.entries[key] = e
	return e, true
}

// Peek returns the cached entry for key without loading it
func (s *Store[T]) Peek(key string) (*Entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// Evict drops key from the cache if it still maps to e.
// Holders of e keep a valid entry; the next Get loads a fresh one,
// so only evict entries whose state is fully stored and no longer changes.
func (s *Store[T]) Evict(key string, e *Entry[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entries[key]; !ok || cur != e {
		return false
	}
	delete(s.entries, key)
	return true
}

// Keys returns the cached keys in sorted order
func (s *Store[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of cached entries
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
