// Package session keeps per-user widget instances in memory with an idle timeout.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Entry wraps one widget instance. Do serializes actions on it.
type Entry[T any] struct {
	ID    string
	mu    sync.Mutex
	value T
}

// Do runs fn with exclusive access to the instance.
func (e *Entry[T]) Do(fn func(T) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.value)
}

// Registry maps session ids to widget instances. Entries expire after ttl without access.
type Registry[T any] struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewRegistry creates a registry; onEvict, if non-nil, runs when an entry expires or is deleted.
func NewRegistry[T any](ttl time.Duration, onEvict func(id string, value T)) *Registry[T] {
	c := cache.New(ttl, ttl/2+time.Second)
	if onEvict != nil {
		c.OnEvicted(func(id string, v any) {
			if e, ok := v.(*Entry[T]); ok {
				onEvict(id, e.value)
			}
		})
	}
	return &Registry[T]{cache: c, ttl: ttl}
}

// Add stores value under a new random id.
func (r *Registry[T]) Add(value T) *Entry[T] {
	return r.Put(uuid.New().String(), value)
}

// Put stores value under id, replacing any previous entry.
func (r *Registry[T]) Put(id string, value T) *Entry[T] {
	e := &Entry[T]{ID: id, value: value}
	r.cache.Set(id, e, r.ttl)
	return e
}

// Get returns the entry for id and extends its lifetime.
func (r *Registry[T]) Get(id string) (*Entry[T], bool) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	e := v.(*Entry[T])
	// Replace fails if a Delete landed after the read, so a closed entry stays closed.
	if err := r.cache.Replace(id, e, r.ttl); err != nil {
		return nil, false
	}
	return e, true
}

// Delete removes id.
func (r *Registry[T]) Delete(id string) {
	r.cache.Delete(id)
}

// Len returns the number of live entries.
func (r *Registry[T]) Len() int {
	return r.cache.ItemCount()
}
