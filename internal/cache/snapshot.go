// Package cache provides a time-bounded, all-or-nothing snapshot cache.
package cache

import (
	"sync/atomic"
	"time"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// Entry is an immutable snapshot held by a Snapshot cache.
type Entry[T any] struct {
	Data     T
	StoredAt time.Time
}

// Snapshot holds a single value that is replaced as a whole. Readers see either
// the previous complete value or the new one, never a mix.
type Snapshot[T any] struct {
	ttl     time.Duration
	now     Clock
	current atomic.Pointer[Entry[T]]
}

// NewSnapshot creates an empty snapshot cache whose entries are fresh for ttl.
// A nil clock uses time.Now.
func NewSnapshot[T any](ttl time.Duration, now Clock) *Snapshot[T] {
	if now == nil {
		now = time.Now
	}
	return &Snapshot[T]{ttl: ttl, now: now}
}

// Get returns the stored entry if there is one and it is younger than the TTL.
func (s *Snapshot[T]) Get() (Entry[T], bool) {
	e := s.current.Load()
	if e == nil {
		return Entry[T]{}, false
	}
	if s.now().Sub(e.StoredAt) >= s.ttl {
		return *e, false
	}
	return *e, true
}

// Peek returns the stored entry regardless of age.
func (s *Snapshot[T]) Peek() (Entry[T], bool) {
	e := s.current.Load()
	if e == nil {
		return Entry[T]{}, false
	}
	return *e, true
}

// Set replaces the stored value and stamps it with the current time.
// The caller must not mutate data afterwards.
func (s *Snapshot[T]) Set(data T) Entry[T] {
	e := &Entry[T]{Data: data, StoredAt: s.now()}
	s.current.Store(e)
	return *e
}
