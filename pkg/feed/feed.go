// Package feed implements the bounded, newest-first live feeds that back
// every dashboard view.
package feed

import (
	"strings"
	"sync"
)

// Feed is an ordered, capacity-bounded sequence of records, newest first.
// Inserting past capacity evicts the oldest records. A Feed is safe for
// concurrent use.
type Feed[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	idOf     func(T) string
}

// New creates a feed holding at most capacity records. seed is given newest
// first and is truncated to capacity.
func New[T any](capacity int, idOf func(T) string, seed ...T) *Feed[T] {
	if capacity < 1 {
		capacity = 1
	}
	items := make([]T, 0, capacity)
	for i := 0; i < len(seed) && i < capacity; i++ {
		items = append(items, seed[i])
	}
	return &Feed[T]{
		items:    items,
		capacity: capacity,
		idOf:     idOf,
	}
}

// Push prepends rec and drops tail records until the feed fits its capacity.
// The dropped records are returned oldest last.
func (f *Feed[T]) Push(rec T) []T {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make([]T, 0, f.capacity)
	next = append(next, rec)
	next = append(next, f.items...)

	var evicted []T
	if len(next) > f.capacity {
		evicted = append(evicted, next[f.capacity:]...)
		next = next[:f.capacity]
	}
	f.items = next
	return evicted
}

// Snapshot returns a copy of the feed, newest first
func (f *Feed[T]) Snapshot() []T {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}

// Len returns the number of records currently held
func (f *Feed[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// Capacity returns the maximum number of records the feed retains
func (f *Feed[T]) Capacity() int {
	return f.capacity
}

// Get returns the first record with the given id
func (f *Feed[T]) Get(id string) (T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, rec := range f.items {
		if f.idOf(rec) == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// Update applies fn in place to the first record with the given id.
// It reports whether a record was found. fn runs under the feed's write lock
// and must not call back into the feed.
func (f *Feed[T]) Update(id string, fn func(*T)) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		if f.idOf(f.items[i]) == id {
			fn(&f.items[i])
			return true
		}
	}
	return false
}

// Delete removes every record with the given id and reports whether any
// was removed. Deleting an absent id leaves the feed untouched.
func (f *Feed[T]) Delete(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.items[:0:0]
	removed := false
	for _, rec := range f.items {
		if f.idOf(rec) == id {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	if removed {
		f.items = kept
	}
	return removed
}

// Filter returns the records matching pred, preserving feed order.
// The feed itself is never modified.
func (f *Feed[T]) Filter(pred Predicate[T]) []T {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]T, 0, len(f.items))
	for _, rec := range f.items {
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Predicate selects records from a feed
type Predicate[T any] func(T) bool

// All combines predicates with logical AND. Nil predicates are skipped.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(rec T) bool {
		for _, p := range preds {
			if p != nil && !p(rec) {
				return false
			}
		}
		return true
	}
}

// Equals matches records whose field equals want. An empty want or "all"
// matches everything.
func Equals[T any](want string, field func(T) string) Predicate[T] {
	if want == "" || strings.EqualFold(want, "all") {
		return nil
	}
	return func(rec T) bool {
		return field(rec) == want
	}
}

// Contains matches records where at least one field contains term,
// ignoring case. An empty term matches everything.
func Contains[T any](term string, fields ...func(T) string) Predicate[T] {
	if term == "" {
		return nil
	}
	needle := strings.ToLower(term)
	return func(rec T) bool {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(rec)), needle) {
				return true
			}
		}
		return false
	}
}

// ContainsExact is Contains without case folding, used for address fields
func ContainsExact[T any](term string, fields ...func(T) string) Predicate[T] {
	if term == "" {
		return nil
	}
	return func(rec T) bool {
		for _, field := range fields {
			if strings.Contains(field(rec), term) {
				return true
			}
		}
		return false
	}
}

// Any combines predicates with logical OR. Nil predicates are skipped; if
// every predicate is nil the result is nil (match all).
func Any[T any](preds ...Predicate[T]) Predicate[T] {
	var live []Predicate[T]
	for _, p := range preds {
		if p != nil {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return func(rec T) bool {
		for _, p := range live {
			if p(rec) {
				return true
			}
		}
		return false
	}
}

// CountBy tallies records by the value of key
func CountBy[T any, K comparable](items []T, key func(T) K) map[K]int {
	counts := make(map[K]int)
	for _, rec := range items {
		counts[key(rec)]++
	}
	return counts
}
