package monitor

import (
	"sync"
	"time"
)

// queue is a first-write-wins map from address to entry, guarded by its
// own mutex. It is the primitive behind both the metadata queue and the
// source queue (spec §4.6). Each entry carries its own timestamp, read
// through stampOf and set by the caller before the first insertion;
// re-adding an existing key is a no-op, so the original timestamp is
// kept and a contract currently in flight is never re-queued.
type queue[T any] struct {
	mu      sync.Mutex
	entries map[string]T
	stampOf func(T) time.Time
}

func newQueue[T any](stampOf func(T) time.Time) *queue[T] {
	return &queue[T]{
		entries: make(map[string]T),
		stampOf: stampOf,
	}
}

// add inserts entry under key unless key is already present. Returns
// true if the entry was inserted.
func (q *queue[T]) add(key string, entry T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.entries[key]; exists {
		return false
	}
	q.entries[key] = entry
	return true
}

// remove deletes key unconditionally.
func (q *queue[T]) remove(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.entries, key)
}

// get returns the entry for key, if present.
func (q *queue[T]) get(key string) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.entries[key]
	return v, ok
}

// set overwrites the entry for an existing key, used by fetchers to
// persist in-progress mutations (e.g. a shrinking pending-sources map)
// without disturbing the original timestamp.
func (q *queue[T]) set(key string, entry T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[key] = entry
}

// evict removes every entry older than maxAge, returning the number
// removed.
func (q *queue[T]) evict(maxAge time.Duration) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := nowFunc()
	removed := 0
	for key, entry := range q.entries {
		if now.Sub(q.stampOf(entry)) > maxAge {
			delete(q.entries, key)
			removed++
		}
	}
	return removed
}

// snapshot returns a copy of the current entries, safe to iterate while
// the stage that owns the queue continues to mutate it concurrently via
// the same goroutine's own subsequent add/remove/set calls.
func (q *queue[T]) snapshot() map[string]T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make(map[string]T, len(q.entries))
	for k, v := range q.entries {
		out[k] = v
	}
	return out
}

func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
