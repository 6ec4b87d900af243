package transform

import (
	"sync"

	"github.com/dshills/spanstorm/internal/engine/span"
)

// AdjustedFunc is notified with the new contents after a batch moved
// at least one range.
type AdjustedFunc[T any] func(next []T)

// Collection is a tracked range collection owned by the caller.
// All methods are safe for concurrent use; hooks run on the goroutine
// that applied the batch, after the lock is released.
type Collection[T span.Ranged[T]] struct {
	mu    sync.RWMutex
	items []T
	hooks []AdjustedFunc[T]
}

// NewCollection creates a collection holding a copy of items.
func NewCollection[T span.Ranged[T]](items []T) *Collection[T] {
	return &Collection[T]{items: append([]T(nil), items...)}
}

// Get returns a copy of the current items.
func (c *Collection[T]) Get() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Set replaces the items without notifying hooks.
func (c *Collection[T]) Set(next []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]T(nil), next...)
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// OnAdjusted registers a hook fired once per batch that changed the items.
func (c *Collection[T]) OnAdjusted(fn AdjustedFunc[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Apply runs a batch through t and stores the result. It reports
// whether anything changed.
func (c *Collection[T]) Apply(t Transformer, ops []Operation) bool {
	return c.ApplyEdits(t.Resolver.Edits(ops), t.Policy)
}

// ApplyEdits applies already-resolved edits and stores the result.
func (c *Collection[T]) ApplyEdits(edits []Edit, policy InsertPolicy) bool {
	return c.Update(func(items []T) []T {
		return ApplyEdits(items, edits, policy)
	})
}

// Update replaces the items with fn's result. Hooks fire only when the
// bounds changed. fn receives the live slice and must not modify it.
func (c *Collection[T]) Update(fn func(items []T) []T) bool {
	c.mu.Lock()
	next := fn(c.items)
	if span.SameBounds(c.items, next) {
		c.mu.Unlock()
		return false
	}
	c.items = next
	hooks := append([]AdjustedFunc[T](nil), c.hooks...)
	snapshot := append([]T(nil), next...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(snapshot)
	}
	return true
}
