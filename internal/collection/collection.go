// Package collection keeps a local copy of a remote resource list for one screen or command.
package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrItemNotFound = errors.New("item not found in collection")

// Collection mirrors one remote list. Local state changes only after the remote call succeeds.
type Collection[T any] struct {
	fetch      func(ctx context.Context) ([]T, error)
	idOf       func(T) string
	searchable func(T) []string

	mu      sync.RWMutex
	items   []T
	loading bool
	err     error
}

// New builds an empty collection. searchable may be nil, in which case Filter only matches the empty query.
func New[T any](fetch func(ctx context.Context) ([]T, error), idOf func(T) string, searchable func(T) []string) *Collection[T] {
	return &Collection[T]{fetch: fetch, idOf: idOf, searchable: searchable}
}

// Load replaces the local copy with the remote list. On failure the previous items are kept.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.err = err
	if err != nil {
		return err
	}
	c.items = append([]T(nil), items...)
	return nil
}

func (c *Collection[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the error of the most recent remote call, or nil if it succeeded.
func (c *Collection[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Filter returns the items where any searchable field contains q, ignoring case.
// An empty or blank query returns every item.
func (c *Collection[T]) Filter(q string) []T {
	q = strings.ToLower(strings.TrimSpace(q))

	c.mu.RLock()
	defer c.mu.RUnlock()
	if q == "" {
		return append([]T(nil), c.items...)
	}
	var out []T
	for _, item := range c.items {
		if c.matches(item, q) {
			out = append(out, item)
		}
	}
	return out
}

func (c *Collection[T]) matches(item T, q string) bool {
	if c.searchable == nil {
		return false
	}
	for _, field := range c.searchable(item) {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Create runs the remote create and appends what the server returned.
func (c *Collection[T]) Create(ctx context.Context, create func(ctx context.Context) (T, error)) (T, error) {
	created, err := create(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	if err != nil {
		var zero T
		return zero, err
	}
	c.items = append(c.items, created)
	return created, nil
}

// Update runs the remote update for the item with id and swaps in the returned item.
func (c *Collection[T]) Update(ctx context.Context, id string, update func(ctx context.Context, current T) (T, error)) (T, error) {
	var zero T
	current, ok := c.get(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	updated, err := update(ctx, current)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	if err != nil {
		return zero, err
	}
	if i := c.indexOf(id); i >= 0 {
		c.items[i] = updated
	}
	return updated, nil
}

// Remove runs the remote delete for the item with id and drops it locally.
func (c *Collection[T]) Remove(ctx context.Context, id string, remove func(ctx context.Context, current T) error) error {
	current, ok := c.get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	err := remove(ctx, current)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	if err != nil {
		return err
	}
	if i := c.indexOf(id); i >= 0 {
		c.items = append(c.items[:i:i], c.items[i+1:]...)
	}
	return nil
}

func (c *Collection[T]) get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// indexOf expects c.mu to be held.
func (c *Collection[T]) indexOf(id string) int {
	for i, item := range c.items {
		if c.idOf(item) == id {
			return i
		}
	}
	return -1
}
