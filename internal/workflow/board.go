package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrItemNotFound  = errors.New("item not found on board")
	ErrUnknownColumn = errors.New("unknown board column")
)

// CommitFunc performs the remote write for a move and returns the item as the server now sees it.
type CommitFunc[T any] func(ctx context.Context, item T) (T, error)

// Board holds items grouped into ordered lanes, e.g. pipeline columns or ticket columns.
// Every item lives in exactly one lane.
type Board[K comparable, T any] struct {
	mu    sync.RWMutex
	order []K
	lanes map[K][]T
	idOf  func(T) string
}

// NewBoard creates an empty board with the given lanes.
func NewBoard[K comparable, T any](order []K, idOf func(T) string) *Board[K, T] {
	b := &Board[K, T]{
		order: append([]K(nil), order...),
		lanes: make(map[K][]T, len(order)),
		idOf:  idOf,
	}
	for _, k := range order {
		b.lanes[k] = nil
	}
	return b
}

// Place replaces the board contents, putting each item into the lane returned by locate.
func (b *Board[K, T]) Place(items []T, locate func(T) K) error {
	lanes := make(map[K][]T, len(b.order))
	for _, k := range b.order {
		lanes[k] = nil
	}
	for _, item := range items {
		k := locate(item)
		if _, ok := lanes[k]; !ok {
			return fmt.Errorf("%w: %v (item %s)", ErrUnknownColumn, k, b.idOf(item))
		}
		lanes[k] = append(lanes[k], item)
	}

	b.mu.Lock()
	b.lanes = lanes
	b.mu.Unlock()
	return nil
}

// Columns returns the lane keys in display order.
func (b *Board[K, T]) Columns() []K {
	return append([]K(nil), b.order...)
}

// Lane returns a copy of one lane's items.
func (b *Board[K, T]) Lane(k K) []T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]T(nil), b.lanes[k]...)
}

// Len returns the number of items across all lanes.
func (b *Board[K, T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, items := range b.lanes {
		n += len(items)
	}
	return n
}

// Locate returns the lane currently holding the item.
func (b *Board[K, T]) Locate(id string) (K, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	k, _, ok := b.find(id)
	return k, ok
}

func (b *Board[K, T]) find(id string) (K, int, bool) {
	for _, k := range b.order {
		for i, item := range b.lanes[k] {
			if b.idOf(item) == id {
				return k, i, true
			}
		}
	}
	var zero K
	return zero, -1, false
}

// Move asks commit to persist the move and, only once it succeeds, takes the item out of its
// current lane and appends the returned item to target. A failed commit leaves the board untouched.
// Moving an item into the lane it already occupies is a no-op and does not call commit.
func (b *Board[K, T]) Move(ctx context.Context, id string, target K, commit CommitFunc[T]) (T, error) {
	var zero T

	b.mu.RLock()
	_, known := b.lanes[target]
	src, idx, found := b.find(id)
	var item T
	if found {
		item = b.lanes[src][idx]
	}
	b.mu.RUnlock()

	if !known {
		return zero, fmt.Errorf("%w: %v", ErrUnknownColumn, target)
	}
	if !found {
		return zero, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if src == target {
		return item, nil
	}

	updated, err := commit(ctx, item)
	if err != nil {
		return zero, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// The board may have been reloaded while the commit was in flight.
	if cur, i, ok := b.find(id); ok {
		lane := b.lanes[cur]
		b.lanes[cur] = append(lane[:i:i], lane[i+1:]...)
	}
	b.lanes[target] = append(b.lanes[target], updated)
	return updated, nil
}
