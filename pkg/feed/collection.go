// Package feed implements the paginated collection shared by every note
// feed: an ordered, duplicate-free sequence with an opaque cursor, a
// has-more flag, an in-flight guard and an epoch counter.
//
// The epoch counter is how late responses for an abandoned key are kept
// out: Begin captures the current epoch, Reset bumps it, and ApplyBatch and
// Fail silently discard results whose epoch no longer matches.
package feed

import "sync"

// Collection is a paginated sequence of items deduplicated by a
// caller-supplied identity function. All methods are safe for concurrent
// use.
type Collection[T any] struct {
	mu   sync.Mutex
	id   func(T) string
	seen map[string]struct{}

	items    []T
	cursor   string
	hasMore  bool
	fetching bool
	err      string
	epoch    uint64
}

// New creates an empty collection. id extracts the identity used for
// deduplication.
func New[T any](id func(T) string) *Collection[T] {
	return &Collection[T]{
		id:      id,
		seen:    make(map[string]struct{}),
		hasMore: true,
	}
}

// Begin marks the collection as fetching and returns the epoch the caller
// must hand back to ApplyBatch or Fail. It returns ok=false when a fetch is
// already in flight, or when appendOnly is set and the collection is
// exhausted.
func (c *Collection[T]) Begin(appendOnly bool) (epoch uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetching {
		return 0, false
	}
	if appendOnly && !c.hasMore {
		return 0, false
	}
	c.fetching = true
	return c.epoch, true
}

// ApplyBatch merges a fetched batch. Items whose identity is already
// present are dropped, so a server-side overlap at a cursor boundary cannot
// introduce duplicates. Cursor and hasMore are stored verbatim; the client
// never infers exhaustion from batch size. A stale epoch is discarded and
// ApplyBatch reports false.
func (c *Collection[T]) ApplyBatch(epoch uint64, items []T, cursor string, hasMore bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return false
	}
	c.fetching = false
	for _, it := range items {
		id := c.id(it)
		if _, dup := c.seen[id]; dup {
			continue
		}
		c.seen[id] = struct{}{}
		c.items = append(c.items, it)
	}
	c.cursor = cursor
	c.hasMore = hasMore
	c.err = ""
	return true
}

// Fail records a fetch failure: the error becomes collection state and
// hasMore drops to false so pagination stops until the next Reset. Stale
// epochs are ignored.
func (c *Collection[T]) Fail(epoch uint64, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	c.fetching = false
	c.err = msg
	c.hasMore = false
}

// Reset atomically clears items, cursor, has-more and error state and bumps
// the epoch, invalidating any response still in flight.
func (c *Collection[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.items = nil
	c.seen = make(map[string]struct{})
	c.cursor = ""
	c.hasMore = true
	c.fetching = false
	c.err = ""
}

// Prepend inserts item at the front. When the identity already exists the
// stored copy is replaced in place instead. A positive cap trims the tail
// to at most cap items.
func (c *Collection[T]) Prepend(item T, cap int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.id(item)
	if _, dup := c.seen[id]; dup {
		c.replaceLocked(item)
	} else {
		c.seen[id] = struct{}{}
		c.items = append([]T{item}, c.items...)
	}
	if cap > 0 && len(c.items) > cap {
		for _, trimmed := range c.items[cap:] {
			delete(c.seen, c.id(trimmed))
		}
		c.items = c.items[:cap]
	}
}

// ReplaceByID swaps the stored item with the same identity, reporting
// whether a replacement happened.
func (c *Collection[T]) ReplaceByID(item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replaceLocked(item)
}

func (c *Collection[T]) replaceLocked(item T) bool {
	id := c.id(item)
	for i := range c.items {
		if c.id(c.items[i]) == id {
			c.items[i] = item
			return true
		}
	}
	return false
}

// RemoveByID deletes the item with the given identity, reporting whether it
// was present.
func (c *Collection[T]) RemoveByID(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[id]; !ok {
		return false
	}
	delete(c.seen, id)
	for i := range c.items {
		if c.id(c.items[i]) == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether an item with the given identity is present.
func (c *Collection[T]) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[id]
	return ok
}

// Find returns the stored item with the given identity.
func (c *Collection[T]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if _, ok := c.seen[id]; !ok {
		return zero, false
	}
	for i := range c.items {
		if c.id(c.items[i]) == id {
			return c.items[i], true
		}
	}
	return zero, false
}

// Items returns a copy of the sequence in fetch order.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Cursor returns the opaque next-page cursor as the server last sent it.
func (c *Collection[T]) Cursor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

func (c *Collection[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

func (c *Collection[T]) Fetching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetching
}

// Err returns the recorded fetch error, empty when the last fetch
// succeeded. An empty collection with an empty Err is confirmed empty, not
// failed.
func (c *Collection[T]) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
