package kinds

import (
	"encoding/json"
	"fmt"
)

// Keyed is implemented by entities stored in a Collection.
type Keyed interface {
	Key() Id
}

// Collection is an insertion-ordered set of entities addressed by id.
// Iteration order is stable, which keeps stepping deterministic.
type Collection[T Keyed] struct {
	items []T
	index map[Id]int
}

// NewCollection builds a collection from items. A later item replaces an
// earlier one with the same id.
func NewCollection[T Keyed](items ...T) Collection[T] {
	var c Collection[T]
	for _, item := range items {
		c.Add(item)
	}
	return c
}

// Add inserts or replaces an item.
func (c *Collection[T]) Add(item T) {
	if c.index == nil {
		c.index = make(map[Id]int)
	}
	id := item.Key()
	if i, ok := c.index[id]; ok {
		c.items[i] = item
		return
	}
	c.index[id] = len(c.items)
	c.items = append(c.items, item)
}

// Get returns the item with the given id. A missing id is a programming
// error and panics.
func (c *Collection[T]) Get(id Id) T {
	item, ok := c.TryGet(id)
	if !ok {
		panic(fmt.Sprintf("kinds: no %T with id %s", item, id))
	}
	return item
}

// TryGet returns the item with the given id, if present.
func (c *Collection[T]) TryGet(id Id) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// Has reports whether an item with the id exists.
func (c *Collection[T]) Has(id Id) bool {
	_, ok := c.index[id]
	return ok
}

// All returns the items in insertion order. Callers must not append to it.
func (c *Collection[T]) All() []T {
	return c.items
}

func (c *Collection[T]) Len() int {
	return len(c.items)
}

func (c Collection[T]) MarshalJSON() ([]byte, error) {
	if c.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.items)
}

func (c *Collection[T]) UnmarshalJSON(b []byte) error {
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*c = NewCollection(items...)
	return nil
}
