package marketplace

import (
	"errors"
	"strings"
	"sync"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
)

var ErrNotFound = errors.New("material not found")

// Filter narrows a catalog listing. Zero values match everything.
type Filter struct {
	Query    string
	Category material.Category
}

// Matches reports whether item passes the filter. The query is a
// case-insensitive substring of the name or description; the category
// must match exactly unless it is empty or "All".
func (f Filter) Matches(item material.Item) bool {
	if f.Category != "" && f.Category != material.CategoryAll && item.Category != f.Category {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(item.Name), q) ||
		strings.Contains(strings.ToLower(item.Description), q)
}

// Catalog is the in-memory collection of available materials, newest first.
type Catalog struct {
	mu      sync.RWMutex
	items   []material.Item
	claimed []material.Item
}

// NewCatalog creates a catalog holding items in the given order.
func NewCatalog(items []material.Item) *Catalog {
	return &Catalog{items: append([]material.Item(nil), items...)}
}

// NewSeededCatalog creates a catalog with the demo materials.
func NewSeededCatalog() *Catalog {
	return NewCatalog(SeedItems())
}

// List returns a copy of the items matching f.
func (c *Catalog) List(f Filter) []material.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]material.Item, 0, len(c.items))
	for _, item := range c.items {
		if f.Matches(item) {
			result = append(result, item)
		}
	}
	return result
}

func (c *Catalog) Get(id string) (material.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range c.items {
		if item.ID == id {
			return item, nil
		}
	}
	return material.Item{}, ErrNotFound
}

// Add prepends item so it is listed first.
func (c *Catalog) Add(item material.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append([]material.Item{item}, c.items...)
}

// Claim removes the item from the catalog and returns it.
func (c *Catalog) Claim(id string) (material.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			c.claimed = append(c.claimed, item)
			return item, nil
		}
	}
	return material.Item{}, ErrNotFound
}

// Len returns the number of available items.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
