// Package registry is the widget catalog a host consults to list the
// widgets it can embed. Widgets are added by an explicit Register call from
// the hosting layer; nothing registers itself at import time.
package registry

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidEntry is returned for entries without a type or name.
var ErrInvalidEntry = errors.New("catalog entry needs a type and a name")

// Entry describes one widget type.
type Entry struct {
	Type        string
	Name        string
	Description string
}

// Catalog holds registered widget types in registration order.
type Catalog struct {
	mu      sync.RWMutex
	entries []Entry
	byType  map[string]int
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{byType: make(map[string]int)}
}

// Register adds e. Registering the same type twice is an error.
func (c *Catalog) Register(e Entry) error {
	if e.Type == "" || e.Name == "" {
		return ErrInvalidEntry
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byType[e.Type]; ok {
		return fmt.Errorf("widget type %q already registered", e.Type)
	}
	c.byType[e.Type] = len(c.entries)
	c.entries = append(c.entries, e)
	return nil
}

// Lookup returns the entry registered for typ.
func (c *Catalog) Lookup(typ string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byType[typ]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Entries returns a copy of all entries.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.entries...)
}
