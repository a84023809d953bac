package plugin

import (
	"fmt"
)

// Catalog is the read-only set of available plugin types, supplied to the
// hub at construction time. Entries keep registration order.
type Catalog struct {
	entries []Descriptor
	index   map[string]int // "<category>/<type>" → entries index
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Register adds a descriptor. Duplicate category/type pairs are an error.
func (c *Catalog) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	key := fmt.Sprintf("%s/%s", d.Category, d.Type)
	if _, exists := c.index[key]; exists {
		return fmt.Errorf("plugin %q is already registered", key)
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, d)
	return nil
}

// MustRegister is Register that panics; used by in-tree catalog builders.
func (c *Catalog) MustRegister(d Descriptor) {
	if err := c.Register(d); err != nil {
		panic(err)
	}
}

// Entries returns the descriptors in registration order.
func (c *Catalog) Entries() []Descriptor {
	out := make([]Descriptor, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup finds a descriptor by category and type.
func (c *Catalog) Lookup(category Category, pluginType string) (Descriptor, bool) {
	i, ok := c.index[fmt.Sprintf("%s/%s", category, pluginType)]
	if !ok {
		return Descriptor{}, false
	}
	return c.entries[i], true
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.entries) }
