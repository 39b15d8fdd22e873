// Package catalog holds the static registry of addendum types.
package catalog

import (
	_ "embed"
	"fmt"

	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultTable []byte

// Catalog is an immutable, ordered set of addendum types.
type Catalog struct {
	byType  map[model.AddendumType]int
	entries []model.AddendumTypeInfo
}

type table struct {
	Types []model.AddendumTypeInfo `yaml:"types"`
}

var defaultCatalog = mustLoad(defaultTable)

// Default returns the catalog built into the binary.
func Default() *Catalog {
	return defaultCatalog
}

// Load decodes and validates a catalog table.
func Load(data []byte) (*Catalog, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(t.Types)
}

// New builds a catalog from entries in display order.
func New(entries []model.AddendumTypeInfo) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog has no addendum types")
	}

	c := &Catalog{
		byType:  make(map[model.AddendumType]int, len(entries)),
		entries: make([]model.AddendumTypeInfo, 0, len(entries)),
	}

	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byType[entry.Type]; dup {
			return nil, fmt.Errorf("duplicate addendum type %q", entry.Type)
		}
		c.byType[entry.Type] = len(c.entries)
		c.entries = append(c.entries, entry.Clone())
	}

	return c, nil
}

func mustLoad(data []byte) *Catalog {
	c, err := Load(data)
	if err != nil {
		panic(fmt.Sprintf("built-in addendum catalog is invalid: %v", err))
	}
	return c
}

// ListAll returns every addendum type in declared order.
func (c *Catalog) ListAll() []model.AddendumTypeInfo {
	out := make([]model.AddendumTypeInfo, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Clone()
	}
	return out
}

// ListCommon returns the commonly used addendum types in declared order.
func (c *Catalog) ListCommon() []model.AddendumTypeInfo {
	var out []model.AddendumTypeInfo
	for _, e := range c.entries {
		if e.CommonlyUsed {
			out = append(out, e.Clone())
		}
	}
	return out
}

// GetInfo looks up a type by tag.
func (c *Catalog) GetInfo(t model.AddendumType) (model.AddendumTypeInfo, error) {
	idx, ok := c.byType[t]
	if !ok {
		return model.AddendumTypeInfo{}, fmt.Errorf("%w: addendum type %q", common.ErrNotFound, t)
	}
	return c.entries[idx].Clone(), nil
}

// MustGetInfo looks up a type by tag and panics when it is unknown. Tags come
// from the catalog itself, so a miss is a programming error.
func (c *Catalog) MustGetInfo(t model.AddendumType) model.AddendumTypeInfo {
	info, err := c.GetInfo(t)
	if err != nil {
		panic(err)
	}
	return info
}

// Has reports whether t is in the catalog.
func (c *Catalog) Has(t model.AddendumType) bool {
	_, ok := c.byType[t]
	return ok
}

// Len returns the number of addendum types.
func (c *Catalog) Len() int {
	return len(c.entries)
}
