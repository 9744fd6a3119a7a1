// Package catalog holds the known game definitions and resolves the ROM
// archives a game needs, following parent/clone links.
package catalog

import (
	"strings"
)

// GameDefinition is one entry of the game catalog.
type GameDefinition struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	Parent       string `json:"parent,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Year         string `json:"year,omitempty"`
}

// Title returns DisplayName, or Name when it is empty.
func (g GameDefinition) Title() string {
	if strings.TrimSpace(g.DisplayName) != "" {
		return g.DisplayName
	}
	return g.Name
}

// Catalog is an immutable list of definitions indexed by name.
type Catalog struct {
	games    []GameDefinition
	byName   map[string]GameDefinition
	children map[string][]int
}

// NewCatalog indexes defs. A later definition replaces an earlier one with
// the same name in the index; Games still returns every entry.
func NewCatalog(defs []GameDefinition) *Catalog {
	c := &Catalog{
		games:    make([]GameDefinition, len(defs)),
		byName:   make(map[string]GameDefinition, len(defs)),
		children: make(map[string][]int),
	}
	copy(c.games, defs)
	for i, d := range defs {
		c.byName[d.Name] = d
		if d.Parent != "" && d.Parent != d.Name {
			c.children[d.Parent] = append(c.children[d.Parent], i)
		}
	}
	return c
}

// Games returns a copy of the catalog entries in load order.
func (c *Catalog) Games() []GameDefinition {
	if c == nil {
		return nil
	}
	out := make([]GameDefinition, len(c.games))
	copy(out, c.games)
	return out
}

// Len is the number of loaded entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.games)
}

// Lookup finds a definition by exact name.
func (c *Catalog) Lookup(name string) (GameDefinition, bool) {
	if c == nil {
		return GameDefinition{}, false
	}
	g, ok := c.byName[name]
	return g, ok
}

// Clones lists the games whose parent is name.
func (c *Catalog) Clones(name string) []GameDefinition {
	if c == nil {
		return nil
	}
	var out []GameDefinition
	for _, i := range c.children[name] {
		out = append(out, c.games[i])
	}
	return out
}
