package catalog

import "strings"

// Availability answers whether an archive base name has a source file.
type Availability interface {
	Has(name string) bool
}

// NameSet is a set based Availability, handy for callers with a plain list.
type NameSet map[string]struct{}

// NewNameSet builds a NameSet from names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has implements Availability.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// RequiredArchives returns the archive base names needed to run game: the
// game itself followed by its parent chain. The walk stops on a blank or
// unknown parent and on a name already visited, so circular catalogs
// terminate.
func RequiredArchives(c *Catalog, game GameDefinition) []string {
	required := make([]string, 0, 4)
	visited := make(map[string]struct{}, 8)

	current := game
	for {
		if _, seen := visited[current.Name]; seen {
			break
		}
		visited[current.Name] = struct{}{}
		required = append(required, current.Name)

		parent := strings.TrimSpace(current.Parent)
		if parent == "" {
			break
		}
		next, ok := c.Lookup(parent)
		if !ok {
			break
		}
		current = next
	}
	return required
}

// Missing filters required down to the names avail does not have.
func Missing(required []string, avail Availability) []string {
	missing := make([]string, 0)
	for _, name := range required {
		if !avail.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Launchable reports whether every required archive of game is available.
func Launchable(c *Catalog, game GameDefinition, avail Availability) bool {
	return len(Missing(RequiredArchives(c, game), avail)) == 0
}
