package library

import (
	"sort"
	"strings"

	"github.com/xxxsen/super3/internal/catalog"
	"github.com/xxxsen/super3/internal/i18n"
)

// Item is a catalog game paired with the archives found for it.
type Item struct {
	Game       catalog.GameDefinition `json:"game"`
	Required   []string               `json:"required"`
	Missing    []string               `json:"missing"`
	Clones     []string               `json:"clones,omitempty"`
	Launchable bool                   `json:"launchable"`
	Status     string                 `json:"status"`
}

// BuildItems evaluates every catalog game against idx. Launchable games
// come first, each group sorted by display title.
func BuildItems(c *catalog.Catalog, idx Index, ext string) []Item {
	ext = NormalizeExt(ext)
	games := c.Games()
	items := make([]Item, 0, len(games))
	for _, g := range games {
		required := catalog.RequiredArchives(c, g)
		missing := catalog.Missing(required, idx)
		items = append(items, Item{
			Game:       g,
			Required:   required,
			Missing:    missing,
			Clones:     cloneNames(c, g.Name),
			Launchable: len(missing) == 0 && idx.Has(g.Name),
			Status:     statusText(required, missing, ext),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Launchable != items[j].Launchable {
			return items[i].Launchable
		}
		return items[i].Game.Title() < items[j].Game.Title()
	})
	return items
}

func cloneNames(c *catalog.Catalog, name string) []string {
	clones := c.Clones(name)
	if len(clones) == 0 {
		return nil
	}
	out := make([]string, 0, len(clones))
	for _, g := range clones {
		out = append(out, g.Name)
	}
	return out
}

func statusText(required, missing []string, ext string) string {
	if len(missing) == 0 {
		if len(required) == 1 {
			return i18n.T("StatusFound", map[string]interface{}{"Archives": joinArchives(required, ext)})
		}
		return i18n.T("StatusNeeds", map[string]interface{}{"Archives": joinArchives(required, ext)})
	}
	return i18n.T("StatusMissing", map[string]interface{}{"Archives": joinArchives(missing, ext)})
}

// joinArchives renders names as "a.zip + b.zip".
func joinArchives(names []string, ext string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+ext)
	}
	return strings.Join(parts, " + ")
}

// Filter keeps items whose title or name contains query, case-insensitive.
// A blank query keeps everything.
func Filter(items []Item, query string) []Item {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return items
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Game.Title()), needle) ||
			strings.Contains(strings.ToLower(it.Game.Name), needle) {
			out = append(out, it)
		}
	}
	return out
}
