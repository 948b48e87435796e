package entitlement

import (
	"sort"

	"github.com/trezcool/launchpad/core"
)

// Catalog is the set of purchasable elective module slugs.
type Catalog struct {
	slugs []string
	index map[string]struct{}
}

// NewCatalog normalizes (trim, lowercase), dedupes and sorts the given slugs.
func NewCatalog(slugs ...string) Catalog {
	cleaned := core.CleanSlugs(slugs)
	index := make(map[string]struct{}, len(cleaned))
	for _, s := range cleaned {
		index[s] = struct{}{}
	}
	return Catalog{slugs: cleaned, index: index}
}

// Slugs returns a copy of every elective slug, sorted.
func (c Catalog) Slugs() []string {
	return append(make([]string, 0, len(c.slugs)), c.slugs...)
}

func (c Catalog) Contains(slug string) bool {
	_, ok := c.index[core.CleanString(slug, true /* lower */)]
	return ok
}

// Owned filters purchased slugs down to the catalog: normalized, deduped and sorted.
func (c Catalog) Owned(purchased []string) []string {
	seen := make(map[string]struct{}, len(purchased))
	owned := make([]string, 0, len(purchased))
	for _, slug := range purchased {
		slug = core.CleanString(slug, true /* lower */)
		if _, known := c.index[slug]; !known {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		owned = append(owned, slug)
	}
	sort.Strings(owned)
	return owned
}
