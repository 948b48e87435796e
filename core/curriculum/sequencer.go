package curriculum

import (
	"sort"

	"github.com/trezcool/launchpad/core"
)

// CoreFormationVersion identifies the current CoreFormationRanks table.
// Bump it whenever a slug is added, removed or re-ranked.
const CoreFormationVersion = 1

// CoreFormationRanks is the fixed presentation rank of the mandatory onboarding modules.
// These modules were historically authored inside the generic electives class with
// meaningless index values, so their order is never inferred from Index/Sequence.
// New core modules must be given a distinct rank here.
var CoreFormationRanks = map[string]int{
	"intro-to-nonprofits": 1,
	"incorporation":       2,
	"tax-exemption":       3,
}

// CoreFormationSlugs returns the core formation slugs in rank order.
func CoreFormationSlugs() []string {
	slugs := make([]string, 0, len(CoreFormationRanks))
	for slug := range CoreFormationRanks {
		slugs = append(slugs, slug)
	}
	sort.Slice(slugs, func(i, j int) bool {
		ri, rj := CoreFormationRanks[slugs[i]], CoreFormationRanks[slugs[j]]
		if ri != rj {
			return ri < rj
		}
		return slugs[i] < slugs[j]
	})
	return slugs
}

// IsCoreFormation reports whether slug is one of the core formation modules.
func IsCoreFormation(slug string) bool {
	_, ok := coreRank(slug)
	return ok
}

func coreRank(slug string) (int, bool) {
	rank, ok := CoreFormationRanks[core.CleanString(slug, true /* lower */)]
	return rank, ok
}

// Sequence returns modules in their canonical presentation order:
//  - core formation modules first, by CoreFormationRanks
//  - then every other module, by Sequence when all of them have one, else by (Index, Slug)
// The input is not modified. Sequence is total and idempotent.
func Sequence(modules []Module) []Module {
	coreMods := make([]Module, 0, len(CoreFormationRanks))
	rest := make([]Module, 0, len(modules))
	for _, m := range modules {
		if IsCoreFormation(m.Slug) {
			coreMods = append(coreMods, m)
		} else {
			rest = append(rest, m)
		}
	}

	sort.SliceStable(coreMods, func(i, j int) bool {
		ri, _ := coreRank(coreMods[i].Slug)
		rj, _ := coreRank(coreMods[j].Slug)
		if ri != rj {
			return ri < rj
		}
		return lessBySlug(coreMods[i], coreMods[j])
	})

	bySequence := len(rest) > 0
	for _, m := range rest {
		if m.Sequence == nil {
			bySequence = false
			break
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		a, b := rest[i], rest[j]
		if bySequence {
			if *a.Sequence != *b.Sequence {
				return *a.Sequence < *b.Sequence
			}
		} else if a.Index != b.Index {
			return a.Index < b.Index
		}
		return lessBySlug(a, b)
	})

	return append(coreMods, rest...)
}

func lessBySlug(a, b Module) bool {
	if a.Slug != b.Slug {
		return a.Slug < b.Slug
	}
	return a.ID < b.ID
}
