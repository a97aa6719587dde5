// Package order provides the named sort policies applied to matched items.
//
// The set of strategies is closed and selected once by exact name through
// Lookup; names outside the table resolve to NoOrder. Every strategy sorts a
// copy with a stable sort, so items with equal keys keep their input order.
package order

import (
	"sort"
	"time"

	"github.com/solatis/smartplaylist/internal/rules"
	"github.com/solatis/smartplaylist/internal/types"
)

// Strategy names as stored in playlist definitions.
const (
	NameNoOrder          = "NoOrder"
	NameReleaseDateAsc   = "Release Date Ascending"
	NameReleaseDateDesc  = "Release Date Descending"
	NameEpisodeTitleAsc  = "Episode Title Ascending"
	NameEpisodeTitleDesc = "Episode Title Descending"
	NameFolderPath       = "FolderPath"
)

// Strategy orders matched items.
type Strategy interface {
	Name() string
	// OrderBy returns a new slice; items is not modified.
	OrderBy(items []types.Item) []types.Item
}

// sortStrategy is a stable sort keyed by a less function.
// A nil less is the identity order.
type sortStrategy struct {
	name string
	less func(a, b *types.Item) bool
}

func (s sortStrategy) Name() string {
	return s.name
}

func (s sortStrategy) OrderBy(items []types.Item) []types.Item {
	out := make([]types.Item, len(items))
	copy(out, items)
	if s.less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return s.less(&out[i], &out[j])
	})
	return out
}

var (
	NoOrder Strategy = sortStrategy{name: NameNoOrder}

	ReleaseDateAscending Strategy = sortStrategy{
		name: NameReleaseDateAsc,
		less: func(a, b *types.Item) bool {
			return premiere(a).Before(premiere(b))
		},
	}

	ReleaseDateDescending Strategy = sortStrategy{
		name: NameReleaseDateDesc,
		less: func(a, b *types.Item) bool {
			return premiere(b).Before(premiere(a))
		},
	}

	EpisodeTitleAscending Strategy = sortStrategy{
		name: NameEpisodeTitleAsc,
		less: func(a, b *types.Item) bool {
			return rules.CompareFold(a.Name, b.Name) < 0
		},
	}

	EpisodeTitleDescending Strategy = sortStrategy{
		name: NameEpisodeTitleDesc,
		less: func(a, b *types.Item) bool {
			return rules.CompareFold(b.Name, a.Name) < 0
		},
	}

	FolderPath Strategy = sortStrategy{
		name: NameFolderPath,
		less: func(a, b *types.Item) bool {
			if c := rules.CompareFold(rules.ContainingFolder(*a), rules.ContainingFolder(*b)); c != 0 {
				return c < 0
			}
			return rules.CompareFold(a.Name, b.Name) < 0
		},
	}
)

// strategies is the lookup table, in presentation order.
var strategies = []Strategy{
	NoOrder,
	ReleaseDateAscending,
	ReleaseDateDescending,
	EpisodeTitleAscending,
	EpisodeTitleDescending,
	FolderPath,
}

// Lookup returns the strategy registered under name, or NoOrder.
// Matching is exact, as definitions store the display name verbatim.
func Lookup(name string) Strategy {
	for _, s := range strategies {
		if s.Name() == name {
			return s
		}
	}
	return NoOrder
}

// Names lists strategy names in presentation order.
func Names() []string {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}
	return names
}

// premiere treats a missing date as the minimum.
func premiere(it *types.Item) time.Time {
	if it.PremiereDate == nil {
		return time.Time{}
	}
	return *it.PremiereDate
}
