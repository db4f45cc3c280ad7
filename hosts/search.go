package hosts

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

var dice = metrics.NewSorensenDice()

// Similarity is the case-insensitive Sørensen–Dice coefficient over bigrams
// of a and b, in [0, 1]. Equal strings score 1 even when they are too short
// to have bigrams.
func Similarity(a, b string) float64 {
	if strings.EqualFold(a, b) {
		return 1
	}
	return strutil.Similarity(a, b, dice)
}

// Score is the best similarity between query and any of the mapping's domains.
func Score(query string, m *Mapping) float64 {
	best := 0.0
	for _, d := range m.Domains {
		if s := Similarity(query, d); s > best {
			best = s
		}
	}
	return best
}

// Rank orders entries by descending Score. Entries with equal scores keep
// their relative input order. The input slice is not modified.
func Rank(query string, entries []*Mapping) []*Mapping {
	type scored struct {
		m     *Mapping
		score float64
	}

	list := make([]scored, len(entries))
	for i, m := range entries {
		list[i] = scored{m: m, score: Score(query, m)}
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].score > list[j].score
	})

	ranked := make([]*Mapping, len(list))
	for i := range list {
		ranked[i] = list[i].m
	}
	return ranked
}
