package page

import "sort"

// ParagraphOrigin records where a paragraph of a populated page came
// from: the facet whose ranking supplied it, its score there, and
// optionally its 1-based rank. Rank is a pointer so an absent rank stays
// distinguishable from an explicit value.
type ParagraphOrigin struct {
	ParaID      string  `json:"para_id"`
	SectionPath string  `json:"section_path"`
	RankScore   float64 `json:"rank_score"`
	Rank        *int    `json:"rank,omitempty"`
}

// FillMissingRanks assigns ranks to the given origins when at least one
// of them lacks a rank. Within each section path, origins are ordered by
// descending rank score and ranked 1..n, overwriting any ranks already
// present so the whole group is consistent.
func FillMissingRanks(origins []ParagraphOrigin) {
	missing := false
	for i := range origins {
		if origins[i].Rank == nil {
			missing = true
			break
		}
	}
	if !missing {
		return
	}

	groups := make(map[string][]int)
	for i := range origins {
		groups[origins[i].SectionPath] = append(groups[origins[i].SectionPath], i)
	}

	for _, idx := range groups {
		sort.SliceStable(idx, func(a, b int) bool {
			return origins[idx[a]].RankScore > origins[idx[b]].RankScore
		})
		for pos, i := range idx {
			rank := pos + 1
			origins[i].Rank = &rank
		}
	}
}
