package evaluate

import "math"

// Metric names as they appear in reports.
const (
	MetricFacetOverlap     = "facet_overlap"
	MetricRelevance        = "relevance"
	MetricPositionDistance = "positiondistance"
)

// positionPenalty is the distance charged when a paragraph has no gold
// position at all.
const positionPenalty = 1000

// facetOverlap returns 1 when the two paragraphs share a facet judged
// positively relevant, 0 otherwise.
func facetOverlap(a, b []facetRel) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	pos := make(map[string]bool, len(a))
	for _, f := range a {
		if f.relevance > 0 {
			pos[f.facetID] = true
		}
	}
	for _, f := range b {
		if f.relevance > 0 && pos[f.facetID] {
			return 1
		}
	}
	return 0
}

// relevanceScore returns the paragraph's best positive judgment scaled
// by the maximum possible relevance, or 0 when nothing positive is
// judged.
func relevanceScore(facets []facetRel, maxRel int) float64 {
	best := 0
	for _, f := range facets {
		if f.relevance > best {
			best = f.relevance
		}
	}
	if best == 0 || maxRel <= 0 {
		return 0
	}
	return float64(best) / float64(maxRel)
}

// positionDistance returns the smallest absolute distance between any
// gold position of the first paragraph and any of the second, or the
// penalty when either side has none.
func positionDistance(a, b []int, penalty int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return float64(penalty)
	}
	best := math.MaxInt
	for _, p1 := range a {
		for _, p2 := range b {
			d := p1 - p2
			if d < 0 {
				d = -d
			}
			if d < best {
				best = d
			}
		}
	}
	return float64(best)
}

// mean returns the arithmetic mean, or 0 for no samples. Pages too short
// for adjacency metrics therefore score 0 instead of being undefined.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev returns the population standard deviation around m.
func stddev(xs []float64, m float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
