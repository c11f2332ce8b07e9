// Package evaluate scores submitted pages against relevance judgments
// and gold articles. Three metrics are computed per page: whether
// adjacent paragraphs answer a shared relevant facet, how relevant each
// paragraph is to the page at all, and how far adjacent paragraphs sit
// from each other in the gold article.
package evaluate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cartools/car-y3/internal/carfile"
	"github.com/cartools/car-y3/internal/outline"
	"github.com/cartools/car-y3/internal/page"
	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/logger"
	"github.com/cartools/car-y3/internal/qrel"
)

// Evaluator holds the ground truth for every outline page and scores
// submitted pages against it.
type Evaluator struct {
	index     *outline.Index
	maxRel    int
	judgments map[string]*pageJudgments
	log       *logger.Logger
}

// New returns an evaluator over the outline. maxRel is the highest
// relevance grade judgments can carry, typically the maximum found in
// the qrel file.
func New(index *outline.Index, maxRel int, log *logger.Logger) *Evaluator {
	judgments := make(map[string]*pageJudgments, index.Len())
	for _, squid := range index.Squids() {
		judgments[squid] = newPageJudgments()
	}
	return &Evaluator{
		index:     index,
		maxRel:    maxRel,
		judgments: judgments,
		log:       log,
	}
}

// LoadQrels attaches the facet judgments to the outline pages owning
// them. Judgments for facets outside the outline are dropped.
func (e *Evaluator) LoadQrels(f *qrel.File) error {
	kept := 0
	for squid, lines := range f.GroupBySquid(e.index.Squids()) {
		j := e.judgments[squid]
		for _, ln := range lines {
			if !strings.HasPrefix(ln.QueryID, squid) {
				return apperrors.InvariantError(
					fmt.Sprintf("judgment for %q grouped under page %q", ln.QueryID, squid))
			}
			j.facets[ln.ParaID] = append(j.facets[ln.ParaID], facetRel{
				facetID:   ln.QueryID,
				relevance: ln.Relevance,
			})
			kept++
		}
	}
	e.log.Debug("qrels attached", "judgments", kept, "pages", e.index.Len())
	return nil
}

// LoadGoldPages reads the gold articles and records, per paragraph, its
// 1-based positions in the gold reading order.
func (e *Evaluator) LoadGoldPages(path string) error {
	loaded := 0
	err := carfile.ReadGoldPages(path, func(rec carfile.GoldPageRecord) error {
		j, ok := e.judgments[rec.PageID]
		if !ok {
			e.log.Debug("gold page not in outline", "squid", rec.PageID)
			return nil
		}
		for i, pid := range rec.ParagraphSequence() {
			j.positions[pid] = append(j.positions[pid], i+1)
		}
		loaded++
		return nil
	})
	if err != nil {
		return err
	}
	e.log.Debug("gold pages loaded", "path", path, "pages", loaded)
	return nil
}

// EvaluatePage scores one submitted page on all metrics. The page must
// belong to the outline.
func (e *Evaluator) EvaluatePage(pg *page.Page) ([]PageScore, error) {
	j, ok := e.judgments[pg.Squid]
	if !ok {
		return nil, apperrors.NotFoundError(fmt.Sprintf("outline page %s", pg.Squid))
	}

	var overlaps, rels, distances []float64
	var prev *page.Paragraph
	for _, para := range pg.Paragraphs {
		rels = append(rels, relevanceScore(j.facets[para.ID], e.maxRel))
		if prev != nil {
			overlaps = append(overlaps, facetOverlap(j.facets[prev.ID], j.facets[para.ID]))
			distances = append(distances, positionDistance(j.positions[prev.ID], j.positions[para.ID], positionPenalty))
		}
		prev = para
	}

	return []PageScore{
		{Squid: pg.Squid, RunID: pg.RunID, Metric: MetricFacetOverlap, Score: mean(overlaps)},
		{Squid: pg.Squid, RunID: pg.RunID, Metric: MetricRelevance, Score: mean(rels)},
		{Squid: pg.Squid, RunID: pg.RunID, Metric: MetricPositionDistance, Score: mean(distances)},
	}, nil
}

// Summarize aggregates page scores per run and metric. The standard
// error is taken over the outline's page count, so runs that skipped
// pages are not rewarded with a tighter interval.
func Summarize(scores []PageScore, outlinePages int) []Summary {
	type key struct {
		runID  string
		metric string
	}
	grouped := make(map[key][]float64)
	for _, s := range scores {
		k := key{s.RunID, s.Metric}
		grouped[k] = append(grouped[k], s.Score)
	}

	keys := make([]key, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].runID != keys[j].runID {
			return keys[i].runID < keys[j].runID
		}
		return keys[i].metric < keys[j].metric
	})

	summaries := make([]Summary, 0, len(keys))
	for _, k := range keys {
		xs := grouped[k]
		m := mean(xs)
		se := 0.0
		if outlinePages > 0 {
			se = stddev(xs, m) / math.Sqrt(float64(outlinePages))
		}
		summaries = append(summaries, Summary{
			RunID:  k.runID,
			Metric: k.metric,
			Mean:   m,
			StdErr: se,
			Pages:  len(xs),
		})
	}
	return summaries
}
