// Package populate converts ranking run files into populated pages using
// the outline's page prototypes.
package populate

import (
	"sort"

	"github.com/cartools/car-y3/internal/corpus"
	"github.com/cartools/car-y3/internal/outline"
	"github.com/cartools/car-y3/internal/page"
	"github.com/cartools/car-y3/internal/pkg/logger"
	"github.com/cartools/car-y3/internal/runfile"
)

type runPageKey struct {
	runName string
	squid   string
}

// Manager accumulates run lines into one page builder per (run, page)
// pair. Lines whose query id is not a facet of the outline are ignored,
// so rankings for other benchmarks can share a run file.
type Manager struct {
	index    *outline.Index
	builders map[runPageKey]*page.Builder
	keys     []runPageKey
	log      *logger.Logger
}

// NewManager returns a manager over the given outline.
func NewManager(ix *outline.Index, log *logger.Logger) *Manager {
	return &Manager{
		index:    ix,
		builders: make(map[runPageKey]*page.Builder),
		log:      log,
	}
}

// Feed routes one run line to the builder of its (run, page) pair.
func (m *Manager) Feed(ln runfile.Line) error {
	proto, ok := m.index.ByFacet(ln.QueryID)
	if !ok {
		m.log.Debug("ignoring ranking for unknown query", "query_id", ln.QueryID)
		return nil
	}

	key := runPageKey{runName: ln.RunName, squid: proto.Squid()}
	b, ok := m.builders[key]
	if !ok {
		b = page.NewBuilder(proto, ln.RunName, m.log)
		m.builders[key] = b
		m.keys = append(m.keys, key)
	}

	if err := b.AddCandidate(ln.QueryID, page.NewParagraph(ln.ParaID)); err != nil {
		return err
	}
	rank := ln.Rank
	return b.AddOrigin(page.ParagraphOrigin{
		ParaID:      ln.ParaID,
		SectionPath: ln.QueryID,
		RankScore:   ln.Score,
		Rank:        &rank,
	})
}

// FeedRun feeds every line of a run.
func (m *Manager) FeedRun(r *runfile.Run) error {
	for _, ln := range r.Lines {
		if err := m.Feed(ln); err != nil {
			return err
		}
	}
	return nil
}

// Pages merges every accumulated builder and returns the populated
// pages, sorted by run id then squid.
func (m *Manager) Pages(topK int, removeDuplicates bool) ([]*page.Page, error) {
	keys := make([]runPageKey, len(m.keys))
	copy(keys, m.keys)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].runName != keys[j].runName {
			return keys[i].runName < keys[j].runName
		}
		return keys[i].squid < keys[j].squid
	})

	pages := make([]*page.Page, 0, len(keys))
	for _, key := range keys {
		pg, err := m.builders[key].Merge(topK, removeDuplicates)
		if err != nil {
			return nil, err
		}
		pages = append(pages, pg)
	}
	return pages, nil
}

// FacetLevelPages runs the whole facet-level conversion: feed all runs,
// then merge every (run, page) pair.
func FacetLevelPages(ix *outline.Index, runs []*runfile.Run, topK int, removeDuplicates bool, log *logger.Logger) ([]*page.Page, error) {
	m := NewManager(ix, log)
	for _, r := range runs {
		if err := m.FeedRun(r); err != nil {
			return nil, err
		}
	}
	return m.Pages(topK, removeDuplicates)
}

// PageLevelPages converts page-level runs, where the query id is the
// squid itself. No merge happens: paragraphs keep their arrival order,
// capped at topK by the run file's rank column.
func PageLevelPages(ix *outline.Index, runs []*runfile.Run, topK int, log *logger.Logger) ([]*page.Page, error) {
	type accumulator struct {
		proto  *page.Prototype
		runID  string
		paras  []*page.Paragraph
		origin []page.ParagraphOrigin
	}

	var pages []*page.Page
	for _, r := range runs {
		accs := make(map[string]*accumulator)
		var order []string

		for _, ln := range r.Lines {
			proto, ok := ix.BySquid(ln.QueryID)
			if !ok {
				log.Debug("ignoring ranking for unknown page", "query_id", ln.QueryID)
				continue
			}
			if ln.Rank > topK {
				continue
			}

			acc, ok := accs[ln.QueryID]
			if !ok {
				acc = &accumulator{proto: proto, runID: ln.RunName}
				accs[ln.QueryID] = acc
				order = append(order, ln.QueryID)
			}

			acc.paras = append(acc.paras, page.NewParagraph(ln.ParaID))
			rank := ln.Rank
			acc.origin = append(acc.origin, page.ParagraphOrigin{
				ParaID:      ln.ParaID,
				SectionPath: ln.QueryID,
				RankScore:   ln.Score,
				Rank:        &rank,
			})
		}

		sort.Strings(order)
		for _, squid := range order {
			acc := accs[squid]
			pg, err := page.New(acc.proto, acc.runID, acc.paras, acc.origin)
			if err != nil {
				return nil, err
			}
			pages = append(pages, pg)
		}
	}
	return pages, nil
}

// FillText loads paragraph text from the corpus into every paragraph of
// the given pages.
func FillText(pages []*page.Page, corpusPath string, log *logger.Logger) error {
	filler := corpus.NewFiller(log)
	for _, pg := range pages {
		filler.RegisterPage(pg)
	}
	log.Info("filling paragraph text", "paragraphs", filler.Len(), "corpus", corpusPath)
	return filler.Fill(corpusPath)
}
