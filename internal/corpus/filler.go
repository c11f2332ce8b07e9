// Package corpus streams the paragraph corpus to fill paragraph text
// into pages and to extract paragraph id lists.
package corpus

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/cartools/car-y3/internal/carfile"
	"github.com/cartools/car-y3/internal/page"
	"github.com/cartools/car-y3/internal/pkg/logger"
)

// Corpus scan progress is reported every progressEvery records, at most
// once per progressInterval.
const (
	progressEvery    = 100000
	progressInterval = 5 * time.Second
)

// scanProgress throttles the progress logs of one corpus pass.
type scanProgress struct {
	lim *rate.Limiter
}

func newScanProgress() scanProgress {
	return scanProgress{lim: rate.NewLimiter(rate.Every(progressInterval), 1)}
}

func (p scanProgress) report(log *logger.Logger, scanned, found, wanted int) {
	if scanned%progressEvery != 0 || !p.lim.Allow() {
		return
	}
	log.Info("scanning corpus", "records", scanned, "found", found, "wanted", wanted)
}

// Filler registers paragraph instances that need text and fills them all
// in a single streaming pass over the corpus. The same paragraph id may
// be registered many times across pages and runs; every instance gets
// the body. The pass stops as soon as all registered ids have been seen.
type Filler struct {
	registry map[string][]*page.Paragraph
	log      *logger.Logger
}

// NewFiller returns an empty filler.
func NewFiller(log *logger.Logger) *Filler {
	return &Filler{
		registry: make(map[string][]*page.Paragraph),
		log:      log,
	}
}

// Register adds a paragraph instance to be filled.
func (f *Filler) Register(p *page.Paragraph) {
	f.registry[p.ID] = append(f.registry[p.ID], p)
}

// RegisterPage registers every paragraph of a page.
func (f *Filler) RegisterPage(pg *page.Page) {
	for _, p := range pg.Paragraphs {
		f.Register(p)
	}
}

// Len returns the number of distinct registered paragraph ids.
func (f *Filler) Len() int {
	return len(f.registry)
}

// Fill streams the corpus at path once, appending body spans to every
// registered instance of each id found. Ids absent from the corpus stay
// unpopulated. Run at most once per registry, this appends rather than
// replaces.
func (f *Filler) Fill(corpusPath string) error {
	if len(f.registry) == 0 {
		return nil
	}

	found := 0
	scanned := 0
	prog := newScanProgress()
	err := carfile.ReadParagraphs(corpusPath, func(rec carfile.ParagraphRecord) error {
		scanned++
		prog.report(f.log, scanned, found, len(f.registry))

		instances, ok := f.registry[rec.ParaID]
		if !ok {
			return nil
		}

		bodies := ConvertSpans(rec.Bodies)
		for _, inst := range instances {
			for _, b := range bodies {
				inst.AddBody(b)
			}
		}

		found++
		if found == len(f.registry) {
			f.log.Debug("all registered paragraphs found", "records", scanned)
			return carfile.ErrStop
		}
		return nil
	})
	if err != nil {
		return err
	}

	if found < len(f.registry) {
		f.log.Warn("corpus is missing registered paragraphs",
			"found", found, "wanted", len(f.registry))
	}
	return nil
}

// ReferenceBodies streams the corpus and returns the rendered body of
// every requested id that it contains.
func ReferenceBodies(corpusPath string, ids map[string]struct{}, log *logger.Logger) (map[string][]page.ParaBody, error) {
	ref := make(map[string][]page.ParaBody, len(ids))
	if len(ids) == 0 {
		return ref, nil
	}

	scanned := 0
	prog := newScanProgress()
	err := carfile.ReadParagraphs(corpusPath, func(rec carfile.ParagraphRecord) error {
		scanned++
		prog.report(log, scanned, len(ref), len(ids))

		if _, ok := ids[rec.ParaID]; !ok {
			return nil
		}
		ref[rec.ParaID] = ConvertSpans(rec.Bodies)
		if len(ref) == len(ids) {
			return carfile.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// ConvertSpans turns corpus span records into page body spans.
func ConvertSpans(spans []carfile.SpanRecord) []page.ParaBody {
	bodies := make([]page.ParaBody, 0, len(spans))
	for _, s := range spans {
		if s.IsLink() {
			bodies = append(bodies, page.LinkBody{
				Text:        s.AnchorText,
				Entity:      s.TargetPageID,
				EntityName:  s.TargetPageTitle,
				LinkSection: s.LinkSectionPath,
			})
		} else {
			bodies = append(bodies, page.TextBody{Text: s.Text})
		}
	}
	return bodies
}
