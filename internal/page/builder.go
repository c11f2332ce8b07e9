package page

import (
	"fmt"
	"strings"

	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/logger"
)

// Builder accumulates per-facet candidate paragraphs for one page of one
// run and merges them into a populated page. Candidates queue up in
// arrival order per facet; Merge spends the paragraph budget round-robin
// across facets in outline order, then concatenates the picks facet by
// facet. A builder merges exactly once.
type Builder struct {
	proto   *Prototype
	runID   string
	queues  map[string][]*Paragraph
	origins []ParagraphOrigin
	merged  bool
	log     *logger.Logger
}

// NewBuilder returns a builder for one (run, page) pair. Merge warnings
// go to log.
func NewBuilder(proto *Prototype, runID string, log *logger.Logger) *Builder {
	return &Builder{
		proto:  proto,
		runID:  runID,
		queues: make(map[string][]*Paragraph),
		log:    log.WithRun(runID).WithPage(proto.squid),
	}
}

// RunID returns the run this builder populates for.
func (b *Builder) RunID() string { return b.runID }

// Squid returns the page this builder populates.
func (b *Builder) Squid() string { return b.proto.squid }

// AddCandidate queues a paragraph as a candidate for the given facet.
// The facet must lie in the page's namespace. Candidates for facets the
// outline does not list are legal but never selected.
func (b *Builder) AddCandidate(facetID string, para *Paragraph) error {
	if b.merged {
		return apperrors.InvariantError(
			fmt.Sprintf("page %s already merged for run %s", b.proto.squid, b.runID))
	}
	if !strings.HasPrefix(facetID, b.proto.squid) {
		return apperrors.InvariantError(
			fmt.Sprintf("facet %q does not belong to page %q", facetID, b.proto.squid))
	}
	b.queues[facetID] = append(b.queues[facetID], para)
	return nil
}

// AddOrigin records the provenance of a candidate.
func (b *Builder) AddOrigin(origin ParagraphOrigin) error {
	if b.merged {
		return apperrors.InvariantError(
			fmt.Sprintf("page %s already merged for run %s", b.proto.squid, b.runID))
	}
	if !strings.HasPrefix(origin.SectionPath, b.proto.squid) {
		return apperrors.InvariantError(
			fmt.Sprintf("origin section %q does not belong to page %q", origin.SectionPath, b.proto.squid))
	}
	b.origins = append(b.origins, origin)
	return nil
}

// Merge selects up to topK paragraphs round-robin across the facets in
// outline order and returns the populated page. With removeDuplicates, a
// paragraph id already selected is discarded without spending budget;
// otherwise repeated selections each count. A page that ends up with
// fewer than topK paragraphs is reported as a warning, not an error.
func (b *Builder) Merge(topK int, removeDuplicates bool) (*Page, error) {
	if b.merged {
		return nil, apperrors.InvariantError(
			fmt.Sprintf("page %s already merged for run %s", b.proto.squid, b.runID))
	}
	if topK < 1 {
		return nil, apperrors.UsageError(fmt.Sprintf("paragraph budget must be positive, got %d", topK))
	}
	if len(b.queues) == 0 {
		return nil, apperrors.InvariantError(
			fmt.Sprintf("no candidate paragraphs for page %s in run %s", b.proto.squid, b.runID))
	}

	picked := make(map[string][]*Paragraph, len(b.queues))
	var seen map[string]struct{}
	if removeDuplicates {
		seen = make(map[string]struct{})
	}

	selected := 0
	for progress := true; selected < topK && progress; {
		progress = false
		for _, facet := range b.proto.facets {
			if selected >= topK {
				break
			}
			queue := b.queues[facet.ID]
			if len(queue) == 0 {
				continue
			}
			para := queue[0]
			b.queues[facet.ID] = queue[1:]
			progress = true

			if removeDuplicates {
				if _, dup := seen[para.ID]; dup {
					continue
				}
				seen[para.ID] = struct{}{}
			}
			picked[facet.ID] = append(picked[facet.ID], para)
			selected++
		}
	}

	switch {
	case selected == 0:
		b.log.Warn("no paragraphs selected for page")
	case selected < topK:
		b.log.Warn("page under-filled", "selected", selected, "budget", topK)
	}

	paragraphs := make([]*Paragraph, 0, selected)
	for _, facet := range b.proto.facets {
		paragraphs = append(paragraphs, picked[facet.ID]...)
	}

	b.merged = true
	b.queues = nil

	return New(b.proto, b.runID, paragraphs, b.origins)
}
