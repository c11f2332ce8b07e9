// Package page holds the populated page data model and the budgeted merge
// that turns per-facet rankings into a single page-level paragraph order.
package page

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
)

// Page is one populated page of a submission: the paragraphs selected for
// a squid by one run, with the facets they answer and, optionally, the
// provenance of every paragraph.
type Page struct {
	Squid       string
	Title       string
	RunID       string
	QueryFacets []QueryFacet
	Paragraphs  []*Paragraph
	Origins     []ParagraphOrigin

	pids map[string]struct{}
}

// New builds a page from a prototype. Origins are normalized so an empty
// list is stored as absent, and every origin section path must lie in the
// page's namespace.
func New(proto *Prototype, runID string, paragraphs []*Paragraph, origins []ParagraphOrigin) (*Page, error) {
	for _, o := range origins {
		if !strings.HasPrefix(o.SectionPath, proto.squid) {
			return nil, apperrors.InvariantError(
				fmt.Sprintf("origin section %q does not belong to page %q", o.SectionPath, proto.squid))
		}
	}
	if len(origins) == 0 {
		origins = nil
	}

	p := &Page{
		Squid:       proto.squid,
		Title:       proto.title,
		RunID:       runID,
		QueryFacets: proto.Facets(),
		Paragraphs:  paragraphs,
		Origins:     origins,
	}
	p.rebuildIDs()
	return p, nil
}

// SetOutlineMetadata restores the title and facets from an outline
// prototype, e.g. after decoding a page that was written without them.
func (p *Page) SetOutlineMetadata(proto *Prototype) error {
	if proto.squid != p.Squid {
		return apperrors.InvariantError(
			fmt.Sprintf("prototype %q does not match page %q", proto.squid, p.Squid))
	}
	p.Title = proto.title
	p.QueryFacets = proto.Facets()
	return nil
}

// HasParagraph reports whether the page contains the paragraph id.
func (p *Page) HasParagraph(id string) bool {
	if p.pids == nil {
		p.rebuildIDs()
	}
	_, ok := p.pids[id]
	return ok
}

// ParagraphIDs returns the distinct paragraph ids in page order.
func (p *Page) ParagraphIDs() []string {
	seen := make(map[string]struct{}, len(p.Paragraphs))
	ids := make([]string, 0, len(p.Paragraphs))
	for _, para := range p.Paragraphs {
		if _, dup := seen[para.ID]; dup {
			continue
		}
		seen[para.ID] = struct{}{}
		ids = append(ids, para.ID)
	}
	return ids
}

func (p *Page) rebuildIDs() {
	p.pids = make(map[string]struct{}, len(p.Paragraphs))
	for _, para := range p.Paragraphs {
		p.pids[para.ID] = struct{}{}
	}
}

type pageJSON struct {
	Title       string            `json:"title"`
	Squid       string            `json:"squid"`
	RunID       string            `json:"run_id"`
	QueryFacets []QueryFacet      `json:"query_facets,omitempty"`
	Paragraphs  []*Paragraph      `json:"paragraphs"`
	Origins     []ParagraphOrigin `json:"paragraph_origins,omitempty"`
}

// MarshalJSON emits the page with optional fields omitted when empty,
// never as empty lists.
func (p *Page) MarshalJSON() ([]byte, error) {
	aux := pageJSON{
		Title:       p.Title,
		Squid:       p.Squid,
		RunID:       p.RunID,
		QueryFacets: p.QueryFacets,
		Paragraphs:  p.Paragraphs,
		Origins:     p.Origins,
	}
	if aux.Paragraphs == nil {
		aux.Paragraphs = []*Paragraph{}
	}
	return json.Marshal(aux)
}

// UnmarshalJSON decodes a page, preserving empty-but-present optional
// lists so validation can reject them.
func (p *Page) UnmarshalJSON(data []byte) error {
	var aux pageJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Title = aux.Title
	p.Squid = aux.Squid
	p.RunID = aux.RunID
	p.QueryFacets = aux.QueryFacets
	p.Paragraphs = aux.Paragraphs
	p.Origins = aux.Origins
	p.rebuildIDs()
	return nil
}
