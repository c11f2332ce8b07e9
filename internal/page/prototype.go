package page

import (
	"fmt"
	"strings"

	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
)

// QueryFacet is one facet of a page: a top level outline heading together
// with its full facet id (squid + "/" + heading id).
type QueryFacet struct {
	Heading string `json:"heading"`
	ID      string `json:"heading_id"`
}

// Prototype is the immutable per-page template taken from the outline:
// the squid, the page title and the facets in outline order. Every page
// populated for a run starts from a prototype.
type Prototype struct {
	squid    string
	title    string
	facets   []QueryFacet
	facetIDs map[string]struct{}
}

// NewPrototype builds a prototype, checking that every facet id lies in
// the page's namespace.
func NewPrototype(squid, title string, facets []QueryFacet) (*Prototype, error) {
	if squid == "" {
		return nil, apperrors.InvariantError("prototype squid must not be empty")
	}

	p := &Prototype{
		squid:    squid,
		title:    title,
		facets:   make([]QueryFacet, len(facets)),
		facetIDs: make(map[string]struct{}, len(facets)),
	}
	copy(p.facets, facets)

	for _, f := range facets {
		if !strings.HasPrefix(f.ID, squid+"/") {
			return nil, apperrors.InvariantError(
				fmt.Sprintf("facet %q does not belong to page %q", f.ID, squid))
		}
		if _, dup := p.facetIDs[f.ID]; dup {
			return nil, apperrors.InvariantError(fmt.Sprintf("duplicate facet %q", f.ID))
		}
		p.facetIDs[f.ID] = struct{}{}
	}
	return p, nil
}

// Squid returns the stable query unique id of the page.
func (p *Prototype) Squid() string { return p.squid }

// Title returns the page title.
func (p *Prototype) Title() string { return p.title }

// Facets returns the facets in outline order.
func (p *Prototype) Facets() []QueryFacet {
	out := make([]QueryFacet, len(p.facets))
	copy(out, p.facets)
	return out
}

// HasFacet reports whether facetID is a facet of this page.
func (p *Prototype) HasFacet(facetID string) bool {
	_, ok := p.facetIDs[facetID]
	return ok
}
