// Package outline loads the reference outline and indexes the page
// prototypes it defines, by squid and by facet id.
package outline

import (
	"fmt"

	"github.com/cartools/car-y3/internal/carfile"
	"github.com/cartools/car-y3/internal/page"
	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/logger"
)

// Index holds the outline's page prototypes in file order.
type Index struct {
	protos  []*page.Prototype
	bySquid map[string]*page.Prototype
	byFacet map[string]*page.Prototype
}

// Load reads an outline file into an index.
func Load(path string, log *logger.Logger) (*Index, error) {
	ix := &Index{
		bySquid: make(map[string]*page.Prototype),
		byFacet: make(map[string]*page.Prototype),
	}

	err := carfile.ReadOutlines(path, func(rec carfile.OutlineRecord) error {
		facets := make([]page.QueryFacet, 0, len(rec.ChildSections))
		for _, h := range rec.ChildSections {
			facets = append(facets, page.QueryFacet{
				Heading: h.Heading,
				ID:      rec.PageID + "/" + h.HeadingID,
			})
		}

		proto, err := page.NewPrototype(rec.PageID, rec.PageName, facets)
		if err != nil {
			return apperrors.FormatError(fmt.Sprintf("outline page %s", rec.PageID), err)
		}
		if _, dup := ix.bySquid[proto.Squid()]; dup {
			return apperrors.FormatError(
				fmt.Sprintf("outline defines page %s twice", proto.Squid()), nil)
		}

		ix.protos = append(ix.protos, proto)
		ix.bySquid[proto.Squid()] = proto
		for _, f := range proto.Facets() {
			ix.byFacet[f.ID] = proto
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(ix.protos) == 0 {
		return nil, apperrors.FormatError(fmt.Sprintf("outline %s defines no pages", path), nil)
	}

	log.Info("outline loaded", "path", path, "pages", len(ix.protos), "facets", len(ix.byFacet))
	return ix, nil
}

// BySquid returns the prototype of a page.
func (ix *Index) BySquid(squid string) (*page.Prototype, bool) {
	proto, ok := ix.bySquid[squid]
	return proto, ok
}

// ByFacet returns the prototype owning a facet id.
func (ix *Index) ByFacet(facetID string) (*page.Prototype, bool) {
	proto, ok := ix.byFacet[facetID]
	return proto, ok
}

// Prototypes returns all prototypes in outline order.
func (ix *Index) Prototypes() []*page.Prototype {
	return ix.protos
}

// Squids returns the page ids in outline order.
func (ix *Index) Squids() []string {
	squids := make([]string, 0, len(ix.protos))
	for _, p := range ix.protos {
		squids = append(squids, p.Squid())
	}
	return squids
}

// Len returns the number of outline pages.
func (ix *Index) Len() int {
	return len(ix.protos)
}
