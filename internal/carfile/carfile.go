// Package carfile decodes the external benchmark files: outlines, the
// paragraph corpus and gold pages. Each file is a sequence of records in
// either JSON lines or CBOR encoding, chosen by file extension, and may
// additionally be gzip, xz or bzip2 compressed.
package carfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/fileio"
)

// ErrStop can be returned by a record callback to end iteration early
// without reporting an error.
var ErrStop = errors.New("carfile: stop iteration")

// HeadingRecord is one top level section of an outline page.
type HeadingRecord struct {
	HeadingID string `json:"heading_id"`
	Heading   string `json:"heading"`
}

// OutlineRecord is one page of the reference outline.
type OutlineRecord struct {
	PageID        string          `json:"page_id"`
	PageName      string          `json:"page_name"`
	ChildSections []HeadingRecord `json:"child_sections"`
}

// SpanRecord is one body span of a corpus paragraph, either plain text or
// an entity link.
type SpanRecord struct {
	Text            string `json:"text,omitempty"`
	AnchorText      string `json:"anchor_text,omitempty"`
	TargetPageID    string `json:"target_page_id,omitempty"`
	TargetPageTitle string `json:"target_page_title,omitempty"`
	LinkSectionPath string `json:"link_section_path,omitempty"`
}

// IsLink reports whether the span is an entity link.
func (s SpanRecord) IsLink() bool {
	return s.TargetPageID != ""
}

// ParagraphRecord is one paragraph of the corpus.
type ParagraphRecord struct {
	ParaID string       `json:"para_id"`
	Bodies []SpanRecord `json:"bodies"`
}

// SkeletonNode is one node of a gold page skeleton. Nodes either carry a
// paragraph or nest further nodes.
type SkeletonNode struct {
	ParaID   string         `json:"para_id,omitempty"`
	Children []SkeletonNode `json:"children,omitempty"`
}

// GoldPageRecord is one manually assembled gold page.
type GoldPageRecord struct {
	PageID   string         `json:"page_id"`
	Skeleton []SkeletonNode `json:"skeleton"`
}

// ParagraphSequence flattens the skeleton depth first into the reading
// order sequence of paragraph ids.
func (g GoldPageRecord) ParagraphSequence() []string {
	var seq []string
	var walk func(nodes []SkeletonNode)
	walk = func(nodes []SkeletonNode) {
		for _, n := range nodes {
			if n.ParaID != "" {
				seq = append(seq, n.ParaID)
			}
			walk(n.Children)
		}
	}
	walk(g.Skeleton)
	return seq
}

// ReadOutlines streams the outline records of path into fn.
func ReadOutlines(path string, fn func(OutlineRecord) error) error {
	return readRecords(path, "outline", fn)
}

// ReadParagraphs streams the corpus paragraph records of path into fn.
// fn may return ErrStop to end the pass early.
func ReadParagraphs(path string, fn func(ParagraphRecord) error) error {
	return readRecords(path, "paragraph", fn)
}

// ReadGoldPages streams the gold page records of path into fn.
func ReadGoldPages(path string, fn func(GoldPageRecord) error) error {
	return readRecords(path, "gold page", fn)
}

type decoder interface {
	Decode(v any) error
}

func readRecords[T any](path, kind string, fn func(T) error) error {
	r, err := fileio.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	dec, err := newDecoder(path, r)
	if err != nil {
		return err
	}

	for n := 1; ; n++ {
		var rec T
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return apperrors.FormatError(fmt.Sprintf("decoding %s record %d of %s", kind, n, path), err)
		}
		if err := fn(rec); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

func newDecoder(path string, r io.Reader) (decoder, error) {
	switch ext := filepath.Ext(fileio.StripCompression(path)); ext {
	case ".jsonl", ".json":
		return json.NewDecoder(r), nil
	case ".cbor":
		return cbor.NewDecoder(r), nil
	default:
		return nil, apperrors.UsageError(fmt.Sprintf("cannot tell format of %s, expected a .jsonl or .cbor file", path))
	}
}
