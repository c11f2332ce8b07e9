// Package qrel parses relevance judgment files and the compat file that
// translates older section ids to current ones.
package qrel

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/fileio"
	"github.com/cartools/car-y3/internal/pkg/logger"
)

// Line is one judgment: a paragraph's graded relevance for a facet.
// The second column of the format carries no information and is ignored.
type Line struct {
	QueryID   string
	ParaID    string
	Relevance int
}

// File is a parsed qrel file.
type File struct {
	Lines []Line
}

// ParseLine parses one qrel line.
func ParseLine(s string) (Line, error) {
	fields := strings.Fields(s)
	if len(fields) < 4 {
		return Line{}, apperrors.FormatError(
			fmt.Sprintf("qrel line has %d fields, want 4", len(fields)), nil)
	}

	rel, err := strconv.Atoi(fields[3])
	if err != nil {
		return Line{}, apperrors.FormatError(fmt.Sprintf("qrel relevance %q", fields[3]), err)
	}

	return Line{
		QueryID:   fields[0],
		ParaID:    fields[2],
		Relevance: rel,
	}, nil
}

// Load reads a qrel file. When translate is non-nil, query ids found in
// it are replaced by their translation; other ids pass through.
func Load(path string, translate map[string]string, log *logger.Logger) (*File, error) {
	f, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	qf := &File{}
	translated := 0
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		ln, err := ParseLine(text)
		if err != nil {
			return nil, apperrors.FormatError(fmt.Sprintf("%s line %d", path, lineNo), err)
		}
		if translate != nil {
			if to, ok := translate[ln.QueryID]; ok {
				ln.QueryID = to
				translated++
			}
		}
		qf.Lines = append(qf.Lines, ln)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.IOError(fmt.Sprintf("reading %s", path), err)
	}

	log.Debug("qrels loaded", "path", path, "lines", len(qf.Lines), "translated", translated)
	return qf, nil
}

// MaxRelevance returns the highest relevance grade in the file, or 0 for
// an empty file.
func (f *File) MaxRelevance() int {
	max := 0
	for _, ln := range f.Lines {
		if ln.Relevance > max {
			max = ln.Relevance
		}
	}
	return max
}

// GroupBySquid buckets the judgments under the page owning their facet.
// A judgment belongs to a page when its query id is the page's squid or a
// facet of it. Judgments matching none of the given squids are dropped.
func (f *File) GroupBySquid(squids []string) map[string][]Line {
	grouped := make(map[string][]Line, len(squids))
	for _, ln := range f.Lines {
		for _, squid := range squids {
			if ln.QueryID == squid || strings.HasPrefix(ln.QueryID, squid+"/") {
				grouped[squid] = append(grouped[squid], ln)
			}
		}
	}
	return grouped
}
