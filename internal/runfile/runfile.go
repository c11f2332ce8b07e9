// Package runfile parses TREC style run files: one ranking entry per
// line, whitespace separated.
package runfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/fileio"
	"github.com/cartools/car-y3/internal/pkg/logger"
)

// Line is one parsed run file entry. The second column of the format
// carries no information and is ignored.
type Line struct {
	QueryID string
	ParaID  string
	Rank    int
	Score   float64
	RunName string
}

// Run is a parsed run file, filtered to the entries within the rank
// cutoff it was loaded with.
type Run struct {
	Path  string
	Lines []Line
}

// ParseLine parses one run file line. When runName is non-empty it
// overrides the run tag column, which then does not need to be present.
func ParseLine(s, runName string) (Line, error) {
	fields := strings.Fields(s)

	need := 6
	if runName != "" {
		need = 5
	}
	if len(fields) < need {
		return Line{}, apperrors.FormatError(
			fmt.Sprintf("run line has %d fields, want at least %d", len(fields), need), nil)
	}

	rank, err := strconv.Atoi(fields[3])
	if err != nil {
		return Line{}, apperrors.FormatError(fmt.Sprintf("run line rank %q", fields[3]), err)
	}
	score, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return Line{}, apperrors.FormatError(fmt.Sprintf("run line score %q", fields[4]), err)
	}

	name := runName
	if name == "" {
		name = fields[5]
	}

	return Line{
		QueryID: fields[0],
		ParaID:  fields[2],
		Rank:    rank,
		Score:   score,
		RunName: name,
	}, nil
}

// Load reads a run file, keeping only entries with rank up to topK.
// Blank lines are skipped.
func Load(path string, topK int, runName string, log *logger.Logger) (*Run, error) {
	f, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	run := &Run{Path: path}
	scanner := bufio.NewScanner(f)
	kept, total := 0, 0
	for lineNo := 1; scanner.Scan(); lineNo++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		total++

		ln, err := ParseLine(text, runName)
		if err != nil {
			return nil, apperrors.FormatError(fmt.Sprintf("%s line %d", path, lineNo), err)
		}
		if ln.Rank > topK {
			continue
		}
		run.Lines = append(run.Lines, ln)
		kept++
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.IOError(fmt.Sprintf("reading %s", path), err)
	}

	log.Debug("run file loaded", "path", path, "kept", kept, "total", total, "top_k", topK)
	return run, nil
}

// loadConcurrency caps how many run files are parsed at once.
const loadConcurrency = 8

// LoadDir reads every run file in dir. Files are parsed concurrently
// but the returned runs are in file name order.
func LoadDir(dir string, topK int, log *logger.Logger) ([]*Run, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.IOError(fmt.Sprintf("listing %s", dir), err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	runs := make([]*Run, len(names))
	var g errgroup.Group
	g.SetLimit(loadConcurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			run, err := Load(filepath.Join(dir, name), topK, "", log)
			if err != nil {
				return err
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}
