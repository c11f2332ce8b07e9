// Package submission reads and writes populated pages as JSON lines, one
// page per line, grouped into one file per run.
package submission

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cartools/car-y3/internal/page"
	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/fileio"
	"github.com/cartools/car-y3/internal/pkg/logger"
)

// ParseError describes one undecodable line of a submission file. Squid
// is filled on a best effort basis so the offending page can be named,
// and Raw keeps the line itself for display.
type ParseError struct {
	Path  string
	Line  int
	Squid string
	Raw   string
	Err   error
}

func (e ParseError) Error() string {
	if e.Squid != "" {
		return fmt.Sprintf("%s line %d (page %s): %v", e.Path, e.Line, e.Squid, e.Err)
	}
	return fmt.Sprintf("%s line %d: %v", e.Path, e.Line, e.Err)
}

func (e ParseError) Unwrap() error { return e.Err }

// Write encodes pages one per line to w.
func Write(w io.Writer, pages []*page.Page) error {
	enc := json.NewEncoder(w)
	for _, pg := range pages {
		if err := enc.Encode(pg); err != nil {
			return apperrors.InternalError(fmt.Sprintf("encoding page %s", pg.Squid), err)
		}
	}
	return nil
}

// WriteFile writes pages to a single JSON lines file.
func WriteFile(path string, pages []*page.Page) error {
	w, err := fileio.Create(path)
	if err != nil {
		return err
	}
	if err := Write(w, pages); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return apperrors.IOError(fmt.Sprintf("closing %s", path), err)
	}
	return nil
}

// WriteByRun splits pages by run id and writes one file per run into
// dir, named <run id>.jsonl plus the compression extension. Returns the
// written paths in run id order.
func WriteByRun(dir string, pages []*page.Page, compression string, log *logger.Logger) ([]string, error) {
	ext, err := fileio.Ext(compression)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.IOError(fmt.Sprintf("creating %s", dir), err)
	}

	byRun := make(map[string][]*page.Page)
	for _, pg := range pages {
		byRun[pg.RunID] = append(byRun[pg.RunID], pg)
	}

	runIDs := make([]string, 0, len(byRun))
	for runID := range byRun {
		runIDs = append(runIDs, runID)
	}
	sort.Strings(runIDs)

	paths := make([]string, 0, len(runIDs))
	for _, runID := range runIDs {
		path := filepath.Join(dir, runID+".jsonl"+ext)
		if err := WriteFile(path, byRun[runID]); err != nil {
			return nil, err
		}
		log.Info("submission file written", "path", path, "run_id", runID, "pages", len(byRun[runID]))
		paths = append(paths, path)
	}
	return paths, nil
}

// Read decodes pages from r. Lines that fail to decode are collected as
// parse errors rather than aborting, unless failFast is set, in which
// case reading stops at the first bad line.
func Read(r io.Reader, path string, failFast bool) ([]*page.Page, []ParseError) {
	var pages []*page.Page
	var parseErrs []ParseError

	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		raw, err := br.ReadBytes('\n')
		line := strings.TrimSpace(string(raw))
		if line != "" {
			var pg page.Page
			if jerr := json.Unmarshal([]byte(line), &pg); jerr != nil {
				parseErrs = append(parseErrs, ParseError{
					Path:  path,
					Line:  lineNo,
					Squid: probeSquid(line),
					Raw:   line,
					Err:   jerr,
				})
				if failFast {
					return pages, parseErrs
				}
			} else {
				pages = append(pages, &pg)
			}
		}
		if err != nil {
			break
		}
	}
	return pages, parseErrs
}

// ReadFile decodes a submission file. The error return covers opening
// and reading the file; per-line decode failures come back as parse
// errors.
func ReadFile(path string, failFast bool) ([]*page.Page, []ParseError, error) {
	f, err := fileio.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	pages, parseErrs := Read(f, path, failFast)
	return pages, parseErrs, nil
}

// FileResult is the outcome of reading one submission file of a
// directory.
type FileResult struct {
	Path   string
	Pages  []*page.Page
	Errors []ParseError
}

// ReadDir reads every submission file in dir, recognized by a .jsonl
// extension before any compression extension, in file name order.
func ReadDir(dir string, failFast bool) ([]FileResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.IOError(fmt.Sprintf("listing %s", dir), err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(fileio.StripCompression(e.Name()), ".jsonl") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	results := make([]FileResult, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		pages, parseErrs, err := ReadFile(path, failFast)
		if err != nil {
			return nil, err
		}
		results = append(results, FileResult{Path: path, Pages: pages, Errors: parseErrs})
	}
	return results, nil
}

// probeSquid pulls the squid out of an undecodable page line when the
// line is still JSON enough to carry one.
func probeSquid(line string) string {
	var probe struct {
		Squid string `json:"squid"`
	}
	if err := json.Unmarshal([]byte(line), &probe); err != nil {
		return ""
	}
	return probe.Squid
}
