package corpus

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"github.com/cartools/car-y3/internal/carfile"
	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/fileio"
)

// WriteIDList extracts the distinct paragraph ids of the corpus and
// writes them sorted, one per line, to outPath. Returns the id count.
func WriteIDList(corpusPath, outPath string) (int, error) {
	seen := make(map[string]struct{})
	err := carfile.ReadParagraphs(corpusPath, func(rec carfile.ParagraphRecord) error {
		seen[rec.ParaID] = struct{}{}
		return nil
	})
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w, err := fileio.Create(outPath)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := fmt.Fprintln(w, id); err != nil {
			w.Close()
			return 0, apperrors.IOError(fmt.Sprintf("writing %s", outPath), err)
		}
	}
	if err := w.Close(); err != nil {
		return 0, apperrors.IOError(fmt.Sprintf("closing %s", outPath), err)
	}
	return len(ids), nil
}

// LoadIDSet reads a paragraph id list written by WriteIDList.
func LoadIDSet(path string) (map[string]struct{}, error) {
	f, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		ids[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.IOError(fmt.Sprintf("reading %s", path), err)
	}
	return ids, nil
}
