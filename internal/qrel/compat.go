package qrel

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/fileio"
)

// CompatEntry maps one older benchmark section id to its current id.
type CompatEntry struct {
	SectionID   string   `json:"sectionId"`
	Y2SectionID string   `json:"y2SectionId"`
	Y2PageTitle string   `json:"y2PageTitle"`
	Y2Heading   string   `json:"y2Heading"`
	PageTitle   string   `json:"pageTitle"`
	Headings    string   `json:"headings"`
	Keywords    []string `json:"keywords"`
}

// LoadCompat reads a compat file, a single JSON array of entries.
func LoadCompat(path string) ([]CompatEntry, error) {
	f, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []CompatEntry
	if err := json.NewDecoder(f).Decode(&entries); err != nil {
		return nil, apperrors.FormatError(fmt.Sprintf("decoding compat file %s", path), err)
	}
	return entries, nil
}

// CompatMap builds the old-to-new section id translation from compat
// entries, for use with Load.
func CompatMap(entries []CompatEntry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Y2SectionID] = e.SectionID
	}
	return m
}
