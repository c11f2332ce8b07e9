package populate

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/cartools/car-y3/internal/outline"
	"github.com/cartools/car-y3/internal/page"
	"github.com/cartools/car-y3/internal/pkg/fileio"
	"github.com/cartools/car-y3/internal/pkg/logger"
	"github.com/cartools/car-y3/internal/runfile"
)

const outlineJSONL = `{"page_id":"tqa2:L_0001","page_name":"Photosynthesis","child_sections":[{"heading_id":"f1","heading":"Process"},{"heading_id":"f2","heading":"Uses"}]}
{"page_id":"tqa2:L_0002","page_name":"Erosion","child_sections":[{"heading_id":"f1","heading":"Causes"}]}
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	w, err := fileio.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}

func loadTestOutline(t *testing.T) *outline.Index {
	t.Helper()
	ix, err := outline.Load(writeTempFile(t, "outlines.jsonl", outlineJSONL), logger.Discard())
	if err != nil {
		t.Fatalf("outline.Load() error = %v", err)
	}
	return ix
}

func loadTestRun(t *testing.T, content string, topK int) *runfile.Run {
	t.Helper()
	run, err := runfile.Load(writeTempFile(t, "test.run", content), topK, "", logger.Discard())
	if err != nil {
		t.Fatalf("runfile.Load() error = %v", err)
	}
	return run
}

func pageIDs(pages []*page.Page) []string {
	ids := make([]string, 0, len(pages))
	for _, pg := range pages {
		ids = append(ids, pg.RunID+"/"+pg.Squid)
	}
	return ids
}

func TestFacetLevelPages(t *testing.T) {
	ix := loadTestOutline(t)
	run := loadTestRun(t, `tqa2:L_0001/f1 Q0 pA 1 9.0 run-x
tqa2:L_0001/f2 Q0 pB 1 8.0 run-x
tqa2:L_0001/f1 Q0 pC 2 7.0 run-x
tqa2:L_0002/f1 Q0 pD 1 6.0 run-x
enwiki:Other/f1 Q0 pE 1 5.0 run-x
`, 10)

	pages, err := FacetLevelPages(ix, []*runfile.Run{run}, 3, true, logger.Discard())
	if err != nil {
		t.Fatalf("FacetLevelPages() error = %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("pages = %v, want 2", pageIDs(pages))
	}

	first := pages[0]
	if first.Squid != "tqa2:L_0001" || first.RunID != "run-x" {
		t.Fatalf("first page = %s/%s", first.RunID, first.Squid)
	}
	ids := first.ParagraphIDs()
	want := []string{"pA", "pC", "pB"}
	if len(ids) != len(want) {
		t.Fatalf("paragraphs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("paragraphs = %v, want %v", ids, want)
			break
		}
	}

	if len(first.Origins) != 3 {
		t.Fatalf("origins = %d, want 3 (one per fed line)", len(first.Origins))
	}
	if first.Origins[0].SectionPath != "tqa2:L_0001/f1" {
		t.Errorf("origin section = %s", first.Origins[0].SectionPath)
	}
	if first.Origins[0].Rank == nil || *first.Origins[0].Rank != 1 {
		t.Errorf("origin rank = %v, want 1", first.Origins[0].Rank)
	}

	second := pages[1]
	if second.Squid != "tqa2:L_0002" {
		t.Errorf("second page = %s", second.Squid)
	}
}

func TestFacetLevelPages_UnknownQueriesIgnored(t *testing.T) {
	ix := loadTestOutline(t)
	run := loadTestRun(t, "enwiki:Other/f1 Q0 pE 1 5.0 run-x\n", 10)

	pages, err := FacetLevelPages(ix, []*runfile.Run{run}, 3, true, logger.Discard())
	if err != nil {
		t.Fatalf("FacetLevelPages() error = %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("pages = %v, want none for foreign queries", pageIDs(pages))
	}
}

func TestFacetLevelPages_SplitsByRunName(t *testing.T) {
	ix := loadTestOutline(t)
	run := loadTestRun(t, `tqa2:L_0001/f1 Q0 pA 1 9.0 run-b
tqa2:L_0001/f1 Q0 pB 1 8.0 run-a
`, 10)

	pages, err := FacetLevelPages(ix, []*runfile.Run{run}, 3, true, logger.Discard())
	if err != nil {
		t.Fatalf("FacetLevelPages() error = %v", err)
	}

	got := pageIDs(pages)
	want := []string{"run-a/tqa2:L_0001", "run-b/tqa2:L_0001"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("pages = %v, want %v sorted by run", got, want)
	}
}

func TestManager_Pages_DeterministicOrder(t *testing.T) {
	ix := loadTestOutline(t)
	m := NewManager(ix, logger.Discard())

	lines := []runfile.Line{
		{QueryID: "tqa2:L_0002/f1", ParaID: "p1", Rank: 1, Score: 2.0, RunName: "run-x"},
		{QueryID: "tqa2:L_0001/f1", ParaID: "p2", Rank: 1, Score: 1.0, RunName: "run-x"},
	}
	for _, ln := range lines {
		if err := m.Feed(ln); err != nil {
			t.Fatalf("Feed() error = %v", err)
		}
	}

	pages, err := m.Pages(5, true)
	if err != nil {
		t.Fatalf("Pages() error = %v", err)
	}

	got := pageIDs(pages)
	if got[0] != "run-x/tqa2:L_0001" || got[1] != "run-x/tqa2:L_0002" {
		t.Errorf("pages = %v, want squid order within run", got)
	}
}

func TestPageLevelPages(t *testing.T) {
	ix := loadTestOutline(t)
	run := loadTestRun(t, `tqa2:L_0001 Q0 pA 1 9.0 run-x
tqa2:L_0001 Q0 pB 2 8.0 run-x
tqa2:L_0001 Q0 pC 3 7.0 run-x
tqa2:L_0002 Q0 pD 1 6.0 run-x
enwiki:Other Q0 pE 1 5.0 run-x
`, 10)

	pages, err := PageLevelPages(ix, []*runfile.Run{run}, 2, logger.Discard())
	if err != nil {
		t.Fatalf("PageLevelPages() error = %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("pages = %v, want 2", pageIDs(pages))
	}

	first := pages[0]
	ids := first.ParagraphIDs()
	if len(ids) != 2 || ids[0] != "pA" || ids[1] != "pB" {
		t.Errorf("paragraphs = %v, want arrival order capped at 2", ids)
	}
	if len(first.Origins) != 2 {
		t.Errorf("origins = %d, want 2", len(first.Origins))
	}
	if first.Origins[0].SectionPath != "tqa2:L_0001" {
		t.Errorf("origin section = %s, want the squid itself", first.Origins[0].SectionPath)
	}
	if first.Title != "Photosynthesis" {
		t.Errorf("Title = %s, want Photosynthesis from outline", first.Title)
	}
	if len(first.QueryFacets) != 2 {
		t.Errorf("QueryFacets = %d, want outline facets restored", len(first.QueryFacets))
	}
}

func TestFillText(t *testing.T) {
	ix := loadTestOutline(t)
	run := loadTestRun(t, "tqa2:L_0001/f1 Q0 pA 1 9.0 run-x\n", 10)

	pages, err := FacetLevelPages(ix, []*runfile.Run{run}, 1, true, logger.Discard())
	if err != nil {
		t.Fatalf("FacetLevelPages() error = %v", err)
	}

	corpusPath := writeTempFile(t, "corpus.jsonl",
		`{"para_id":"pA","bodies":[{"text":"Sunlight feeds plants."}]}`+"\n")

	if err := FillText(pages, corpusPath, logger.Discard()); err != nil {
		t.Fatalf("FillText() error = %v", err)
	}

	if got := pages[0].Paragraphs[0].PlainText(); got != "Sunlight feeds plants." {
		t.Errorf("paragraph text = %q", got)
	}
}
