package corpus

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/cartools/car-y3/internal/page"
	"github.com/cartools/car-y3/internal/pkg/fileio"
	"github.com/cartools/car-y3/internal/pkg/logger"
)

const corpusJSONL = `{"para_id":"p1","bodies":[{"text":"Plants "},{"anchor_text":"use light","target_page_id":"enwiki:Light","target_page_title":"Light"}]}
{"para_id":"p2","bodies":[{"text":"Water flows."}]}
{"para_id":"p3","bodies":[{"text":"Wind blows."}]}
`

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
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

func TestFiller_Fill(t *testing.T) {
	path := writeCorpus(t, corpusJSONL)

	first := page.NewParagraph("p1")
	second := page.NewParagraph("p1")
	other := page.NewParagraph("p2")

	f := NewFiller(logger.Discard())
	f.Register(first)
	f.Register(second)
	f.Register(other)

	if f.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 distinct ids", f.Len())
	}

	if err := f.Fill(path); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	// Every registered instance of the same id gets the body.
	for i, inst := range []*page.Paragraph{first, second} {
		if len(inst.Body) != 2 {
			t.Fatalf("instance %d body = %d spans, want 2", i, len(inst.Body))
		}
		if !inst.Body[0].Equal(page.TextBody{Text: "Plants "}) {
			t.Errorf("instance %d span 0 = %+v", i, inst.Body[0])
		}
		link := page.LinkBody{Text: "use light", Entity: "enwiki:Light", EntityName: "Light"}
		if !inst.Body[1].Equal(link) {
			t.Errorf("instance %d span 1 = %+v", i, inst.Body[1])
		}
	}

	if other.PlainText() != "Water flows." {
		t.Errorf("other instance text = %q, want %q", other.PlainText(), "Water flows.")
	}
}

func TestFiller_Fill_MissingIDStaysUnpopulated(t *testing.T) {
	path := writeCorpus(t, corpusJSONL)

	missing := page.NewParagraph("zzz")
	present := page.NewParagraph("p2")

	f := NewFiller(logger.Discard())
	f.Register(missing)
	f.Register(present)

	if err := f.Fill(path); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	if missing.Populated() {
		t.Error("paragraph absent from corpus was populated")
	}
	if !present.Populated() {
		t.Error("paragraph present in corpus stayed unpopulated")
	}
}

func TestFiller_Fill_EmptyRegistry(t *testing.T) {
	f := NewFiller(logger.Discard())
	if err := f.Fill(filepath.Join(t.TempDir(), "nonexistent.jsonl")); err != nil {
		t.Fatalf("Fill() with empty registry error = %v, want nil without touching the corpus", err)
	}
}

func TestFiller_RegisterPage(t *testing.T) {
	path := writeCorpus(t, corpusJSONL)

	pg := &page.Page{
		Squid:      "tqa2:L_0001",
		RunID:      "run-1",
		Paragraphs: []*page.Paragraph{page.NewParagraph("p2"), page.NewParagraph("p3")},
	}

	f := NewFiller(logger.Discard())
	f.RegisterPage(pg)
	if err := f.Fill(path); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	if pg.Paragraphs[0].PlainText() != "Water flows." {
		t.Errorf("paragraph 0 text = %q", pg.Paragraphs[0].PlainText())
	}
	if pg.Paragraphs[1].PlainText() != "Wind blows." {
		t.Errorf("paragraph 1 text = %q", pg.Paragraphs[1].PlainText())
	}
}

func TestReferenceBodies(t *testing.T) {
	path := writeCorpus(t, corpusJSONL)

	ref, err := ReferenceBodies(path, map[string]struct{}{"p1": {}, "p3": {}}, logger.Discard())
	if err != nil {
		t.Fatalf("ReferenceBodies() error = %v", err)
	}

	if len(ref) != 2 {
		t.Fatalf("ReferenceBodies() = %d entries, want 2", len(ref))
	}
	if len(ref["p1"]) != 2 {
		t.Errorf("p1 = %d spans, want 2", len(ref["p1"]))
	}
	if !ref["p3"][0].Equal(page.TextBody{Text: "Wind blows."}) {
		t.Errorf("p3 span = %+v", ref["p3"][0])
	}
	if _, ok := ref["p2"]; ok {
		t.Error("unrequested id present in reference map")
	}
}

func TestReferenceBodies_NoIDs(t *testing.T) {
	ref, err := ReferenceBodies(filepath.Join(t.TempDir(), "nonexistent.jsonl"), nil, logger.Discard())
	if err != nil {
		t.Fatalf("ReferenceBodies() error = %v", err)
	}
	if len(ref) != 0 {
		t.Errorf("ReferenceBodies() = %v, want empty", ref)
	}
}

func TestWriteIDList_LoadIDSet(t *testing.T) {
	corpusPath := writeCorpus(t, corpusJSONL+`{"para_id":"p1","bodies":[{"text":"dup"}]}`+"\n")
	outPath := filepath.Join(t.TempDir(), "ids.txt.gz")

	n, err := WriteIDList(corpusPath, outPath)
	if err != nil {
		t.Fatalf("WriteIDList() error = %v", err)
	}
	if n != 3 {
		t.Errorf("WriteIDList() = %d ids, want 3 distinct", n)
	}

	ids, err := LoadIDSet(outPath)
	if err != nil {
		t.Fatalf("LoadIDSet() error = %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("LoadIDSet() = %d ids, want 3", len(ids))
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if _, ok := ids[id]; !ok {
			t.Errorf("LoadIDSet() missing %s", id)
		}
	}
}
