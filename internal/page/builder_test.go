package page

import (
	"bytes"
	"strings"
	"testing"

	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/logger"
)

func testPrototype(t *testing.T, squid string, headings ...string) *Prototype {
	t.Helper()
	facets := make([]QueryFacet, 0, len(headings))
	for _, h := range headings {
		facets = append(facets, QueryFacet{Heading: h, ID: squid + "/" + h})
	}
	proto, err := NewPrototype(squid, "Title of "+squid, facets)
	if err != nil {
		t.Fatalf("NewPrototype() error = %v", err)
	}
	return proto
}

func feedCandidates(t *testing.T, b *Builder, facetID string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := b.AddCandidate(facetID, NewParagraph(id)); err != nil {
			t.Fatalf("AddCandidate(%s, %s) error = %v", facetID, id, err)
		}
	}
}

func paragraphIDs(p *Page) []string {
	ids := make([]string, 0, len(p.Paragraphs))
	for _, para := range p.Paragraphs {
		ids = append(ids, para.ID)
	}
	return ids
}

func assertOrder(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("paragraphs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("paragraphs = %v, want %v", got, want)
		}
	}
}

func TestBuilder_Merge_RemoveDuplicates(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1", "f2")
	b := NewBuilder(proto, "run-1", logger.Discard())

	feedCandidates(t, b, "tqa2:L_0001/f1", "A", "B", "C")
	feedCandidates(t, b, "tqa2:L_0001/f2", "B", "D")

	page, err := b.Merge(3, true)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	// Round robin picks A, B, then rejects the duplicate B from f1 without
	// spending budget and takes D from f2. Placement stays grouped by
	// facet in outline order.
	assertOrder(t, paragraphIDs(page), []string{"A", "B", "D"})
}

func TestBuilder_Merge_KeepDuplicates(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1", "f2")

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "warn", "text")
	b := NewBuilder(proto, "run-1", log)

	feedCandidates(t, b, "tqa2:L_0001/f1", "A", "B")
	feedCandidates(t, b, "tqa2:L_0001/f2", "B")

	page, err := b.Merge(4, false)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	// With duplicates allowed the repeated B counts against the budget
	// and appears twice.
	assertOrder(t, paragraphIDs(page), []string{"A", "B", "B"})

	if !strings.Contains(buf.String(), "under-filled") {
		t.Errorf("expected under-fill warning, log output: %s", buf.String())
	}
}

func TestBuilder_Merge_PlacementGroupsByFacet(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1", "f2", "f3")
	b := NewBuilder(proto, "run-1", logger.Discard())

	feedCandidates(t, b, "tqa2:L_0001/f1", "a", "b")
	feedCandidates(t, b, "tqa2:L_0001/f2", "c")
	feedCandidates(t, b, "tqa2:L_0001/f3", "d", "e")

	page, err := b.Merge(5, true)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	// Selection order is a, c, d, b, e but the page concatenates the
	// per-facet picks in outline order.
	assertOrder(t, paragraphIDs(page), []string{"a", "b", "c", "d", "e"})
}

func TestBuilder_Merge_DuplicateDoesNotSpendBudget(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1")
	b := NewBuilder(proto, "run-1", logger.Discard())

	feedCandidates(t, b, "tqa2:L_0001/f1", "A", "A", "B")

	page, err := b.Merge(2, true)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	assertOrder(t, paragraphIDs(page), []string{"A", "B"})
}

func TestBuilder_Merge_BudgetCutsQueue(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1", "f2")
	b := NewBuilder(proto, "run-1", logger.Discard())

	feedCandidates(t, b, "tqa2:L_0001/f1", "a", "b", "c", "d")
	feedCandidates(t, b, "tqa2:L_0001/f2", "x", "y", "z")

	page, err := b.Merge(4, true)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	assertOrder(t, paragraphIDs(page), []string{"a", "b", "x", "y"})
}

func TestBuilder_Merge_UnderFillWarns(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1", "f2")

	var buf bytes.Buffer
	b := NewBuilder(proto, "run-1", logger.NewWithWriter(&buf, "warn", "text"))

	feedCandidates(t, b, "tqa2:L_0001/f1", "A")

	page, err := b.Merge(5, true)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	assertOrder(t, paragraphIDs(page), []string{"A"})

	if !strings.Contains(buf.String(), "under-filled") {
		t.Errorf("expected under-fill warning, log output: %s", buf.String())
	}
}

func TestBuilder_Merge_ZeroSelectionWarns(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1")

	var buf bytes.Buffer
	b := NewBuilder(proto, "run-1", logger.NewWithWriter(&buf, "warn", "text"))

	// Candidates for a facet the outline does not list are never picked.
	feedCandidates(t, b, "tqa2:L_0001/unlisted", "A", "B")

	page, err := b.Merge(3, true)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(page.Paragraphs) != 0 {
		t.Errorf("Paragraphs = %v, want none", paragraphIDs(page))
	}

	if !strings.Contains(buf.String(), "no paragraphs selected") {
		t.Errorf("expected zero-selection warning, log output: %s", buf.String())
	}
}

func TestBuilder_Merge_NoCandidates(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1")
	b := NewBuilder(proto, "run-1", logger.Discard())

	if _, err := b.Merge(5, true); !apperrors.IsInvariant(err) {
		t.Errorf("Merge() with no candidates error = %v, want invariant error", err)
	}
}

func TestBuilder_Merge_Twice(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1")
	b := NewBuilder(proto, "run-1", logger.Discard())
	feedCandidates(t, b, "tqa2:L_0001/f1", "A")

	if _, err := b.Merge(1, true); err != nil {
		t.Fatalf("first Merge() error = %v", err)
	}
	if _, err := b.Merge(1, true); !apperrors.IsInvariant(err) {
		t.Errorf("second Merge() error = %v, want invariant error", err)
	}
	if err := b.AddCandidate("tqa2:L_0001/f1", NewParagraph("B")); !apperrors.IsInvariant(err) {
		t.Errorf("AddCandidate() after merge error = %v, want invariant error", err)
	}
}

func TestBuilder_Merge_NonPositiveBudget(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1")
	b := NewBuilder(proto, "run-1", logger.Discard())
	feedCandidates(t, b, "tqa2:L_0001/f1", "A")

	if _, err := b.Merge(0, true); !apperrors.IsUsage(err) {
		t.Errorf("Merge(0) error = %v, want usage error", err)
	}
}

func TestBuilder_AddCandidate_WrongPage(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1")
	b := NewBuilder(proto, "run-1", logger.Discard())

	err := b.AddCandidate("tqa2:L_0002/f1", NewParagraph("A"))
	if !apperrors.IsInvariant(err) {
		t.Errorf("AddCandidate(foreign facet) error = %v, want invariant error", err)
	}
}

func TestBuilder_AddOrigin_WrongPage(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1")
	b := NewBuilder(proto, "run-1", logger.Discard())

	err := b.AddOrigin(ParagraphOrigin{ParaID: "A", SectionPath: "tqa2:L_0002/f1", RankScore: 1.0})
	if !apperrors.IsInvariant(err) {
		t.Errorf("AddOrigin(foreign section) error = %v, want invariant error", err)
	}
}

func TestBuilder_Merge_CarriesOrigins(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1")
	b := NewBuilder(proto, "run-1", logger.Discard())

	feedCandidates(t, b, "tqa2:L_0001/f1", "A")
	rank := 1
	origin := ParagraphOrigin{ParaID: "A", SectionPath: "tqa2:L_0001/f1", RankScore: 12.5, Rank: &rank}
	if err := b.AddOrigin(origin); err != nil {
		t.Fatalf("AddOrigin() error = %v", err)
	}

	page, err := b.Merge(1, true)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if len(page.Origins) != 1 {
		t.Fatalf("Origins = %d entries, want 1", len(page.Origins))
	}
	got := page.Origins[0]
	if got.ParaID != "A" || got.SectionPath != "tqa2:L_0001/f1" || got.RankScore != 12.5 {
		t.Errorf("origin = %+v, want the one added", got)
	}
	if got.Rank == nil || *got.Rank != 1 {
		t.Errorf("origin rank = %v, want 1", got.Rank)
	}
}

func TestBuilder_Merge_NoOriginsStaysAbsent(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1")
	b := NewBuilder(proto, "run-1", logger.Discard())
	feedCandidates(t, b, "tqa2:L_0001/f1", "A")

	page, err := b.Merge(1, true)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if page.Origins != nil {
		t.Errorf("Origins = %v, want nil", page.Origins)
	}
}

func TestBuilder_Merge_PageMetadata(t *testing.T) {
	proto := testPrototype(t, "tqa2:L_0001", "f1", "f2")
	b := NewBuilder(proto, "indri-raw", logger.Discard())
	feedCandidates(t, b, "tqa2:L_0001/f2", "A")

	page, err := b.Merge(1, true)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if page.Squid != "tqa2:L_0001" {
		t.Errorf("Squid = %s, want tqa2:L_0001", page.Squid)
	}
	if page.RunID != "indri-raw" {
		t.Errorf("RunID = %s, want indri-raw", page.RunID)
	}
	if page.Title != "Title of tqa2:L_0001" {
		t.Errorf("Title = %s, want Title of tqa2:L_0001", page.Title)
	}
	if len(page.QueryFacets) != 2 {
		t.Fatalf("QueryFacets = %d, want 2", len(page.QueryFacets))
	}
	if page.QueryFacets[0].ID != "tqa2:L_0001/f1" {
		t.Errorf("facet id = %s, want tqa2:L_0001/f1", page.QueryFacets[0].ID)
	}
}
