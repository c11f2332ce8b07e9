package page

import "testing"

func intPtr(v int) *int { return &v }

func TestFillMissingRanks(t *testing.T) {
	origins := []ParagraphOrigin{
		{ParaID: "a", SectionPath: "tqa2:L_0001/f1", RankScore: 0.5},
		{ParaID: "b", SectionPath: "tqa2:L_0001/f1", RankScore: 2.0},
		{ParaID: "c", SectionPath: "tqa2:L_0001/f2", RankScore: 9.0},
		{ParaID: "d", SectionPath: "tqa2:L_0001/f1", RankScore: 1.0},
	}

	FillMissingRanks(origins)

	wantRanks := map[string]int{"a": 3, "b": 1, "c": 1, "d": 2}
	for _, o := range origins {
		if o.Rank == nil {
			t.Fatalf("origin %s still has no rank", o.ParaID)
		}
		if *o.Rank != wantRanks[o.ParaID] {
			t.Errorf("rank of %s = %d, want %d", o.ParaID, *o.Rank, wantRanks[o.ParaID])
		}
	}
}

func TestFillMissingRanks_AllPresentUntouched(t *testing.T) {
	origins := []ParagraphOrigin{
		{ParaID: "a", SectionPath: "tqa2:L_0001/f1", RankScore: 0.5, Rank: intPtr(7)},
		{ParaID: "b", SectionPath: "tqa2:L_0001/f1", RankScore: 2.0, Rank: intPtr(9)},
	}

	FillMissingRanks(origins)

	if *origins[0].Rank != 7 || *origins[1].Rank != 9 {
		t.Errorf("ranks = %d, %d, want 7, 9 untouched", *origins[0].Rank, *origins[1].Rank)
	}
}

func TestFillMissingRanks_OneMissingRewritesGroup(t *testing.T) {
	origins := []ParagraphOrigin{
		{ParaID: "a", SectionPath: "tqa2:L_0001/f1", RankScore: 1.0, Rank: intPtr(42)},
		{ParaID: "b", SectionPath: "tqa2:L_0001/f1", RankScore: 3.0},
	}

	FillMissingRanks(origins)

	// Any missing rank triggers a consistent reassignment by score.
	if *origins[0].Rank != 2 {
		t.Errorf("rank of a = %d, want 2", *origins[0].Rank)
	}
	if *origins[1].Rank != 1 {
		t.Errorf("rank of b = %d, want 1", *origins[1].Rank)
	}
}

func TestFillMissingRanks_StableOnTies(t *testing.T) {
	origins := []ParagraphOrigin{
		{ParaID: "a", SectionPath: "tqa2:L_0001/f1", RankScore: 1.0},
		{ParaID: "b", SectionPath: "tqa2:L_0001/f1", RankScore: 1.0},
	}

	FillMissingRanks(origins)

	if *origins[0].Rank != 1 || *origins[1].Rank != 2 {
		t.Errorf("tie ranks = %d, %d, want 1, 2 in input order", *origins[0].Rank, *origins[1].Rank)
	}
}

func TestFillMissingRanks_Empty(t *testing.T) {
	FillMissingRanks(nil)
}
