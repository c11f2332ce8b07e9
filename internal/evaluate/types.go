package evaluate

// PageScore is one metric value for one submitted page.
type PageScore struct {
	Squid  string  `json:"squid"`
	RunID  string  `json:"run_id"`
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
}

// Summary aggregates one metric over all pages of one run.
type Summary struct {
	RunID  string  `json:"run_id"`
	Metric string  `json:"metric"`
	Mean   float64 `json:"mean"`
	StdErr float64 `json:"stderr"`
	Pages  int     `json:"pages"` // pages that contributed scores
}

// facetRel is one judgment attached to a paragraph: the facet and its
// graded relevance there.
type facetRel struct {
	facetID   string
	relevance int
}

// pageJudgments holds the ground truth gathered for one outline page:
// the judged facets per paragraph and the gold article positions per
// paragraph.
type pageJudgments struct {
	facets    map[string][]facetRel
	positions map[string][]int
}

func newPageJudgments() *pageJudgments {
	return &pageJudgments{
		facets:    make(map[string][]facetRel),
		positions: make(map[string][]int),
	}
}
