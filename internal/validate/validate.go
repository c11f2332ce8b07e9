// Package validate checks populated pages against the submission rules:
// structural requirements on every page, stricter conventions for final
// submissions, origin consistency, outline coverage and paragraph
// cross-checks against the corpus.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/cartools/car-y3/internal/outline"
	"github.com/cartools/car-y3/internal/page"
	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
)

// Severity classifies an issue as a must-fix error or a should-fix
// warning. Warnings never affect the exit code.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is a single finding for a page or a paragraph of a submission.
// Exactly one of Squid and ParaID is set, naming the scope.
type Issue struct {
	Severity Severity
	Squid    string
	ParaID   string
	Message  string
}

// Policy controls which rule sets run and how strictly.
type Policy struct {
	// TopK is the paragraph budget per page and per heading.
	TopK int

	// StrictY3 enables the submission-grade checks: squid namespace,
	// run id format and the paragraph count budget.
	StrictY3 bool

	// RequireOrigins makes paragraph_origins mandatory instead of
	// optional-but-correct.
	RequireOrigins bool

	// SquidNamespace is the required page id prefix under StrictY3.
	SquidNamespace string

	// RunIDMaxLen bounds the run id length under StrictY3.
	RunIDMaxLen int

	// FailFast aborts on the first error-severity issue.
	FailFast bool
}

// DefaultPolicy returns the policy used for final submission checks.
func DefaultPolicy() Policy {
	return Policy{
		TopK:           20,
		SquidNamespace: "tqa2:",
		RunIDMaxLen:    15,
	}
}

// Validator applies the rule sets to pages of one submission file.
type Validator struct {
	index  *outline.Index
	policy Policy
}

// New returns a validator for the given outline and policy.
func New(index *outline.Index, policy Policy) *Validator {
	return &Validator{index: index, policy: policy}
}

// CheckPage validates one decoded page and records findings in the
// report. Under FailFast the first error-severity issue is also returned
// as an error.
func (v *Validator) CheckPage(rep *Report, pg *page.Page) error {
	var issues []Issue
	issues = append(issues, v.checkMinimal(pg)...)
	issues = append(issues, v.checkOrigins(pg)...)
	if v.policy.StrictY3 {
		issues = append(issues, v.checkStrictY3(pg)...)
	}

	for _, iss := range issues {
		rep.addPage(pg.Squid, iss)
	}
	if len(issues) > 0 {
		rep.keepPageJSON(pg)
	}

	if v.policy.FailFast {
		for _, iss := range issues {
			if iss.Severity == SeverityError {
				return apperrors.ValidationError(iss.Message)
			}
		}
	}
	return nil
}

// checkMinimal enforces the baseline requirements every page must meet
// regardless of strictness: non-empty ascii ids, a non-empty paragraph
// list and well-formed paragraph ids.
func (v *Validator) checkMinimal(pg *page.Page) []Issue {
	var issues []Issue
	add := func(msg string) {
		issues = append(issues, Issue{Severity: SeverityError, Squid: pg.Squid, Message: msg})
	}

	if !validID(pg.Squid) {
		add(fmt.Sprintf("page squid %q must be a non-empty ascii string", pg.Squid))
	}
	if !validID(pg.RunID) {
		add(fmt.Sprintf("run id %q must be a non-empty ascii string", pg.RunID))
	}
	if pg.Title == "" {
		add("page title must not be empty")
	}

	if len(pg.Paragraphs) == 0 {
		add("paragraphs must be a non-empty list")
	}
	for _, para := range pg.Paragraphs {
		if !validParaID(para.ID) {
			add(fmt.Sprintf("paragraph id %q must be a 40 character hexadecimal string", para.ID))
		}
		if para.Body != nil && len(para.Body) == 0 {
			add(fmt.Sprintf("paragraph %s has an empty para_body, the field must be omitted instead", para.ID))
		}
	}
	return issues
}

// checkOrigins enforces the paragraph_origins rules. Origins are
// optional unless the policy requires them, but when present they must
// be complete and consistent.
func (v *Validator) checkOrigins(pg *page.Page) []Issue {
	var issues []Issue
	add := func(sev Severity, msg string) {
		issues = append(issues, Issue{Severity: sev, Squid: pg.Squid, Message: msg})
	}

	if pg.Origins == nil {
		if v.policy.RequireOrigins {
			add(SeverityError, "paragraph_origins are required but missing")
		}
		return issues
	}
	if len(pg.Origins) == 0 {
		add(SeverityError, "paragraph_origins is an empty list, the field must be omitted instead")
		return issues
	}

	proto, inOutline := v.index.BySquid(pg.Squid)

	perSection := make(map[string][]page.ParagraphOrigin)
	var sections []string
	for _, o := range pg.Origins {
		if !validParaID(o.ParaID) {
			add(SeverityError, fmt.Sprintf("origin paragraph id %q must be a 40 character hexadecimal string", o.ParaID))
		}
		if !validID(o.SectionPath) {
			add(SeverityError, fmt.Sprintf("origin section path %q must be a non-empty ascii string", o.SectionPath))
		} else if inOutline && !proto.HasFacet(o.SectionPath) {
			add(SeverityError, fmt.Sprintf("origin section path %q is not a heading of page %s", o.SectionPath, pg.Squid))
		}
		if math.IsNaN(o.RankScore) || math.IsInf(o.RankScore, 0) {
			add(SeverityError, fmt.Sprintf("origin rank_score for paragraph %s must be a finite number", o.ParaID))
		}
		if _, seen := perSection[o.SectionPath]; !seen {
			sections = append(sections, o.SectionPath)
		}
		perSection[o.SectionPath] = append(perSection[o.SectionPath], o)
	}

	for _, section := range sections {
		issues = append(issues, v.checkSectionOrigins(pg.Squid, section, perSection[section])...)
	}
	return issues
}

// checkSectionOrigins checks the origins of one heading: the per-heading
// budget and the rank rules. Ranks are optional per origin, but every
// rank given must be at least 1, unique within the heading and ordered
// the same way as the descending rank scores.
func (v *Validator) checkSectionOrigins(squid, section string, origins []page.ParagraphOrigin) []Issue {
	var issues []Issue
	add := func(sev Severity, msg string) {
		issues = append(issues, Issue{Severity: sev, Squid: squid, Message: msg})
	}

	if n := len(origins); n > v.policy.TopK {
		add(SeverityError, fmt.Sprintf("heading %s has %d origins, at most %d are allowed", section, n, v.policy.TopK))
	} else if n < v.policy.TopK {
		add(SeverityWarning, fmt.Sprintf("heading %s has %d origins, exactly %d are encouraged", section, n, v.policy.TopK))
	}

	var ranked []page.ParagraphOrigin
	seen := make(map[int]bool)
	for _, o := range origins {
		if o.Rank == nil {
			continue
		}
		r := *o.Rank
		if r < 1 {
			add(SeverityError, fmt.Sprintf("origin rank %d for paragraph %s is below 1, the highest rank is 1", r, o.ParaID))
			continue
		}
		if seen[r] {
			add(SeverityError, fmt.Sprintf("origin rank %d appears more than once for heading %s, ranks must be unique", r, section))
			continue
		}
		seen[r] = true
		ranked = append(ranked, o)
	}

	sort.Slice(ranked, func(i, j int) bool { return *ranked[i].Rank < *ranked[j].Rank })
	for i := 1; i < len(ranked); i++ {
		if ranked[i].RankScore > ranked[i-1].RankScore {
			add(SeverityError, fmt.Sprintf("origin ranks for heading %s disagree with the rank_score order", section))
			break
		}
	}
	return issues
}

// checkStrictY3 enforces the final submission conventions: the squid
// namespace, the run id format and the paragraph count budget.
func (v *Validator) checkStrictY3(pg *page.Page) []Issue {
	var issues []Issue
	add := func(sev Severity, msg string) {
		issues = append(issues, Issue{Severity: sev, Squid: pg.Squid, Message: msg})
	}

	if !strings.HasPrefix(pg.Squid, v.policy.SquidNamespace) {
		add(SeverityError, fmt.Sprintf("page squid %q must start with the namespace %q", pg.Squid, v.policy.SquidNamespace))
	}
	if strings.Contains(pg.Squid, "%20") {
		add(SeverityError, fmt.Sprintf("page squid %q must not contain %%20, encoded ids are not valid here", pg.Squid))
	}
	if err := CheckRunID(pg.RunID, v.policy.RunIDMaxLen); err != nil {
		add(SeverityError, err.Error())
	}

	if n := len(pg.Paragraphs); n > v.policy.TopK {
		add(SeverityError, fmt.Sprintf("page has %d paragraphs, at most %d are allowed", n, v.policy.TopK))
	} else if n < v.policy.TopK {
		add(SeverityWarning, fmt.Sprintf("page has %d paragraphs, exactly %d are encouraged", n, v.policy.TopK))
	}
	return issues
}

// CheckCoverage compares the submitted squids against the outline: both
// a submitted page the outline does not list and an outline page the
// submission omits are errors.
func (v *Validator) CheckCoverage(rep *Report, found map[string]*page.Page) {
	extra := make([]string, 0, len(found))
	for squid := range found {
		if _, ok := v.index.BySquid(squid); !ok {
			extra = append(extra, squid)
		}
	}
	sort.Strings(extra)
	for _, squid := range extra {
		rep.addPage(squid, Issue{
			Severity: SeverityError,
			Squid:    squid,
			Message:  fmt.Sprintf("Page with %s not in the outline file and therefore must not be submitted.", squid),
		})
		rep.keepPageJSON(found[squid])
	}

	for _, squid := range v.index.Squids() {
		if _, ok := found[squid]; !ok {
			rep.addPage(squid, Issue{
				Severity: SeverityError,
				Squid:    squid,
				Message:  fmt.Sprintf("Page with %s is missing, but is contained in the outline file. Page with this squid must be submitted.", squid),
			})
		}
	}
}

// CheckRunID reports why a run id is not acceptable for a submission, or
// nil when it is. Run ids carry at most maxLen characters drawn from
// letters, digits and "_-.", and must not start with a dot.
func CheckRunID(id string, maxLen int) error {
	if id == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if len(id) > maxLen {
		return fmt.Errorf("run id %q has %d characters, at most %d are allowed", id, len(id), maxLen)
	}
	if id[0] == '.' {
		return fmt.Errorf("run id %q must not start with a dot", id)
	}
	for _, r := range id {
		if r > unicode.MaxASCII || (!isAlnum(byte(r)) && r != '_' && r != '-' && r != '.') {
			return fmt.Errorf("run id %q may only contain letters, digits and \"_-.\"", id)
		}
	}
	return nil
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// validID reports whether s is a non-empty ascii string.
func validID(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// validParaID reports whether s is a 40 character lowercase hex string,
// the shape of every corpus paragraph id.
func validParaID(s string) bool {
	if len(s) != 40 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func marshalCompact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
