package validate

import (
	"fmt"
	"io"

	"github.com/cartools/car-y3/internal/page"
	"github.com/cartools/car-y3/internal/submission"
)

// Report collects the findings for one submission file: per-page issues,
// per-paragraph issues and the lines that did not decode at all.
type Report struct {
	// File names the input the report covers.
	File string

	parse     []submission.ParseError
	pages     map[string][]Issue
	pageOrder []string
	paras     map[string][]Issue
	paraOrder []string
	pageJSON  map[string]string
	paraJSON  map[string]string
}

// NewReport returns an empty report for the named input file.
func NewReport(file string) *Report {
	return &Report{
		File:     file,
		pages:    make(map[string][]Issue),
		paras:    make(map[string][]Issue),
		pageJSON: make(map[string]string),
		paraJSON: make(map[string]string),
	}
}

// AddParseErrors records lines that could not be decoded.
func (r *Report) AddParseErrors(errs ...submission.ParseError) {
	r.parse = append(r.parse, errs...)
}

func (r *Report) addPage(squid string, iss Issue) {
	if _, ok := r.pages[squid]; !ok {
		r.pageOrder = append(r.pageOrder, squid)
	}
	r.pages[squid] = append(r.pages[squid], iss)
}

func (r *Report) addParagraph(pid string, iss Issue) {
	if _, ok := r.paras[pid]; !ok {
		r.paraOrder = append(r.paraOrder, pid)
	}
	r.paras[pid] = append(r.paras[pid], iss)
}

func (r *Report) keepPageJSON(pg *page.Page) {
	if pg == nil || r.pageJSON[pg.Squid] != "" {
		return
	}
	r.pageJSON[pg.Squid] = marshalCompact(pg)
}

func (r *Report) keepParaJSON(para *page.Paragraph) {
	if para == nil || r.paraJSON[para.ID] != "" {
		return
	}
	r.paraJSON[para.ID] = marshalCompact(para)
}

// Issues returns all findings, pages first, in insertion order.
func (r *Report) Issues() []Issue {
	var all []Issue
	for _, squid := range r.pageOrder {
		all = append(all, r.pages[squid]...)
	}
	for _, pid := range r.paraOrder {
		all = append(all, r.paras[pid]...)
	}
	return all
}

// PageIssues returns the findings recorded for one page.
func (r *Report) PageIssues(squid string) []Issue {
	return r.pages[squid]
}

// ParagraphIssues returns the findings recorded for one paragraph.
func (r *Report) ParagraphIssues(pid string) []Issue {
	return r.paras[pid]
}

// HasErrors reports whether the report contains a parse error or an
// error-severity issue. Warnings alone do not count.
func (r *Report) HasErrors() bool {
	if len(r.parse) > 0 {
		return true
	}
	for _, iss := range r.Issues() {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Empty reports whether the file passed with no findings at all,
// warnings included.
func (r *Report) Empty() bool {
	return len(r.parse) == 0 && len(r.pages) == 0 && len(r.paras) == 0
}

// Print writes the report grouped by page then paragraph. With withJSON
// the offending document is printed after each group.
func (r *Report) Print(w io.Writer, withJSON bool) {
	if r.Empty() {
		return
	}
	fmt.Fprintf(w, "Validation issues for input file %q\n", r.File)

	for _, perr := range r.parse {
		squid := perr.Squid
		if squid == "" {
			squid = "(unknown)"
		}
		fmt.Fprintf(w, "\nJSON format issues for page %s:\n", squid)
		fmt.Fprintf(w, "  %v\n", perr)
		if withJSON && perr.Raw != "" {
			fmt.Fprintf(w, "  %s\n", perr.Raw)
		}
	}

	for _, squid := range r.pageOrder {
		fmt.Fprintf(w, "\nValidation issues for page %s:\n", squid)
		for _, iss := range r.pages[squid] {
			fmt.Fprintf(w, "  %s: %s\n", iss.Severity, iss.Message)
		}
		if withJSON && r.pageJSON[squid] != "" {
			fmt.Fprintf(w, "  %s\n", r.pageJSON[squid])
		}
	}

	for _, pid := range r.paraOrder {
		fmt.Fprintf(w, "\nValidation issues for paragraph %s:\n", pid)
		for _, iss := range r.paras[pid] {
			fmt.Fprintf(w, "  %s: %s\n", iss.Severity, iss.Message)
		}
		if withJSON && r.paraJSON[pid] != "" {
			fmt.Fprintf(w, "  %s\n", r.paraJSON[pid])
		}
	}
}
