package validate

import (
	"fmt"

	"github.com/cartools/car-y3/internal/corpus"
	"github.com/cartools/car-y3/internal/page"
	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/logger"
)

// Registry accumulates every paragraph instance of a submission, keyed
// by paragraph id, for cross-checks against the corpus. The same id may
// appear on several pages and each instance is checked.
type Registry struct {
	paras map[string][]*page.Paragraph
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{paras: make(map[string][]*page.Paragraph)}
}

// AddPage registers all paragraphs of a page.
func (r *Registry) AddPage(pg *page.Page) {
	for _, para := range pg.Paragraphs {
		if _, ok := r.paras[para.ID]; !ok {
			r.order = append(r.order, para.ID)
		}
		r.paras[para.ID] = append(r.paras[para.ID], para)
	}
}

// Len returns the number of distinct paragraph ids registered.
func (r *Registry) Len() int {
	return len(r.paras)
}

// allBodiesAbsent reports whether no registered paragraph carries a
// body. Bodies are optional as long as they are omitted everywhere.
func (r *Registry) allBodiesAbsent() bool {
	for _, instances := range r.paras {
		for _, para := range instances {
			if para.Body != nil {
				return false
			}
		}
	}
	return true
}

// VerifyParagraphIDs checks every registered id against a known-good id
// set, typically loaded from an id list file.
func (v *Validator) VerifyParagraphIDs(rep *Report, reg *Registry, valid map[string]struct{}) error {
	for _, pid := range reg.order {
		if _, ok := valid[pid]; ok {
			continue
		}
		iss := Issue{
			Severity: SeverityError,
			ParaID:   pid,
			Message:  fmt.Sprintf("Submission must only contain paragraphs from the paragraph corpus, but paragraph id %s is not contained. Paragraph must be omitted from the submission.", pid),
		}
		rep.addParagraph(pid, iss)
		rep.keepParaJSON(reg.paras[pid][0])
		if v.policy.FailFast {
			return apperrors.ValidationError(iss.Message)
		}
	}
	return nil
}

// VerifyParagraphText streams the corpus once and checks that every
// registered id exists there and, when bodies are present anywhere in
// the submission, that each body matches the corpus rendering.
func (v *Validator) VerifyParagraphText(rep *Report, reg *Registry, corpusPath string, log *logger.Logger) error {
	if reg.Len() == 0 {
		return nil
	}
	ids := make(map[string]struct{}, reg.Len())
	for pid := range reg.paras {
		ids[pid] = struct{}{}
	}
	refs, err := corpus.ReferenceBodies(corpusPath, ids, log)
	if err != nil {
		return err
	}

	allAbsent := reg.allBodiesAbsent()
	for _, pid := range reg.order {
		ref, ok := refs[pid]
		if !ok {
			iss := Issue{
				Severity: SeverityError,
				ParaID:   pid,
				Message:  fmt.Sprintf("No text available in the paragraph corpus for paragraph %s. Paragraph must be omitted from the submission.", pid),
			}
			rep.addParagraph(pid, iss)
			rep.keepParaJSON(reg.paras[pid][0])
			if v.policy.FailFast {
				return apperrors.ValidationError(iss.Message)
			}
			continue
		}
		if allAbsent {
			continue
		}
		for _, para := range reg.paras[pid] {
			for _, iss := range compareBodies(para, ref) {
				rep.addParagraph(pid, iss)
				rep.keepParaJSON(para)
				if v.policy.FailFast && iss.Severity == SeverityError {
					return apperrors.ValidationError(iss.Message)
				}
			}
		}
	}
	return nil
}

// compareBodies checks one paragraph instance against the corpus
// rendering of its id. Called only when some paragraph of the submission
// carries a body, so an absent body is an error here.
func compareBodies(para *page.Paragraph, ref []page.ParaBody) []Issue {
	perr := func(msg string) []Issue {
		return []Issue{{Severity: SeverityError, ParaID: para.ID, Message: msg}}
	}

	if para.Body == nil {
		return perr(fmt.Sprintf("Paragraph %s has no body. Bodies must either be omitted for all paragraphs or correctly populated.", para.ID))
	}
	if len(para.Body) == 0 {
		return perr(fmt.Sprintf("Paragraph %s has an empty body. Bodies must either be omitted for all paragraphs or correctly populated.", para.ID))
	}

	want := &page.Paragraph{ID: para.ID, Body: ref}
	if len(para.Body) != len(ref) {
		return perr(fmt.Sprintf("Paragraph bodies do not match for paragraph %s. Found %d body spans, but should have %d. The corpus content is:\n%s",
			para.ID, len(para.Body), len(ref), marshalCompact(want)))
	}
	for i := range para.Body {
		if !para.Body[i].Equal(ref[i]) {
			return perr(fmt.Sprintf("Paragraph bodies do not match for paragraph %s. Found %s, but should be %s. The corpus content is:\n%s",
				para.ID, marshalCompact(para.Body[i]), marshalCompact(ref[i]), marshalCompact(want)))
		}
	}
	return nil
}
