package page

import (
	"encoding/json"
	"strings"
)

// Paragraph is one paragraph of a populated page. Body is nil while the
// paragraph is unpopulated; once filled from the corpus it holds at least
// one span. A non-nil empty body never serializes.
type Paragraph struct {
	ID   string
	Body []ParaBody
}

// NewParagraph returns an unpopulated paragraph.
func NewParagraph(id string) *Paragraph {
	return &Paragraph{ID: id}
}

// AddBody appends a span to the paragraph body.
func (p *Paragraph) AddBody(b ParaBody) {
	p.Body = append(p.Body, b)
}

// Populated reports whether the paragraph carries body spans.
func (p *Paragraph) Populated() bool {
	return len(p.Body) > 0
}

// PlainText returns the concatenated visible text of all spans.
func (p *Paragraph) PlainText() string {
	var sb strings.Builder
	for _, b := range p.Body {
		sb.WriteString(b.PlainText())
	}
	return sb.String()
}

type paragraphJSON struct {
	ParaID string     `json:"para_id"`
	Body   []bodyJSON `json:"para_body,omitempty"`
}

// MarshalJSON emits the paragraph with para_body omitted when empty.
func (p *Paragraph) MarshalJSON() ([]byte, error) {
	aux := paragraphJSON{ParaID: p.ID}
	for _, b := range p.Body {
		aux.Body = append(aux.Body, bodyToJSON(b))
	}
	return json.Marshal(aux)
}

// UnmarshalJSON decodes the paragraph, keeping the distinction between an
// absent para_body and an explicit empty list so validation can reject
// the latter.
func (p *Paragraph) UnmarshalJSON(data []byte) error {
	var aux paragraphJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.ID = aux.ParaID
	p.Body = nil
	if aux.Body != nil {
		p.Body = make([]ParaBody, 0, len(aux.Body))
		for _, j := range aux.Body {
			p.Body = append(p.Body, bodyFromJSON(j))
		}
	}
	return nil
}
