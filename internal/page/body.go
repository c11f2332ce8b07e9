package page

import "encoding/json"

// ParaBody is one rendered span of a paragraph body, either plain text or
// an entity link. The concrete types are TextBody and LinkBody.
type ParaBody interface {
	// PlainText returns the visible text of the span.
	PlainText() string
	// Equal reports whether other renders the same span.
	Equal(other ParaBody) bool

	isParaBody()
}

// TextBody is a plain text span.
type TextBody struct {
	Text string
}

func (TextBody) isParaBody() {}

// PlainText returns the span text.
func (b TextBody) PlainText() string { return b.Text }

// Equal reports whether other is a text span with the same text.
func (b TextBody) Equal(other ParaBody) bool {
	o, ok := other.(TextBody)
	return ok && o.Text == b.Text
}

// MarshalJSON emits the span in its wire shape.
func (b TextBody) MarshalJSON() ([]byte, error) {
	return json.Marshal(bodyToJSON(b))
}

// LinkBody is an entity link span. Entity is the id of the linked page,
// EntityName its title, and LinkSection an optional section anchor.
type LinkBody struct {
	Text        string
	Entity      string
	EntityName  string
	LinkSection string
}

func (LinkBody) isParaBody() {}

// PlainText returns the anchor text of the link.
func (b LinkBody) PlainText() string { return b.Text }

// Equal reports whether other is a link span with the same fields.
func (b LinkBody) Equal(other ParaBody) bool {
	o, ok := other.(LinkBody)
	return ok && o == b
}

// MarshalJSON emits the span in its wire shape.
func (b LinkBody) MarshalJSON() ([]byte, error) {
	return json.Marshal(bodyToJSON(b))
}

// bodyJSON is the wire shape shared by both span kinds. A present entity
// key marks a link span.
type bodyJSON struct {
	Text        string  `json:"text"`
	Entity      *string `json:"entity,omitempty"`
	EntityName  string  `json:"entity_name,omitempty"`
	LinkSection string  `json:"link_section,omitempty"`
}

func bodyToJSON(b ParaBody) bodyJSON {
	switch v := b.(type) {
	case LinkBody:
		return bodyJSON{
			Text:        v.Text,
			Entity:      &v.Entity,
			EntityName:  v.EntityName,
			LinkSection: v.LinkSection,
		}
	default:
		return bodyJSON{Text: b.PlainText()}
	}
}

func bodyFromJSON(j bodyJSON) ParaBody {
	if j.Entity == nil {
		return TextBody{Text: j.Text}
	}
	return LinkBody{
		Text:        j.Text,
		Entity:      *j.Entity,
		EntityName:  j.EntityName,
		LinkSection: j.LinkSection,
	}
}
