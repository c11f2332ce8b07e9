package validate

// Rules returns the human readable description of the validation rule
// set, for display from the command line.
func Rules() string {
	return rulesText
}

const rulesText = `
VALIDATION RULES for populated page submissions


Minimal requirements
--------------------

- All ids (page squid, run id, section path) must be set to non-empty
  ascii strings.

- A paragraph id must be a hexadecimal string of 40 characters that is
  contained in the paragraph corpus.

- The paragraphs of a page must be a non-empty list.

- The minimal representation of a paragraph is its "para_id". The
  "para_body" field is optional, but if given it must agree with the
  corpus rendering of that paragraph. It cannot be set to an empty
  list; instead the field must not appear in the JSON.

- A page's "paragraph_origins" are optional, but if given they must be
  complete, with a valid paragraph id and a finite "rank_score". The
  field cannot be set to an empty list; instead it must not appear in
  the JSON.

  - The "section_path" must refer to a heading of the page, given in
    the format "squid/heading id". It is strongly recommended to
    include paragraphs for all headings.

  - Up to 20 paragraphs are allowed per heading. We strongly encourage
    exactly 20 paragraphs per heading.

  - The "rank" field is optional, but if given it must agree with the
    sort order of "rank_score". The lowest valid number for "rank" is 1
    (the highest rank is 1). Ranks must be unique within a heading.


Further requirements for final submissions
------------------------------------------

- All page squids must start with the proper namespace, "tqa2:". They
  cannot contain "%20", which appeared only in earlier year ids.

- Run ids must not contain more than 15 characters drawn from letters,
  digits and "_-.", and cannot start with ".". Please include an
  abbreviation of your team name.

- At most 20 paragraphs can be given per page. We strongly encourage
  exactly 20 paragraphs.

- Every submitted page must appear in the outline, and every outline
  page must be submitted.
`
