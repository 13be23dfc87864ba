package content

import (
	"fmt"
	"sort"
	"strings"
)

// SourceType classifies where a chunk of content (or a citation) came from.
type SourceType string

const (
	SourcePage      SourceType = "page"
	SourceSection   SourceType = "section"
	SourceParagraph SourceType = "paragraph"
	SourceSheetCell SourceType = "sheet_cell"
	SourceTextSpan  SourceType = "text_span"
)

// ParseSourceType maps a wire value to a SourceType. Unrecognized values fail
// soft to SourceTextSpan; citations are best-effort provenance, not a gate.
func ParseSourceType(s string) SourceType {
	switch SourceType(strings.ToLower(strings.TrimSpace(s))) {
	case SourcePage, SourceSection, SourceParagraph, SourceSheetCell, SourceTextSpan:
		return SourceType(strings.ToLower(strings.TrimSpace(s)))
	}
	return SourceTextSpan
}

// maxExcerptRunes bounds the verbatim excerpt carried on a SourceLocation so
// payloads stay humanly verifiable.
const maxExcerptRunes = 200

// SourceLocation is a reproducible pointer into a document: "page 5",
// "Section 2.1", "Sheet1:A5", "paragraph 12".
type SourceLocation struct {
	Type      SourceType `json:"type"`
	Reference string     `json:"reference"`
	Text      string     `json:"text,omitempty"`
}

// NewSourceLocation builds a SourceLocation with the excerpt truncated to the
// preview bound.
func NewSourceLocation(t SourceType, reference, text string) SourceLocation {
	return SourceLocation{Type: t, Reference: reference, Text: TruncateExcerpt(text)}
}

// TruncateExcerpt bounds s to the excerpt preview length, rune-safe.
func TruncateExcerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= maxExcerptRunes {
		return s
	}
	return string(runes[:maxExcerptRunes]) + "..."
}

// StructuredContent is an atomic, citable chunk of document content.
type StructuredContent struct {
	Content  string            `json:"content"`
	Source   SourceLocation    `json:"source_location"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FieldCitation binds one extracted field's value to the source locations
// that justify it.
type FieldCitation struct {
	Value   any              `json:"value"`
	Sources []SourceLocation `json:"sources"`
}

// PrimarySource returns the first source, or nil when the field is uncited.
func (c FieldCitation) PrimarySource() *SourceLocation {
	if len(c.Sources) == 0 {
		return nil
	}
	return &c.Sources[0]
}

// SourceSummary renders a short human description of the citation's sources.
func (c FieldCitation) SourceSummary() string {
	switch len(c.Sources) {
	case 0:
		return "No source found"
	case 1:
		return c.Sources[0].Reference
	default:
		return fmt.Sprintf("%s (+%d more)", c.Sources[0].Reference, len(c.Sources)-1)
	}
}

// DocumentStructure is aggregate metadata about the content a document
// produced: counts by source type and identified logical sections.
type DocumentStructure struct {
	TotalChunks   int                 `json:"total_chunks"`
	SourceCounts  map[SourceType]int  `json:"source_counts"`
	NamedSections map[string][]string `json:"named_sections,omitempty"`
}

// DocumentCitations is the container for all field citations in a document.
type DocumentCitations struct {
	FieldCitations map[string]FieldCitation `json:"field_citations"`
	Structure      *DocumentStructure       `json:"document_structure,omitempty"`
}

func NewDocumentCitations() *DocumentCitations {
	return &DocumentCitations{FieldCitations: make(map[string]FieldCitation)}
}

// Add registers the citation for a field, replacing any previous one.
func (d *DocumentCitations) Add(field string, value any, sources []SourceLocation) {
	d.FieldCitations[field] = FieldCitation{Value: value, Sources: sources}
}

// Get returns the citation for a field, if any.
func (d *DocumentCitations) Get(field string) (FieldCitation, bool) {
	c, ok := d.FieldCitations[field]
	return c, ok
}

// AllSources returns every distinct source location used in the document,
// de-duplicated by reference. First occurrence wins.
func (d *DocumentCitations) AllSources() []SourceLocation {
	seen := make(map[string]struct{})
	var out []SourceLocation
	for _, field := range sortedKeys(d.FieldCitations) {
		for _, src := range d.FieldCitations[field].Sources {
			if _, ok := seen[src.Reference]; ok {
				continue
			}
			seen[src.Reference] = struct{}{}
			out = append(out, src)
		}
	}
	return out
}

func sortedKeys(m map[string]FieldCitation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderPrompt flattens the chunk sequence into a prompt-ready blob with
// inline citation markers, in document order:
//
//	[page 1] Some content...
//
//	[page 1, part 2] More content...
func RenderPrompt(chunks []StructuredContent) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf("[%s] %s", c.Source.Reference, c.Content))
	}
	return strings.Join(parts, "\n\n")
}

// ReferenceIndex maps each chunk's reference string back to the chunk, for
// cross-checking LLM-provided citations.
func ReferenceIndex(chunks []StructuredContent) map[string]StructuredContent {
	idx := make(map[string]StructuredContent, len(chunks))
	for _, c := range chunks {
		idx[c.Source.Reference] = c
	}
	return idx
}
