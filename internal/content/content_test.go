package content

import (
	"strings"
	"testing"
)

func TestParseSourceType(t *testing.T) {
	tests := []struct {
		in   string
		want SourceType
	}{
		{"page", SourcePage},
		{"section", SourceSection},
		{"paragraph", SourceParagraph},
		{"sheet_cell", SourceSheetCell},
		{"text_span", SourceTextSpan},
		{"PAGE", SourcePage},
		{"  page  ", SourcePage},
		{"bogus", SourceTextSpan},
		{"", SourceTextSpan},
	}
	for _, tt := range tests {
		if got := ParseSourceType(tt.in); got != tt.want {
			t.Errorf("ParseSourceType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateExcerpt(t *testing.T) {
	short := "short text"
	if got := TruncateExcerpt(short); got != short {
		t.Errorf("short text should pass through, got %q", got)
	}

	long := strings.Repeat("x", 300)
	got := TruncateExcerpt(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated excerpt should end with ellipsis")
	}
	if len([]rune(got)) != maxExcerptRunes+3 {
		t.Errorf("truncated length = %d, want %d", len([]rune(got)), maxExcerptRunes+3)
	}

	// multi-byte runes must not be cut mid-character
	unicode := strings.Repeat("日", 250)
	got = TruncateExcerpt(unicode)
	if !strings.HasPrefix(got, strings.Repeat("日", maxExcerptRunes)) {
		t.Errorf("unicode excerpt corrupted")
	}
}

func TestFieldCitationSourceSummary(t *testing.T) {
	none := FieldCitation{}
	if got := none.SourceSummary(); got != "No source found" {
		t.Errorf("empty sources: got %q", got)
	}
	if none.PrimarySource() != nil {
		t.Errorf("empty sources should have no primary")
	}

	one := FieldCitation{Sources: []SourceLocation{{Reference: "page 3"}}}
	if got := one.SourceSummary(); got != "page 3" {
		t.Errorf("single source: got %q", got)
	}

	many := FieldCitation{Sources: []SourceLocation{
		{Reference: "page 3"}, {Reference: "page 7"}, {Reference: "Sheet1:B2"},
	}}
	if got := many.SourceSummary(); got != "page 3 (+2 more)" {
		t.Errorf("multiple sources: got %q", got)
	}
	if p := many.PrimarySource(); p == nil || p.Reference != "page 3" {
		t.Errorf("primary source should be first")
	}
}

func TestDocumentCitationsAllSources(t *testing.T) {
	dc := NewDocumentCitations()
	dc.Add("FieldB", "v1", []SourceLocation{
		{Type: SourcePage, Reference: "page 1"},
		{Type: SourcePage, Reference: "page 2"},
	})
	dc.Add("FieldA", "v2", []SourceLocation{
		{Type: SourcePage, Reference: "page 1"}, // duplicate reference
		{Type: SourceSection, Reference: "Section Pricing"},
	})

	all := dc.AllSources()
	if len(all) != 3 {
		t.Fatalf("expected 3 distinct sources, got %d", len(all))
	}
	// field keys are visited in sorted order, so FieldA's sources come first
	if all[0].Reference != "page 1" || all[1].Reference != "Section Pricing" {
		t.Errorf("unexpected order: %v", all)
	}
}

func TestRenderPrompt(t *testing.T) {
	chunks := []StructuredContent{
		{Content: "First chunk.", Source: SourceLocation{Type: SourcePage, Reference: "page 1"}},
		{Content: "Second chunk.", Source: SourceLocation{Type: SourcePage, Reference: "page 1, part 2"}},
	}
	got := RenderPrompt(chunks)
	want := "[page 1] First chunk.\n\n[page 1, part 2] Second chunk."
	if got != want {
		t.Errorf("RenderPrompt:\ngot  %q\nwant %q", got, want)
	}
}

func TestReferenceIndex(t *testing.T) {
	chunks := []StructuredContent{
		{Content: "a", Source: SourceLocation{Reference: "page 1"}},
		{Content: "b", Source: SourceLocation{Reference: "Sheet1:Row2"}},
	}
	idx := ReferenceIndex(chunks)
	if len(idx) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(idx))
	}
	if idx["Sheet1:Row2"].Content != "b" {
		t.Errorf("index lookup returned wrong chunk")
	}
}
