package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joseph-ayodele/doc-parser/internal/content"
)

// BuildSystemPrompt is the contract-analyst persona plus the hard output
// rules.
func BuildSystemPrompt() string {
	return strings.Join([]string{
		"You are an expert contract analyst. You extract structured information from business documents with precise source citations.",
		"Extract information accurately and return valid JSON only.",
		"Every value you extract MUST cite the location it came from, using the exact citation markers embedded in the document.",
	}, " ")
}

// BuildUserPrompt renders the schema block, the citation-annotated document
// content, and the extraction instructions into a single prompt.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder

	b.WriteString("### Schema ###\n")
	b.WriteString(renderSchemaBlock())
	b.WriteString("\n\nExtract information from the following document and return a JSON object with SOURCE CITATIONS.\n\n")

	b.WriteString("### Document Metadata ###\n")
	for _, k := range sortedMetaKeys(req.Metadata) {
		fmt.Fprintf(&b, "%s: %s\n", k, req.Metadata[k])
	}

	b.WriteString("\n### Document Content with Source Citations ###\n")
	b.WriteString(content.RenderPrompt(req.Content))

	b.WriteString("\n\n### Instructions ###\n")
	b.WriteString(strings.Join([]string{
		`1. Return a JSON object of this shape: {"extracted_data": {"FieldName": value, ...}, "citations": {"FieldName": {"value": ..., "sources": [{"type": "page|section|paragraph|sheet_cell|text_span", "reference": "...", "text": "..."}]}}}.`,
		"2. When citing sources, use the EXACT citation markers shown in brackets in the document (e.g. [page 5], [Section 2.1], [Sheet1:A5]).",
		"3. If information comes from multiple locations, include ALL relevant sources in the sources array.",
		"4. If a value does not exist in the document, use null.",
		"5. For dates, use ISO format with timezone: YYYY-MM-DDTHH:MM:SS+00:00, as a string.",
		"6. Field names must match the schema exactly. Do not include fields not listed in the schema.",
	}, "\n"))

	return b.String()
}

func renderSchemaBlock() string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, f := range contractFields {
		typ := f.Type
		if typ == "datetime" {
			typ = "string(datetime)"
		}
		fmt.Fprintf(&b, "  %q: %q", f.Name, typ+" - "+f.Description)
		if i < len(contractFields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func sortedMetaKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
