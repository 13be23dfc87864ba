package llm

import (
	"context"

	"github.com/joseph-ayodele/doc-parser/internal/content"
)

// ExtractRequest carries everything the model needs: document metadata plus
// the ordered, citation-annotated content sequence.
type ExtractRequest struct {
	DocName  string
	Metadata map[string]string
	Content  []content.StructuredContent
}

// RawSource is one citation source exactly as the model returned it. The
// aggregator cross-checks these against the known reference index; nothing
// here is trusted blindly.
type RawSource struct {
	Type      string `json:"type"`
	Reference string `json:"reference"`
	Text      string `json:"text,omitempty"`
}

// RawCitation is the per-field citation block from the model.
type RawCitation struct {
	Value   any         `json:"value"`
	Sources []RawSource `json:"sources"`
}

// ExtractResult is the parsed model response:
// {"extracted_data": {...}, "citations": {field: {...}}}.
type ExtractResult struct {
	ExtractedData map[string]any         `json:"extracted_data"`
	Citations     map[string]RawCitation `json:"citations"`
}

// Extractor is the interface the pipeline depends on. The second return is
// the raw JSON content for persistence/debugging. A malformed response is an
// error; the caller marks the task failed with it.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (ExtractResult, []byte, error)
}
