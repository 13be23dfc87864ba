package citations

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/joseph-ayodele/doc-parser/internal/content"
	"github.com/joseph-ayodele/doc-parser/internal/llm"
)

// DefaultCriticalFields are the fields flagged when they arrive without
// provenance. Configurable per deployment.
var DefaultCriticalFields = []string{"CustomerName", "CommitmentFee", "TermStartDate", "DateSigned"}

// SourceSummary carries the aggregate citation metrics for one document.
type SourceSummary struct {
	TotalSources        int     `json:"total_sources"`
	FieldsWithCitations int     `json:"fields_with_citations"`
	CitationCoverage    float64 `json:"citation_coverage"`
}

// Validation is the non-fatal citation quality report. Missing citations are
// warnings, never errors that block the extraction result.
type Validation struct {
	IsValid                  bool     `json:"is_valid"`
	Errors                   []string `json:"errors"`
	Warnings                 []string `json:"warnings"`
	CitationQuality          string   `json:"citation_quality"`
	MissingCriticalCitations []string `json:"missing_critical_citations,omitempty"`
}

// Aggregate bundles the verified citations with their quality metrics.
type Aggregate struct {
	Citations     *content.DocumentCitations `json:"citations"`
	SourceSummary SourceSummary              `json:"source_summary"`
	Validation    Validation                 `json:"citation_validation"`
}

// Aggregator reconciles model-reported citations against the known content
// index. It never returns an error: citations are best-effort provenance.
type Aggregator struct {
	criticalFields []string
	logger         *slog.Logger
}

func NewAggregator(criticalFields []string, logger *slog.Logger) *Aggregator {
	if criticalFields == nil {
		criticalFields = DefaultCriticalFields
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{criticalFields: criticalFields, logger: logger}
}

// Aggregate builds the DocumentCitations for a model response. Unknown
// source types fail soft to text_span; citations whose reference matches a
// known chunk inherit the chunk excerpt when the model omitted one.
func (a *Aggregator) Aggregate(result llm.ExtractResult, chunks []content.StructuredContent) Aggregate {
	index := content.ReferenceIndex(chunks)
	docCitations := content.NewDocumentCitations()

	for field, raw := range result.Citations {
		var sources []content.SourceLocation
		for _, src := range raw.Sources {
			if strings.TrimSpace(src.Reference) == "" {
				continue
			}
			text := src.Text
			if text == "" {
				if chunk, ok := index[src.Reference]; ok {
					text = chunk.Content
				}
			}
			sources = append(sources, content.NewSourceLocation(
				content.ParseSourceType(src.Type), src.Reference, text))
		}
		if len(sources) > 0 {
			docCitations.Add(field, raw.Value, sources)
		}
	}

	docCitations.Structure = buildStructure(chunks)

	summary := a.summarize(result.ExtractedData, docCitations)
	validation := a.validate(result.ExtractedData, docCitations, summary)

	a.logger.Debug("citations aggregated",
		"fields", len(result.ExtractedData),
		"cited", summary.FieldsWithCitations,
		"coverage", summary.CitationCoverage,
		"quality", validation.CitationQuality,
	)

	return Aggregate{Citations: docCitations, SourceSummary: summary, Validation: validation}
}

func (a *Aggregator) summarize(extracted map[string]any, dc *content.DocumentCitations) SourceSummary {
	cited := 0
	for field := range extracted {
		if c, ok := dc.Get(field); ok && len(c.Sources) > 0 {
			cited++
		}
	}
	total := len(extracted)
	if total < 1 {
		total = 1
	}
	return SourceSummary{
		TotalSources:        len(dc.AllSources()),
		FieldsWithCitations: cited,
		CitationCoverage:    float64(cited) / float64(total) * 100,
	}
}

func (a *Aggregator) validate(extracted map[string]any, dc *content.DocumentCitations, summary SourceSummary) Validation {
	v := Validation{
		IsValid:         true,
		Errors:          []string{},
		Warnings:        []string{},
		CitationQuality: "good",
	}

	var uncited []string
	for field := range extracted {
		if c, ok := dc.Get(field); !ok || len(c.Sources) == 0 {
			uncited = append(uncited, field)
		}
	}
	sort.Strings(uncited)
	if len(uncited) > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("fields without citations: %s", strings.Join(uncited, ", ")))
	}

	var missingCritical []string
	for _, field := range a.criticalFields {
		if c, ok := dc.Get(field); !ok || len(c.Sources) == 0 {
			missingCritical = append(missingCritical, field)
		}
	}
	if len(missingCritical) > 0 {
		v.MissingCriticalCitations = missingCritical
		v.Warnings = append(v.Warnings, fmt.Sprintf("missing citations for critical fields: %s", strings.Join(missingCritical, ", ")))
	}

	switch {
	case summary.FieldsWithCitations == 0:
		v.CitationQuality = "poor"
	case len(uncited)*2 > len(extracted):
		v.CitationQuality = "fair"
	}

	return v
}

// sectionKeywords bucket content chunks into logical contract sections by
// keyword. Used for the document_structure report only.
var sectionKeywords = map[string][]string{
	"definitions": {"definition", "means", "shall mean"},
	"pricing":     {"fee", "price", "discount", "rate", "cost"},
	"credits":     {"credit", "rebate", "savings"},
	"audits":      {"audit", "auditing"},
	"termination": {"termination", "term of", "notice period", "renewal"},
	"payment":     {"payment", "invoice", "billing"},
}

func buildStructure(chunks []content.StructuredContent) *content.DocumentStructure {
	structure := &content.DocumentStructure{
		TotalChunks:   len(chunks),
		SourceCounts:  make(map[content.SourceType]int),
		NamedSections: make(map[string][]string),
	}
	for _, c := range chunks {
		structure.SourceCounts[c.Source.Type]++
		lower := strings.ToLower(c.Content)
		for section, keywords := range sectionKeywords {
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					structure.NamedSections[section] = append(structure.NamedSections[section], c.Source.Reference)
					break
				}
			}
		}
	}
	if len(structure.NamedSections) == 0 {
		structure.NamedSections = nil
	}
	return structure
}
