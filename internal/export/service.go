// Package export renders extraction results as XLSX workbooks.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doc-parser/internal/repository"
)

// Service is a tiny façade over the document repository that produces XLSX
// bytes for exports.
type Service struct {
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

// storedExtraction mirrors the JSON blob persisted by the pipeline.
type storedExtraction struct {
	ExtractedData map[string]any `json:"extracted_data"`
	Citations     struct {
		FieldCitations map[string]struct {
			Sources []struct {
				Type      string `json:"type"`
				Reference string `json:"reference"`
			} `json:"sources"`
		} `json:"field_citations"`
	} `json:"citations"`
	SourceSummary struct {
		TotalSources        int     `json:"total_sources"`
		FieldsWithCitations int     `json:"fields_with_citations"`
		CitationCoverage    float64 `json:"citation_coverage"`
	} `json:"source_summary"`
}

// ExportResultXLSX returns an XLSX workbook for one processed document:
// field values alongside their citations, plus a summary block.
func (s *Service) ExportResultXLSX(ctx context.Context, documentID int64) ([]byte, error) {
	start := time.Now()

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if len(doc.ExtractedData) == 0 {
		return nil, fmt.Errorf("document %d has no extraction result", documentID)
	}

	var stored storedExtraction
	if err := json.Unmarshal(doc.ExtractedData, &stored); err != nil {
		return nil, fmt.Errorf("decode extraction result: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Extraction"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"Field", "Value", "Source Type", "Source Reference"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	fields := make([]string, 0, len(stored.ExtractedData))
	for k := range stored.ExtractedData {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	row := 2
	for _, field := range fields {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, field)
		if v := stored.ExtractedData[field]; v != nil {
			write(2, fmt.Sprintf("%v", v))
		} else {
			write(2, "")
		}
		if c, ok := stored.Citations.FieldCitations[field]; ok && len(c.Sources) > 0 {
			write(3, c.Sources[0].Type)
			write(4, c.Sources[0].Reference)
		}
		row++
	}

	// Summary block below the field table.
	row++
	summary := [][2]any{
		{"File Name", doc.FileName},
		{"Total Sources", stored.SourceSummary.TotalSources},
		{"Fields With Citations", stored.SourceSummary.FieldsWithCitations},
		{"Citation Coverage", fmt.Sprintf("%.1f%%", stored.SourceSummary.CitationCoverage)},
	}
	for _, pair := range summary {
		keyCell, _ := excelize.CoordinatesToCellName(1, row)
		valCell, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, keyCell, pair[0])
		_ = f.SetCellValue(sheet, valCell, pair[1])
		row++
	}

	// Drop the default sheet if it is not ours.
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Debug("export.xlsx_ok", "document_id", documentID,
		"fields", len(fields), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}
