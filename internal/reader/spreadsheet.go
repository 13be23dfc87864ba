package reader

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doc-parser/internal/content"
)

// SpreadsheetReader normalizes XLSX and CSV sources. Every data row becomes
// one chunk; cells matching the "important" heuristic additionally get their
// own finer-grained chunk addressed by cell reference.
type SpreadsheetReader struct {
	path   string
	sheets map[string][][]string
	order  []string
	logger *slog.Logger
}

func OpenSpreadsheet(path string, logger *slog.Logger) (*SpreadsheetReader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &SpreadsheetReader{
		path:   path,
		sheets: make(map[string][][]string),
		logger: logger,
	}

	var err error
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		err = r.loadCSV(path)
	} else {
		err = r.loadWorkbook(path)
	}
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", filepath.Base(path), err)
	}
	return r, nil
}

func (r *SpreadsheetReader) loadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return err
	}
	r.sheets["Sheet1"] = rows
	r.order = []string{"Sheet1"}
	return nil
}

func (r *SpreadsheetReader) loadWorkbook(path string) error {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			r.logger.Warn("failed to close workbook", "file", filepath.Base(path), "error", cerr)
		}
	}()

	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			// a broken sheet degrades silently, the rest still read
			r.logger.Warn("failed to read sheet", "sheet", sheet, "error", err)
			continue
		}
		r.sheets[sheet] = rows
		r.order = append(r.order, sheet)
	}
	return nil
}

func (r *SpreadsheetReader) Metadata() map[string]string {
	rowCount := 0
	colCount := 0
	for _, rows := range r.sheets {
		rowCount += len(rows)
		for _, row := range rows {
			if len(row) > colCount {
				colCount = len(row)
			}
		}
	}
	fileType := "excel"
	if strings.EqualFold(filepath.Ext(r.path), ".csv") {
		fileType = "csv"
	}
	return map[string]string{
		"file_name":    filepath.Base(r.path),
		"file_type":    fileType,
		"sheet_count":  strconv.Itoa(len(r.sheets)),
		"row_count":    strconv.Itoa(rowCount),
		"column_count": strconv.Itoa(colCount),
	}
}

// StructuredContent emits, per sheet: one "{sheet}:Row{n}" chunk per
// non-empty data row (n is the spreadsheet row number, header = row 1), and
// one "{sheet}:{CellRef}" chunk per important cell.
func (r *SpreadsheetReader) StructuredContent(ctx context.Context) ([]content.StructuredContent, error) {
	var chunks []content.StructuredContent

	for _, sheet := range r.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows := r.sheets[sheet]
		if len(rows) == 0 {
			continue
		}
		header := rows[0]

		for i, row := range rows[1:] {
			rowNum := i + 2 // 1-indexed, header occupies row 1
			rowText := renderRow(header, row)
			if rowText == "" {
				// empty row degrades silently
				continue
			}
			chunks = append(chunks, content.StructuredContent{
				Content: rowText,
				Source: content.NewSourceLocation(content.SourceSheetCell,
					fmt.Sprintf("%s:Row%d", sheet, rowNum), rowText),
				Metadata: map[string]string{"sheet": sheet},
			})

			for col, value := range row {
				colName := ""
				if col < len(header) {
					colName = header[col]
				}
				if !IsImportantCell(colName, value) {
					continue
				}
				cellRef := fmt.Sprintf("%s:%s", sheet, CellName(col, rowNum))
				cellText := value
				if colName != "" {
					cellText = fmt.Sprintf("%s: %s", colName, value)
				}
				chunks = append(chunks, content.StructuredContent{
					Content: cellText,
					Source:  content.NewSourceLocation(content.SourceSheetCell, cellRef, cellText),
					Metadata: map[string]string{
						"sheet":  sheet,
						"column": colName,
					},
				})
			}
		}
	}

	r.logger.Debug("spreadsheet structured content built",
		"file", filepath.Base(r.path),
		"sheets", len(r.sheets),
		"chunks", len(chunks),
	)
	return chunks, nil
}

// renderRow pairs header names with cell values: "Name=Acme; Fee=1200".
func renderRow(header, row []string) string {
	var parts []string
	for col, value := range row {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if col < len(header) && strings.TrimSpace(header[col]) != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", strings.TrimSpace(header[col]), strings.TrimSpace(value)))
		} else {
			parts = append(parts, strings.TrimSpace(value))
		}
	}
	return strings.Join(parts, "; ")
}
