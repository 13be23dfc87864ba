package reader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/doc-parser/constants"
	"github.com/joseph-ayodele/doc-parser/internal/content"
	"github.com/joseph-ayodele/doc-parser/internal/ocr"
)

// Reader normalizes one document format into an ordered, restartable
// sequence of citable chunks. Empty pages/rows are omitted silently; only a
// total inability to open the document is an error.
type Reader interface {
	Metadata() map[string]string
	StructuredContent(ctx context.Context) ([]content.StructuredContent, error)
}

// Classify determines the document family from the file extension first,
// then magic bytes as a tiebreak. CSV is detected by parsing the first rows.
func Classify(path string) constants.DocType {
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "pdf":
		return constants.DocTypePDF
	case "xlsx", "xls":
		return constants.DocTypeExcel
	case "doc", "docx":
		return constants.DocTypeWord
	case "csv":
		if looksLikeCSV(path) {
			return constants.DocTypeExcel
		}
		return constants.DocTypeUnknown
	}

	head := make([]byte, 8)
	f, err := os.Open(path)
	if err != nil {
		return constants.DocTypeUnknown
	}
	defer f.Close()
	n, _ := io.ReadFull(f, head)
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, []byte("%PDF")):
		return constants.DocTypePDF
	case bytes.HasPrefix(head, []byte("PK\x03\x04")):
		// zip container: xlsx or docx; without an extension we cannot tell,
		// excel is the more common submission here
		return constants.DocTypeExcel
	case bytes.HasPrefix(head, []byte{0xD0, 0xCF, 0x11, 0xE0}):
		// legacy OLE container (.doc / .xls)
		return constants.DocTypeWord
	case looksLikeCSV(path):
		return constants.DocTypeExcel
	}
	return constants.DocTypeUnknown
}

// looksLikeCSV samples up to five rows and requires at least two columns.
func looksLikeCSV(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows := 0
	for rows < 5 {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false
		}
		if len(rec) < 2 {
			return false
		}
		rows++
	}
	return rows > 0
}

// ForDocument opens the reader matching the classified type.
func ForDocument(docType constants.DocType, path string, extractor *ocr.Extractor, logger *slog.Logger) (Reader, error) {
	switch docType {
	case constants.DocTypePDF:
		return OpenPDF(path, extractor, logger)
	case constants.DocTypeExcel:
		return OpenSpreadsheet(path, logger)
	case constants.DocTypeWord:
		return OpenWord(path, logger)
	}
	return nil, fmt.Errorf("no reader for document type %q", docType)
}
