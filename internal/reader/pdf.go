package reader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/doc-parser/internal/content"
	"github.com/joseph-ayodele/doc-parser/internal/ocr"
)

// PDFReader walks a PDF page by page. Pages with a text layer use direct
// extraction; pages without one go through OCR. OCR failure on a page falls
// back to whatever direct extraction yields for that page only.
type PDFReader struct {
	path      string
	pageCount int
	fileSize  int64
	extractor *ocr.Extractor
	logger    *slog.Logger
}

// OpenPDF validates the document and counts pages. A document that cannot be
// opened at all is fatal for that document.
func OpenPDF(path string, extractor *ocr.Extractor, logger *slog.Logger) (*PDFReader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filepath.Base(path), err)
	}
	pages, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("count pdf pages: %w", err)
	}

	var size int64
	if fi, err := os.Stat(path); err == nil {
		size = fi.Size()
	}

	return &PDFReader{
		path:      path,
		pageCount: pages,
		fileSize:  size,
		extractor: extractor,
		logger:    logger,
	}, nil
}

func (r *PDFReader) PageCount() int { return r.pageCount }

func (r *PDFReader) Metadata() map[string]string {
	return map[string]string{
		"file_name":  filepath.Base(r.path),
		"file_type":  "pdf",
		"page_count": strconv.Itoa(r.pageCount),
		"file_size":  strconv.FormatInt(r.fileSize, 10),
	}
}

// StructuredContent produces page-attributed chunks in document order. Each
// page's text is section-split; a page yielding multiple chunks numbers them
// "page N, part M" so references stay unique within the document.
func (r *PDFReader) StructuredContent(ctx context.Context) ([]content.StructuredContent, error) {
	var chunks []content.StructuredContent

	for page := 1; page <= r.pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := r.pageText(ctx, page)
		if strings.TrimSpace(text) == "" {
			// empty page degrades silently
			continue
		}
		sections := content.SplitSections(text)
		for i, sec := range sections {
			ref := fmt.Sprintf("page %d", page)
			if len(sections) > 1 {
				ref = fmt.Sprintf("page %d, part %d", page, i+1)
			}
			chunks = append(chunks, content.StructuredContent{
				Content: sec,
				Source:  content.NewSourceLocation(content.SourcePage, ref, sec),
				Metadata: map[string]string{
					"page": strconv.Itoa(page),
				},
			})
		}
	}

	r.logger.Debug("pdf structured content built",
		"file", filepath.Base(r.path),
		"pages", r.pageCount,
		"chunks", len(chunks),
	)
	return chunks, nil
}

// pageText prefers the embedded text layer, OCRs the page when the layer is
// missing, and degrades back to the (possibly empty) direct text when OCR
// fails. Never aborts the document.
func (r *PDFReader) pageText(ctx context.Context, page int) string {
	direct, err := r.extractor.PageText(ctx, r.path, page)
	if err != nil {
		r.logger.Warn("pdf page text extraction failed", "page", page, "error", err)
		direct = ""
	}
	if strings.TrimSpace(direct) != "" {
		return direct
	}

	recognized, err := r.extractor.PageOCR(ctx, r.path, page)
	if err != nil {
		r.logger.Warn("pdf page ocr failed, using direct text", "page", page, "error", err)
		return direct
	}
	return recognized
}
