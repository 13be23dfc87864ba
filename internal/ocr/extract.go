package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Config selects the external binaries used for text extraction and OCR.
type Config struct {
	Pdftotext string
	Pdftoppm  string
	Tesseract string
	DPI       int
	MaxPages  int // 0 = no cap
}

// Extractor pulls text out of PDFs, either from the embedded text layer
// (pdftotext) or by rendering pages and running tesseract on the images.
type Extractor struct {
	runner Runner
	cfg    Config
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{runner: execRunner{logger: logger}, cfg: cfg, logger: logger}
}

// WithRunner swaps the command runner; used by tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// PageText returns the text layer of a single 1-indexed page.
// pdftotext -f n -l n -layout -enc UTF-8 -eol unix <path> -
func (e *Extractor) PageText(ctx context.Context, path string, page int) (string, error) {
	n := strconv.Itoa(page)
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext,
		"-f", n, "-l", n, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext page %d: %w (%s)", page, err, truncate(string(errb), 512))
	}
	return strings.TrimRight(string(out), "\f\n "), nil
}

// FullText extracts the whole text layer and reports the page count derived
// from form-feed separators.
func (e *Extractor) FullText(ctx context.Context, path string) (string, int, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext,
		"-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w (%s)", err, truncate(string(errb), 512))
	}
	text := string(out)
	pages := 1 + strings.Count(text, "\f")
	return text, pages, nil
}

// PageOCR renders one page to PNG and runs tesseract on it. Used when a page
// has no extractable text layer.
func (e *Extractor) PageOCR(ctx context.Context, path string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docparse-ocr-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove ocr temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	n := strconv.Itoa(page)
	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f n -l n -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-f", n, "-l", n, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm page %d: %w (%s)", page, err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no image for page %d", page)
	}

	text, err := e.imageOCR(ctx, matches[0])
	if err != nil {
		return "", err
	}
	// rejoin words hyphenated across line breaks
	return strings.ReplaceAll(text, "-\n", ""), nil
}

func (e *Extractor) imageOCR(ctx context.Context, imagePath string) (string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, imagePath, "stdout")
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w (%s)", filepath.Base(imagePath), err, truncate(string(errb), 512))
	}
	return string(out), nil
}
