package reader

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/doc-parser/internal/content"
)

// WordReader extracts paragraphs and tables from .docx (OOXML) documents.
// Legacy binary .doc is not supported and is rejected at open time.
type WordReader struct {
	path       string
	paragraphs []docxParagraph
	logger     *slog.Logger
}

type docxParagraph struct {
	text    string
	style   string
	inTable bool
}

func OpenWord(path string, logger *slog.Logger) (*WordReader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.EqualFold(filepath.Ext(path), ".doc") {
		return nil, fmt.Errorf("open word %s: legacy .doc is not supported, convert to .docx", filepath.Base(path))
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open word %s: %w", filepath.Base(path), err)
	}
	defer zr.Close()

	var docEntry *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docEntry = f
			break
		}
	}
	if docEntry == nil {
		return nil, fmt.Errorf("open word %s: word/document.xml missing", filepath.Base(path))
	}

	rc, err := docEntry.Open()
	if err != nil {
		return nil, fmt.Errorf("open word %s: %w", filepath.Base(path), err)
	}
	defer rc.Close()

	paragraphs, err := parseDocumentXML(rc)
	if err != nil {
		return nil, fmt.Errorf("parse word %s: %w", filepath.Base(path), err)
	}

	return &WordReader{path: path, paragraphs: paragraphs, logger: logger}, nil
}

// parseDocumentXML walks the OOXML body and flattens runs into paragraphs,
// keeping the paragraph style name as a heading hint. Table cell paragraphs
// are tagged so rows can be rendered as one chunk.
func parseDocumentXML(r io.Reader) ([]docxParagraph, error) {
	dec := xml.NewDecoder(r)

	var paragraphs []docxParagraph
	var current strings.Builder
	var style string
	inParagraph := false
	tableDepth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "p":
				inParagraph = true
				current.Reset()
				style = ""
			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						style = attr.Value
					}
				}
			case "t":
				if inParagraph {
					var text string
					if err := dec.DecodeElement(&text, &t); err != nil {
						return nil, err
					}
					current.WriteString(text)
				}
			case "tab":
				if inParagraph {
					current.WriteString("\t")
				}
			case "br":
				if inParagraph {
					current.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				if tableDepth > 0 {
					tableDepth--
				}
			case "p":
				if inParagraph {
					if text := strings.TrimSpace(current.String()); text != "" {
						paragraphs = append(paragraphs, docxParagraph{
							text:    text,
							style:   style,
							inTable: tableDepth > 0,
						})
					}
					inParagraph = false
				}
			}
		}
	}
	return paragraphs, nil
}

func (r *WordReader) Metadata() map[string]string {
	tables := 0
	for _, p := range r.paragraphs {
		if p.inTable {
			tables++
		}
	}
	return map[string]string{
		"file_name":       filepath.Base(r.path),
		"file_type":       "word",
		"paragraph_count": strconv.Itoa(len(r.paragraphs)),
		"table_cells":     strconv.Itoa(tables),
	}
}

// StructuredContent emits heading paragraphs as "Section {title}" chunks and
// body paragraphs as "paragraph {n}" chunks in document order. Over-long
// paragraphs are section-split into "paragraph {n}, part {m}".
func (r *WordReader) StructuredContent(ctx context.Context) ([]content.StructuredContent, error) {
	var chunks []content.StructuredContent
	sectionSeen := make(map[string]int)
	paraNum := 0

	for _, p := range r.paragraphs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !p.inTable && IsHeading(p.text, p.style) {
			ref := "Section " + p.text
			if n := sectionSeen[ref]; n > 0 {
				ref = fmt.Sprintf("%s (%d)", ref, n+1)
			}
			sectionSeen["Section "+p.text]++
			chunks = append(chunks, content.StructuredContent{
				Content:  p.text,
				Source:   content.NewSourceLocation(content.SourceSection, ref, p.text),
				Metadata: map[string]string{"style": p.style, "is_heading": "true"},
			})
			continue
		}

		paraNum++
		sections := content.SplitSections(p.text)
		for i, sec := range sections {
			ref := fmt.Sprintf("paragraph %d", paraNum)
			if len(sections) > 1 {
				ref = fmt.Sprintf("paragraph %d, part %d", paraNum, i+1)
			}
			meta := map[string]string{}
			if p.inTable {
				meta["table"] = "true"
			}
			chunks = append(chunks, content.StructuredContent{
				Content:  sec,
				Source:   content.NewSourceLocation(content.SourceParagraph, ref, sec),
				Metadata: meta,
			})
		}
	}

	r.logger.Debug("word structured content built",
		"file", filepath.Base(r.path),
		"paragraphs", len(r.paragraphs),
		"chunks", len(chunks),
	)
	return chunks, nil
}
