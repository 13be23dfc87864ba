package reader

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/doc-parser/internal/content"
)

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:pStyle w:val="Heading1"/></w:pPr>
      <w:r><w:t>Pricing Terms</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>The commitment fee is </w:t></w:r>
      <w:r><w:t>$120,000 per year.</w:t></w:r>
    </w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Term Start</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>2024-06-01</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:p>
      <w:pPr><w:pStyle w:val="Heading1"/></w:pPr>
      <w:r><w:t>Pricing Terms</w:t></w:r>
    </w:p>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contract.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWordReader(t *testing.T) {
	path := writeDocx(t, docxBody)

	r, err := OpenWord(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	meta := r.Metadata()
	if meta["file_type"] != "word" {
		t.Errorf("file_type = %q", meta["file_type"])
	}
	if meta["table_cells"] != "2" {
		t.Errorf("table_cells = %q, want 2", meta["table_cells"])
	}

	chunks, err := r.StructuredContent(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var sectionRefs, paraRefs []string
	for _, c := range chunks {
		switch c.Source.Type {
		case content.SourceSection:
			sectionRefs = append(sectionRefs, c.Source.Reference)
		case content.SourceParagraph:
			paraRefs = append(paraRefs, c.Source.Reference)
		}
	}

	if len(sectionRefs) != 2 {
		t.Fatalf("expected 2 heading chunks, got %v", sectionRefs)
	}
	if sectionRefs[0] != "Section Pricing Terms" {
		t.Errorf("first section ref: %q", sectionRefs[0])
	}
	// duplicate headings get a disambiguating suffix
	if sectionRefs[1] != "Section Pricing Terms (2)" {
		t.Errorf("second section ref: %q", sectionRefs[1])
	}

	if len(paraRefs) != 3 {
		t.Fatalf("expected 3 paragraph chunks (1 body + 2 table cells), got %v", paraRefs)
	}

	// runs within a paragraph are concatenated
	found := false
	for _, c := range chunks {
		if strings.Contains(c.Content, "The commitment fee is $120,000 per year.") {
			found = true
		}
	}
	if !found {
		t.Errorf("merged run text not found in chunks")
	}
}

func TestWordReaderRejectsLegacyDoc(t *testing.T) {
	path := writeTemp(t, "old.doc", []byte{0xD0, 0xCF, 0x11, 0xE0})
	if _, err := OpenWord(path, nil); err == nil {
		t.Fatal("expected error for legacy .doc")
	}
}

func TestWordReaderMissingDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	if _, err := OpenWord(path, nil); err == nil || !strings.Contains(err.Error(), "document.xml") {
		t.Fatalf("expected document.xml error, got %v", err)
	}
}
