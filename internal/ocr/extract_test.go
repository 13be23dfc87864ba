package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRunner struct {
	calls  [][]string
	stdout []byte
	stderr []byte
	err    error
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.stdout, r.stderr, r.err
}

func TestPageText(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("Term: 36 months\f\n")}
	e := NewExtractor(Config{}, nil).WithRunner(runner)

	text, err := e.PageText(context.Background(), "doc.pdf", 3)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Term: 36 months" {
		t.Errorf("text = %q", text)
	}

	call := runner.calls[0]
	if call[0] != "pdftotext" {
		t.Errorf("cmd = %q", call[0])
	}
	joined := strings.Join(call, " ")
	if !strings.Contains(joined, "-f 3 -l 3") {
		t.Errorf("page range missing: %s", joined)
	}
}

func TestPageTextError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1"), stderr: []byte("Syntax Error: bad xref")}
	e := NewExtractor(Config{}, nil).WithRunner(runner)

	_, err := e.PageText(context.Background(), "doc.pdf", 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "bad xref") {
		t.Errorf("stderr not surfaced: %v", err)
	}
}

func TestFullTextPageCount(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("page one\fpage two\fpage three")}
	e := NewExtractor(Config{}, nil).WithRunner(runner)

	_, pages, err := e.FullText(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if pages != 3 {
		t.Errorf("pages = %d", pages)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	long := strings.Repeat("x", 20)
	got := truncate(long, 10)
	if !strings.HasPrefix(got, "xxxxxxxxxx") || !strings.HasSuffix(got, "(truncated)") {
		t.Errorf("got %q", got)
	}
}
