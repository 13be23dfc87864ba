package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/joseph-ayodele/doc-parser/internal/common"
)

func TestFSStorageRoundTrip(t *testing.T) {
	store, err := NewFSStorage(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := store.Upload(ctx, "documents/abc.pdf", strings.NewReader("payload")); err != nil {
		t.Fatal(err)
	}

	ok, err := store.Exists(ctx, "documents/abc.pdf")
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v", ok, err)
	}

	var buf bytes.Buffer
	if err := store.Download(ctx, "documents/abc.pdf", &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "payload" {
		t.Errorf("downloaded %q", buf.String())
	}
}

func TestFSStorageMissingObject(t *testing.T) {
	store, err := NewFSStorage(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	err = store.Download(context.Background(), "documents/nope.pdf", &buf)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ok, err := store.Exists(context.Background(), "documents/nope.pdf")
	if err != nil || ok {
		t.Errorf("exists = %v, %v", ok, err)
	}
}

func TestFSStorageRejectsEscapingKeys(t *testing.T) {
	store, err := NewFSStorage(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"../outside.txt", "a/../../outside.txt", "/etc/passwd"} {
		if err := store.Upload(context.Background(), key, strings.NewReader("x")); !errors.Is(err, common.ErrInvalidInput) {
			t.Errorf("key %q: expected ErrInvalidInput, got %v", key, err)
		}
	}
}

func TestFSStoragePublicURL(t *testing.T) {
	store, err := NewFSStorage(t.TempDir(), "http://localhost:8080/files/")
	if err != nil {
		t.Fatal(err)
	}
	if got := store.PublicURL("documents/abc.pdf"); got != "http://localhost:8080/files/documents/abc.pdf" {
		t.Errorf("url = %q", got)
	}
}
