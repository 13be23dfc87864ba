// Package storage abstracts the blob store holding uploaded documents.
package storage

import (
	"context"
	"io"
)

// Storage is the blob store used for uploaded documents. Keys are
// slash-separated object names relative to the store root.
type Storage interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Download(ctx context.Context, key string, w io.Writer) error
	Exists(ctx context.Context, key string) (bool, error)
	// PublicURL returns the externally visible URL for a stored object.
	PublicURL(key string) string
}
