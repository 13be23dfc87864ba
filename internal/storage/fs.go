package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/doc-parser/internal/common"
)

// FSStorage keeps documents on the local filesystem. Used for development
// and tests; keys map to paths under the root directory.
type FSStorage struct {
	root    string
	baseURL string
}

func NewFSStorage(root, baseURL string) (*FSStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &FSStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FSStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: invalid storage key %q", common.ErrInvalidInput, key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *FSStorage) Upload(_ context.Context, key string, r io.Reader) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *FSStorage) Download(_ context.Context, key string, w io.Writer) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return fmt.Errorf("object %s: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func (s *FSStorage) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *FSStorage) PublicURL(key string) string {
	if s.baseURL == "" {
		return key
	}
	return s.baseURL + "/" + key
}
