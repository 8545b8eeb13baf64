package proofstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FS stores payment proofs on the local filesystem. Filenames are prefixed
// with a fresh uuid so two customers uploading "receipt.jpg" never collide.
type FS struct {
	dir string
}

func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create proof dir: %w", err)
	}
	return &FS{dir: dir}, nil
}

func (s *FS) Store(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := uuid.NewString() + "-" + filepath.Base(filename)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create proof file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write proof file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}
