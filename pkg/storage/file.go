package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/nunet/pkg/io"
)

const fileExt = ".nunet"

// FileStore keeps one snapshot file per design, named by id.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Put(_ context.Context, snap io.Snapshot) error {
	return io.Export(snap, s.path(snap.ID))
}

func (s *FileStore) Get(_ context.Context, id uuid.UUID) (io.Snapshot, error) {
	path := s.path(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return io.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return io.Import(path)
}

func (s *FileStore) Delete(_ context.Context, id uuid.UUID) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

// List reads every snapshot in the directory. Files that fail to parse are
// skipped.
func (s *FileStore) List(_ context.Context) ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileExt) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		snap, err := io.Import(filepath.Join(s.dir, f.Name()))
		if err != nil {
			continue
		}
		entries = append(entries, entryOf(snap, info.ModTime()))
	}
	sortEntries(entries)
	return entries, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+fileExt)
}

var _ Store = (*FileStore)(nil)
