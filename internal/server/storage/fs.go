package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/vikinglab/contentvault/internal/common"
)

// FileStore keeps blobs as files in a single directory, one file per logical
// name. Names are flattened with filepath.Base so a crafted name cannot
// escape the directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "contentvault")
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name)+".tmp")
}

func (s *FileStore) Put(ctx context.Context, name string, data []byte) error {
	if err := os.WriteFile(s.path(name), data, 0o640); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Available reports free bytes on the filesystem holding the store directory.
func (s *FileStore) Available() (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(s.dir, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", s.dir, err)
	}
	return int64(st.Bavail) * st.Bsize, nil
}
