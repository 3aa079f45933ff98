package favstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/gallery/internal/gallery"
)

// File keeps one JSON file per key in a directory. Writes go through a
// temporary file and a rename so a crash never leaves a torn entry.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create favourites dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.pathFor(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, gallery.ErrKeyNotFound
	}
	return data, err
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, ".fav-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.pathFor(key))
}

func (f *File) Close() error { return nil }

func (f *File) pathFor(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(f.dir, name+".json")
}
