package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"time"
)

// ErrNotExist is returned by Bucket.Get for unknown keys.
var ErrNotExist = errors.New("object not found")

// Object is an open stored object. Callers close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Bucket is a flat key/value blob store. Keys use forward slashes.
type Bucket interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Check(ctx context.Context) error
}

// FSBucket stores objects below a root directory.
type FSBucket struct {
	root string
}

func NewFSBucket(root string) *FSBucket {
	return &FSBucket{root: root}
}

func (b *FSBucket) path(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

func (b *FSBucket) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	dst := b.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".put-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func (b *FSBucket) Get(_ context.Context, key string) (*Object, error) {
	f, err := os.Open(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Object{
		Body:        f,
		Size:        st.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(key)),
		ModTime:     st.ModTime(),
	}, nil
}

func (b *FSBucket) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (b *FSBucket) Delete(_ context.Context, key string) error {
	err := os.Remove(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Check verifies the root is writable.
func (b *FSBucket) Check(_ context.Context) error {
	if err := os.MkdirAll(b.root, 0o755); err != nil {
		return err
	}
	testPath := filepath.Join(b.root, ".writetest")
	if err := os.WriteFile(testPath, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage root not writable: %w", err)
	}
	return os.Remove(testPath)
}
