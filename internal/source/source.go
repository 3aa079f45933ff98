// Package source provides the places photos are listed from and uploaded
// to: Cloudinary, a self-hosted MySQL and media store, and a static demo set.
package source

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/example/gallery/internal/gallery"
	"github.com/example/gallery/internal/media"
)

var (
	// ErrUploadUnsupported is returned by sources that cannot accept uploads.
	ErrUploadUnsupported = errors.New("upload not supported by this source")
	// ErrRejected wraps upstream refusals of an upload (bad file, quota).
	ErrRejected = errors.New("upload rejected")
	// ErrNoMedia is returned when a source does not serve media itself.
	ErrNoMedia = errors.New("source does not serve media")
)

// Source lists and accepts photos.
type Source interface {
	List(ctx context.Context) ([]gallery.Photo, error)
	Upload(ctx context.Context, u Upload) (*gallery.Photo, error)
	Ping(ctx context.Context) error
}

// MediaServer is implemented by sources that store the image bytes
// themselves.
type MediaServer interface {
	Media(ctx context.Context, id, variant string) (*media.Object, error)
}

// TagLister is implemented by sources that can list tags without listing
// every photo.
type TagLister interface {
	ListTags(ctx context.Context, prefix string, limit int) ([]string, error)
}

// Upload is a single file to add.
type Upload struct {
	Filename    string
	DisplayName string
	Tags        []string
	Body        io.Reader
	Size        int64
}

// Title is the display name, or the file name without its extension.
func (u Upload) Title() string {
	if n := strings.TrimSpace(u.DisplayName); n != "" {
		return n
	}
	base := filepath.Base(u.Filename)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MediaOf returns the MediaServer behind src, looking through wrappers.
func MediaOf(src Source) (MediaServer, bool) {
	return as[MediaServer](src)
}

// TagsOf returns the TagLister behind src, looking through wrappers.
func TagsOf(src Source) (TagLister, bool) {
	return as[TagLister](src)
}

func as[T any](src Source) (T, bool) {
	for src != nil {
		if v, ok := src.(T); ok {
			return v, true
		}
		w, ok := src.(interface{ Unwrap() Source })
		if !ok {
			break
		}
		src = w.Unwrap()
	}
	var zero T
	return zero, false
}
