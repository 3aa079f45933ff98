// Package media stores uploaded photos content-addressed by SHA-256 and
// derives the resized variants the gallery serves.
package media

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	VariantOriginal = "original"
	VariantContent  = "content"
	VariantThumb    = "thumb"
)

// Variants derived from the original are always JPEG.
const variantExt = ".jpg"

const (
	defaultContentWidth = 1600
	defaultThumbWidth   = 480
	defaultQuality      = 85
)

var ErrTooLarge = errors.New("upload too large")
var ErrInvalidImage = errors.New("invalid image")
var ErrUnknownVariant = errors.New("unknown variant")

// Options tunes variant generation.
type Options struct {
	TempDir         string
	ContentMaxWidth int
	ThumbMaxWidth   int
	JPEGQuality     int
}

// Manager writes originals and variants to a Bucket.
type Manager struct {
	bucket   Bucket
	tmp      string
	contentW int
	thumbW   int
	quality  int
}

func NewManager(bucket Bucket, opts Options) *Manager {
	m := &Manager{
		bucket:   bucket,
		tmp:      opts.TempDir,
		contentW: opts.ContentMaxWidth,
		thumbW:   opts.ThumbMaxWidth,
		quality:  opts.JPEGQuality,
	}
	if m.tmp == "" {
		m.tmp = os.TempDir()
	}
	if m.contentW <= 0 {
		m.contentW = defaultContentWidth
	}
	if m.thumbW <= 0 {
		m.thumbW = defaultThumbWidth
	}
	if m.quality <= 0 || m.quality > 100 {
		m.quality = defaultQuality
	}
	return m
}

type SaveResult struct {
	SHA256   string
	Bytes    int64
	Mime     string
	Width    int
	Height   int
	Ext      string
	BlurHash string
}

// Save streams the upload to a temp file while hashing it, validates the
// pixel budget, then stores the original and its content and thumb variants.
// Objects already present under the same hash are not rewritten.
func (m *Manager) Save(ctx context.Context, r io.Reader, maxBytes int64, maxPixels int) (*SaveResult, error) {
	lim := &io.LimitedReader{R: r, N: maxBytes + 1}
	br := bufio.NewReader(lim)
	peek, _ := br.Peek(512)
	mimeType := http.DetectContentType(peek)

	if err := os.MkdirAll(m.tmp, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(m.tmp, "upload-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hash), br)
	if err != nil {
		return nil, err
	}
	if lim.N <= 0 || written > maxBytes {
		return nil, ErrTooLarge
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	cfg, format, err := image.DecodeConfig(tmp)
	if err != nil {
		return nil, ErrInvalidImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return nil, ErrInvalidImage
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(tmp, imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImage
	}

	ext, ok := formatExt[format]
	if !ok {
		return nil, ErrInvalidImage
	}
	sha := hex.EncodeToString(hash.Sum(nil))

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := m.putIfMissing(ctx, KeyFor(sha, VariantOriginal, ext), tmp, written, mimeType); err != nil {
		return nil, err
	}

	thumb, err := m.generateVariants(ctx, img, sha)
	if err != nil {
		return nil, err
	}

	placeholder, err := BlurHash(thumb)
	if err != nil {
		placeholder = ""
	}

	b := img.Bounds()
	return &SaveResult{
		SHA256:   sha,
		Bytes:    written,
		Mime:     mimeType,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Ext:      ext,
		BlurHash: placeholder,
	}, nil
}

func (m *Manager) generateVariants(ctx context.Context, img image.Image, sha string) (image.Image, error) {
	content := fitWidth(img, m.contentW)
	thumb := fitWidth(content, m.thumbW)

	for variant, v := range map[string]image.Image{VariantContent: content, VariantThumb: thumb} {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, v, imaging.JPEG, imaging.JPEGQuality(m.quality)); err != nil {
			return nil, fmt.Errorf("encode %s: %w", variant, err)
		}
		if err := m.putIfMissing(ctx, KeyFor(sha, variant, variantExt), &buf, int64(buf.Len()), "image/jpeg"); err != nil {
			return nil, err
		}
	}
	return thumb, nil
}

func fitWidth(img image.Image, width int) image.Image {
	if img.Bounds().Dx() <= width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

func (m *Manager) putIfMissing(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	ok, err := m.bucket.Exists(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return m.bucket.Put(ctx, key, r, size, contentType)
}

// Open returns a stored variant. ext is the original's extension and is only
// used for VariantOriginal.
func (m *Manager) Open(ctx context.Context, sha, variant, ext string) (*Object, error) {
	switch variant {
	case VariantOriginal, VariantContent, VariantThumb:
	default:
		return nil, ErrUnknownVariant
	}
	obj, err := m.bucket.Get(ctx, KeyFor(sha, variant, ext))
	if err != nil {
		return nil, err
	}
	obj.ContentType = ContentType(variant, ext)
	return obj, nil
}

// Remove deletes the original and both variants.
func (m *Manager) Remove(ctx context.Context, sha, ext string) error {
	var errs []error
	for _, variant := range []string{VariantOriginal, VariantContent, VariantThumb} {
		errs = append(errs, m.bucket.Delete(ctx, KeyFor(sha, variant, ext)))
	}
	return errors.Join(errs...)
}

// Check reports whether the bucket can be written.
func (m *Manager) Check(ctx context.Context) error {
	return m.bucket.Check(ctx)
}

// KeyFor is the bucket key for a variant. Keys fan out on the first two
// byte pairs of the hash.
func KeyFor(sha, variant, ext string) string {
	if len(sha) < 4 {
		return path.Join(variant, sha+ext)
	}
	if variant != VariantOriginal {
		ext = variantExt
	}
	return path.Join(variant, sha[0:2], sha[2:4], sha+ext)
}

// formatExt maps decoded image formats to the extension originals are
// stored under. The uploaded file name never picks the extension.
var formatExt = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

var extType = map[string]string{
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ContentType is the MIME type a variant is served with. Only image types
// are ever returned.
func ContentType(variant, ext string) string {
	if variant != VariantOriginal {
		return "image/jpeg"
	}
	if t, ok := extType[strings.ToLower(ext)]; ok {
		return t
	}
	return "application/octet-stream"
}
