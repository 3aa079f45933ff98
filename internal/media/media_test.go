package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestKeyFor(t *testing.T) {
	sha := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"
	if got := KeyFor(sha, VariantOriginal, ".png"); got != "original/ab/cd/"+sha+".png" {
		t.Fatalf("unexpected original key: %s", got)
	}
	if got := KeyFor(sha, VariantContent, ".png"); got != "content/ab/cd/"+sha+".jpg" {
		t.Fatalf("unexpected content key: %s", got)
	}
	if got := KeyFor(sha, VariantThumb, ""); got != "thumb/ab/cd/"+sha+".jpg" {
		t.Fatalf("unexpected thumb key: %s", got)
	}
}

func TestSaveStoresOriginalAndVariants(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	m := NewManager(NewFSBucket(root), Options{TempDir: t.TempDir(), ContentMaxWidth: 100, ThumbMaxWidth: 40})

	data := pngBytes(t, 200, 100)
	res, err := m.Save(ctx, bytes.NewReader(data), 1<<20, 1<<20)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Width != 200 || res.Height != 100 {
		t.Fatalf("unexpected dimensions %dx%d", res.Width, res.Height)
	}
	if res.Ext != ".png" || res.Mime != "image/png" {
		t.Fatalf("unexpected ext/mime %s %s", res.Ext, res.Mime)
	}
	if res.Bytes != int64(len(data)) {
		t.Fatalf("expected %d bytes got %d", len(data), res.Bytes)
	}
	if res.BlurHash == "" {
		t.Fatalf("expected blurhash")
	}

	orig, err := m.Open(ctx, res.SHA256, VariantOriginal, res.Ext)
	if err != nil {
		t.Fatalf("open original: %v", err)
	}
	got, _ := io.ReadAll(orig.Body)
	orig.Body.Close()
	if !bytes.Equal(got, data) {
		t.Fatalf("original bytes differ")
	}

	for variant, width := range map[string]int{VariantContent: 100, VariantThumb: 40} {
		obj, err := m.Open(ctx, res.SHA256, variant, res.Ext)
		if err != nil {
			t.Fatalf("open %s: %v", variant, err)
		}
		cfg, format, err := image.DecodeConfig(obj.Body)
		obj.Body.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", variant, err)
		}
		if format != "jpeg" || cfg.Width != width {
			t.Fatalf("%s: expected jpeg width %d, got %s width %d", variant, width, format, cfg.Width)
		}
	}
}

func TestSaveRejectsOversizedUpload(t *testing.T) {
	m := NewManager(NewFSBucket(t.TempDir()), Options{TempDir: t.TempDir()})
	data := pngBytes(t, 10, 10)
	_, err := m.Save(context.Background(), bytes.NewReader(data), int64(len(data)-1), 1<<20)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestSaveAcceptsExactLimit(t *testing.T) {
	m := NewManager(NewFSBucket(t.TempDir()), Options{TempDir: t.TempDir()})
	data := pngBytes(t, 10, 10)
	if _, err := m.Save(context.Background(), bytes.NewReader(data), int64(len(data)), 1<<20); err != nil {
		t.Fatalf("save at limit: %v", err)
	}
}

func TestSaveRejectsPixelBudget(t *testing.T) {
	m := NewManager(NewFSBucket(t.TempDir()), Options{TempDir: t.TempDir()})
	_, err := m.Save(context.Background(), bytes.NewReader(pngBytes(t, 20, 20)), 1<<20, 399)
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestSaveRejectsNonImage(t *testing.T) {
	m := NewManager(NewFSBucket(t.TempDir()), Options{TempDir: t.TempDir()})
	_, err := m.Save(context.Background(), strings.NewReader("hello, not an image"), 1<<20, 1<<20)
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestSaveStoresOriginalUnderDecodedFormat(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewFSBucket(t.TempDir()), Options{TempDir: t.TempDir()})
	res, err := m.Save(ctx, bytes.NewReader(pngBytes(t, 8, 8)), 1<<20, 1<<20)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Ext != ".png" {
		t.Fatalf("expected .png, got %q", res.Ext)
	}
	obj, err := m.Open(ctx, res.SHA256, VariantOriginal, res.Ext)
	if err != nil {
		t.Fatalf("open original: %v", err)
	}
	obj.Body.Close()
	if obj.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %q", obj.ContentType)
	}
}

func TestContentTypeOnlyServesImages(t *testing.T) {
	cases := map[string]string{
		".jpg":  "image/jpeg",
		".PNG":  "image/png",
		".webp": "image/webp",
		".html": "application/octet-stream",
		".svg":  "application/octet-stream",
		"":      "application/octet-stream",
	}
	for ext, want := range cases {
		if got := ContentType(VariantOriginal, ext); got != want {
			t.Fatalf("ContentType(%q) = %q, want %q", ext, got, want)
		}
	}
	if got := ContentType(VariantThumb, ".html"); got != "image/jpeg" {
		t.Fatalf("variants are jpeg, got %q", got)
	}
}

func TestOpenUnknown(t *testing.T) {
	m := NewManager(NewFSBucket(t.TempDir()), Options{})
	if _, err := m.Open(context.Background(), "abcd1234", "poster", ".jpg"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
	if _, err := m.Open(context.Background(), "abcd1234", VariantThumb, ".jpg"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewFSBucket(t.TempDir()), Options{TempDir: t.TempDir()})
	res, err := m.Save(ctx, bytes.NewReader(pngBytes(t, 8, 8)), 1<<20, 1<<20)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.Remove(ctx, res.SHA256, res.Ext); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := m.Open(ctx, res.SHA256, VariantThumb, res.Ext); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected thumb gone, got %v", err)
	}
}

func TestFSBucketCheck(t *testing.T) {
	if err := NewFSBucket(t.TempDir()).Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
}
